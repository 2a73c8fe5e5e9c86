package pdf

import (
	"bytes"
	"testing"
)

// TestLexerTokens tests basic token scanning.
func TestLexerTokens(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("42 3.14 true false null /Name (text) <4869> [ ] << >>"))

	expected := []TokenType{
		TokenInteger, TokenReal, TokenBoolean, TokenBoolean, TokenNull,
		TokenName, TokenString, TokenHexString,
		TokenArrayStart, TokenArrayEnd, TokenDictStart, TokenDictEnd,
		TokenEOF,
	}

	for i, want := range expected {
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Type != want {
			t.Errorf("token %d: expected type %d, got %d", i, want, tok.Type)
		}
	}
}

// TestLexerNumbers tests integer and real parsing including signs.
func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value interface{}
	}{
		{"123", TokenInteger, int64(123)},
		{"-7", TokenInteger, int64(-7)},
		{"+5", TokenInteger, int64(5)},
		{"0.5", TokenReal, 0.5},
		{".5", TokenReal, 0.5},
		{"-1.25", TokenReal, -1.25},
	}

	for _, tt := range tests {
		lexer := NewLexerFromBytes([]byte(tt.input))
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("%q: %v", tt.input, err)
		}
		if tok.Type != tt.typ {
			t.Errorf("%q: expected type %d, got %d", tt.input, tt.typ, tok.Type)
		}
		if tok.Value != tt.value {
			t.Errorf("%q: expected value %v, got %v", tt.input, tt.value, tok.Value)
		}
	}
}

// TestLexerStringEscapes tests literal string escape sequences.
func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{`(simple)`, []byte("simple")},
		{`(with \(nested\) parens)`, []byte("with (nested) parens")},
		{"(line\\nbreak)", []byte("line\nbreak")},
		{`(octal \101)`, []byte("octal A")},
		{"(balanced (inner) text)", []byte("balanced (inner) text")},
	}

	for _, tt := range tests {
		lexer := NewLexerFromBytes([]byte(tt.input))
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("%q: %v", tt.input, err)
		}
		if !bytes.Equal(tok.Value.([]byte), tt.want) {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.want, tok.Value)
		}
	}
}

// TestLexerHexString tests hex strings including odd length and whitespace.
func TestLexerHexString(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"<48656C6C6F>", []byte("Hello")},
		{"<48 65 6C\n6C 6F>", []byte("Hello")},
		{"<484>", []byte{0x48, 0x40}},
	}

	for _, tt := range tests {
		lexer := NewLexerFromBytes([]byte(tt.input))
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("%q: %v", tt.input, err)
		}
		if tok.Type != TokenHexString {
			t.Fatalf("%q: expected hex string token", tt.input)
		}
		if !bytes.Equal(tok.Value.([]byte), tt.want) {
			t.Errorf("%q: expected % X, got % X", tt.input, tt.want, tok.Value)
		}
	}
}

// TestLexerNameEscapes tests #XX escapes in names.
func TestLexerNameEscapes(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("/A#20B"))
	tok, err := lexer.NextToken()
	if err != nil {
		t.Fatalf("NextToken failed: %v", err)
	}
	if tok.Value.(string) != "A B" {
		t.Errorf("expected 'A B', got %q", tok.Value)
	}
}

// TestLexerComments tests that comments are skipped as whitespace.
func TestLexerComments(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("% a comment\n42"))
	tok, err := lexer.NextToken()
	if err != nil {
		t.Fatalf("NextToken failed: %v", err)
	}
	if tok.Type != TokenInteger || tok.Value.(int64) != 42 {
		t.Errorf("expected integer 42, got %v", tok)
	}
}

// TestLexerKeywords tests structural keywords and the fallthrough for
// unrecognized ones.
func TestLexerKeywords(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"obj", TokenObjStart},
		{"endobj", TokenObjEnd},
		{"stream", TokenStreamStart},
		{"endstream", TokenStreamEnd},
		{"R", TokenRef},
		{"xref", TokenXRef},
		{"trailer", TokenTrailer},
		{"startxref", TokenStartXRef},
		{"garbage", TokenKeyword},
	}

	for _, tt := range tests {
		lexer := NewLexerFromBytes([]byte(tt.input))
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("%q: %v", tt.input, err)
		}
		if tok.Type != tt.typ {
			t.Errorf("%q: expected type %d, got %d", tt.input, tt.typ, tok.Type)
		}
	}
}

// TestLexerPosition tests that token positions honor the base offset.
func TestLexerPosition(t *testing.T) {
	lexer := newLexerAt(bytes.NewReader([]byte("  42")), 100)
	tok, err := lexer.NextToken()
	if err != nil {
		t.Fatalf("NextToken failed: %v", err)
	}
	if tok.Pos != 102 {
		t.Errorf("expected position 102, got %d", tok.Pos)
	}
}
