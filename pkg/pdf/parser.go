package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// Parser parses PDF objects from tokens
type Parser struct {
	lexer  *Lexer
	tokens []Token
	pos    int

	// src is the document's byte source when parsing in place; stream
	// payloads then record offsets into it instead of copying bytes.
	src io.ReaderAt

	// resolve fetches indirect objects, needed when a stream's Length is a
	// reference. May be nil for detached parsing.
	resolve func(Object) (Object, error)
}

// NewParser creates a new parser for the given lexer
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// NewParserFromBytes creates a new parser from a byte slice
func NewParserFromBytes(data []byte) *Parser {
	return NewParser(NewLexerFromBytes(data))
}

// newParserAt creates a parser positioned at an absolute offset of a larger
// byte source. Stream payloads are recorded as locators, not copied.
func newParserAt(src io.ReaderAt, offset, size int64, resolve func(Object) (Object, error)) *Parser {
	section := io.NewSectionReader(src, offset, size-offset)
	return &Parser{
		lexer:   newLexerAt(section, offset),
		src:     src,
		resolve: resolve,
	}
}

// nextToken gets the next token, buffering for lookahead
func (p *Parser) nextToken() (Token, error) {
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		return tok, nil
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return Token{}, err
	}

	p.tokens = append(p.tokens, tok)
	p.pos++
	return tok, nil
}

// peekToken peeks at the next token without consuming it
func (p *Parser) peekToken() (Token, error) {
	tok, err := p.nextToken()
	if err != nil {
		return Token{}, err
	}
	p.pos--
	return tok, nil
}

// peekTokenN peeks at the nth token ahead (0-indexed)
func (p *Parser) peekTokenN(n int) (Token, error) {
	for i := len(p.tokens); i <= p.pos+n; i++ {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		p.tokens = append(p.tokens, tok)
	}
	return p.tokens[p.pos+n], nil
}

// ParseObject parses a single PDF object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenNull:
		return Null{}, nil

	case TokenBoolean:
		return Boolean(tok.Value.(bool)), nil

	case TokenInteger:
		// Reference lookahead: num gen R
		next1, err := p.peekToken()
		if err == nil && next1.Type == TokenInteger {
			next2, err := p.peekTokenN(1)
			if err == nil && next2.Type == TokenRef {
				p.nextToken()
				p.nextToken()
				return Reference{
					Number:     int(tok.Value.(int64)),
					Generation: int(next1.Value.(int64)),
				}, nil
			}
		}
		return Integer(tok.Value.(int64)), nil

	case TokenReal:
		return Real(tok.Value.(float64)), nil

	case TokenString:
		return String{Value: tok.Value.([]byte)}, nil

	case TokenHexString:
		return String{Value: tok.Value.([]byte), IsHex: true}, nil

	case TokenName:
		return Name(tok.Value.(string)), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDictionary()

	default:
		return nil, fmt.Errorf("unexpected token type %d at position %d", tok.Type, tok.Pos)
	}
}

// parseArray parses a PDF array [...]
func (p *Parser) parseArray() (Array, error) {
	var arr Array

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == TokenArrayEnd {
			p.nextToken()
			return arr, nil
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		arr = append(arr, obj)
	}
}

// parseDictionary parses a PDF dictionary <<...>>
func (p *Parser) parseDictionary() (Dictionary, error) {
	dict := make(Dictionary)

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		if tok.Type == TokenDictEnd {
			p.nextToken()
			return dict, nil
		}

		keyTok, err := p.nextToken()
		if err != nil {
			return nil, err
		}
		if keyTok.Type != TokenName {
			return nil, fmt.Errorf("expected name as dictionary key at position %d", keyTok.Pos)
		}
		key := Name(keyTok.Value.(string))

		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition (num gen obj ... endobj)
func (p *Parser) ParseIndirectObject() (int, int, Object, error) {
	numTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if numTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected object number at position %d", numTok.Pos)
	}
	objNum := int(numTok.Value.(int64))

	genTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if genTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected generation number at position %d", genTok.Pos)
	}
	genNum := int(genTok.Value.(int64))

	objTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if objTok.Type != TokenObjStart {
		return 0, 0, nil, fmt.Errorf("expected 'obj' keyword at position %d", objTok.Pos)
	}

	obj, err := p.ParseObject()
	if err != nil {
		return 0, 0, nil, err
	}

	nextTok, err := p.peekToken()
	if err == nil && nextTok.Type == TokenStreamStart {
		p.nextToken()

		dict, ok := obj.(Dictionary)
		if !ok {
			return 0, 0, nil, fmt.Errorf("stream must have a dictionary at position %d", nextTok.Pos)
		}

		strm, err := p.readStream(dict)
		if err != nil {
			return 0, 0, nil, err
		}
		obj = strm

		endTok, err := p.nextToken()
		if err != nil {
			return 0, 0, nil, err
		}
		if endTok.Type != TokenStreamEnd {
			return 0, 0, nil, fmt.Errorf("expected 'endstream' at position %d", endTok.Pos)
		}
	}

	endTok, err := p.nextToken()
	if err != nil {
		// A missing endobj on the last object is tolerated.
		if err == io.EOF {
			return objNum, genNum, obj, nil
		}
		return 0, 0, nil, err
	}
	if endTok.Type != TokenObjEnd && endTok.Type != TokenEOF {
		return 0, 0, nil, fmt.Errorf("expected 'endobj' keyword at position %d", endTok.Pos)
	}

	return objNum, genNum, obj, nil
}

// readStream records the stream payload after a 'stream' keyword. When the
// parser sits on a seekable byte source the payload is a locator; otherwise
// the bytes are read into memory.
func (p *Parser) readStream(dict Dictionary) (Stream, error) {
	// The 'stream' keyword is followed by CRLF or LF.
	if b, err := p.lexer.peekByte(); err == nil && b == '\r' {
		p.lexer.readByte()
	}
	if b, err := p.lexer.peekByte(); err == nil && b == '\n' {
		p.lexer.readByte()
	}

	length, ok := p.streamLength(dict)
	if !ok {
		return p.readStreamUntilEnd(dict)
	}

	if p.src != nil {
		payload := &streamPayload{src: p.src, offset: p.lexer.Position(), length: length}
		if err := p.lexer.SkipBytes(length); err != nil && err != io.EOF {
			return Stream{}, err
		}
		return Stream{Dictionary: dict, payload: payload}, nil
	}

	data, err := p.lexer.ReadBytes(int(length))
	if err != nil && err != io.EOF {
		return Stream{}, err
	}
	return Stream{Dictionary: dict, data: data}, nil
}

// streamLength resolves the declared Length, following one indirect
// reference if possible.
func (p *Parser) streamLength(dict Dictionary) (int64, bool) {
	switch l := dict.Get("Length").(type) {
	case Integer:
		if l >= 0 {
			return int64(l), true
		}
	case Reference:
		if p.resolve != nil {
			if obj, err := p.resolve(l); err == nil {
				if n, ok := obj.(Integer); ok && n >= 0 {
					return int64(n), true
				}
			}
		}
	}
	return 0, false
}

// readStreamUntilEnd scans for the 'endstream' keyword when no usable Length
// is declared. The payload is necessarily materialized.
func (p *Parser) readStreamUntilEnd(dict Dictionary) (Stream, error) {
	var buf bytes.Buffer
	marker := []byte("endstream")
	found := false

	for {
		b, err := p.lexer.readByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Stream{}, err
		}
		buf.WriteByte(b)
		if b == 'm' && bytes.HasSuffix(buf.Bytes(), marker) {
			found = true
			break
		}
	}

	data := buf.Bytes()
	if found {
		data = data[:len(data)-len(marker)]
	}
	// Strip the EOL that separates data from the keyword.
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}

	// The marker bytes were already consumed; synthesize the token so the
	// caller's endstream check still passes.
	p.tokens = append(p.tokens[:p.pos], Token{Type: TokenStreamEnd, Pos: p.lexer.Position()})

	return Stream{Dictionary: dict, data: data}, nil
}
