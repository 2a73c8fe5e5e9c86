package pdf

import (
	"bytes"
	"testing"
)

// TestASCII85Decode tests base-85 decoding including the "z" shorthand and
// the optional "<~" prefix.
func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []byte
	}{
		{"simple", "87cUR~>", []byte("Hell")},
		{"leading prefix", "<~87cUR~>", []byte("Hell")},
		{"z shorthand", "z~>", []byte{0, 0, 0, 0}},
		{"z shorthand repeated", "zz~>", []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{"partial group", "87cURDZ~>", []byte("Hello")},
		{"empty", "~>", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode("ASCII85Decode", []byte(tt.encoded), nil)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.want) {
				t.Errorf("got % X, want % X", decoded, tt.want)
			}
		})
	}
}

// TestASCII85RoundTrip tests encode then decode, including an all-zero block
// that encodes to the "z" shorthand.
func TestASCII85RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"text", []byte("Man is distinguished, not only by his reason")},
		{"binary", []byte{0x00, 0x01, 0xAB, 0xFF, 0x80, 0x7F}},
		{"all zeros", make([]byte, 16)},
		{"zeros with tail", append(make([]byte, 8), 'x', 'y')},
		{"empty", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode("ASCII85Decode", tt.input, nil)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if !bytes.HasSuffix(encoded, []byte("~>")) {
				t.Error("encoded data missing \"~>\" terminator")
			}

			decoded, err := Decode("ASCII85Decode", encoded, nil)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.input) {
				t.Errorf("round trip mismatch: got % X, want % X", decoded, tt.input)
			}
		})
	}
}
