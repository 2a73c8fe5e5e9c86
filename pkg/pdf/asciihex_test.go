package pdf

import (
	"bytes"
	"testing"
)

// TestASCIIHexDecode tests hex decoding including whitespace, the '>'
// terminator, odd-length input, and invalid characters.
func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []byte
	}{
		{"simple", "48656C6C6F>", []byte("Hello")},
		{"lowercase", "48656c6c6f>", []byte("Hello")},
		{"whitespace", "48 65\n6C\t6C 6F>", []byte("Hello")},
		{"odd length pads zero", "484>", []byte{0x48, 0x40}},
		{"no terminator", "4865", []byte{0x48, 0x65}},
		{"data after terminator ignored", "48>65", []byte{0x48}},
		{"invalid char as zero", "4Z65>", []byte{0x40, 0x65}},
		{"empty", ">", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode("ASCIIHexDecode", []byte(tt.encoded), nil)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !bytes.Equal(decoded, tt.want) {
				t.Errorf("got % X, want % X", decoded, tt.want)
			}
		})
	}
}

// TestASCIIHexRoundTrip tests encode then decode.
func TestASCIIHexRoundTrip(t *testing.T) {
	input := []byte{0x00, 0x01, 0xAB, 0xFF, 'h', 'i'}

	encoded, err := Encode("ASCIIHexDecode", input, nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if encoded[len(encoded)-1] != '>' {
		t.Error("encoded data missing '>' terminator")
	}

	decoded, err := Decode("ASCIIHexDecode", encoded, nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded, input) {
		t.Errorf("round trip mismatch: got % X", decoded)
	}
}
