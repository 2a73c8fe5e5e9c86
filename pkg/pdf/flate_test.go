package pdf

import (
	"bytes"
	"errors"
	"testing"
)

// TestFlateRoundTrip tests encode then decode.
func TestFlateRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("Hello, world!"),
		bytes.Repeat([]byte("stream data "), 1000),
		{},
	}

	for _, input := range inputs {
		encoded, err := Encode("FlateDecode", input, nil)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		decoded, err := Decode("FlateDecode", encoded, nil)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !bytes.Equal(decoded, input) {
			t.Errorf("round trip mismatch for %d bytes", len(input))
		}
	}
}

// TestFlateDecodeWithPredictor tests that decode parameters drive the
// predictor stage after inflation.
func TestFlateDecodeWithPredictor(t *testing.T) {
	// Up-filtered rows as the plaintext.
	plain := []byte{
		2, 10, 20, 30,
		2, 1, 1, 1,
	}
	encoded, err := Encode("FlateDecode", plain, nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	params := Dictionary{
		Name("Predictor"): Integer(12),
		Name("Columns"):   Integer(3),
	}
	decoded, err := Decode("FlateDecode", encoded, params)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	want := []byte{10, 20, 30, 11, 21, 31}
	if !bytes.Equal(decoded, want) {
		t.Errorf("got % d, want % d", decoded, want)
	}
}

// TestFlateDecodeCorrupt tests that unrecoverable garbage reports Corrupt.
func TestFlateDecodeCorrupt(t *testing.T) {
	_, err := Decode("FlateDecode", []byte{0xDE, 0xAD, 0xBE, 0xEF}, nil)

	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected CodecError, got %v", err)
	}
	if codecErr.Kind != Corrupt {
		t.Errorf("expected Corrupt, got %v", codecErr.Kind)
	}
}

// TestFlateDecodeTruncated tests that truncated data keeps the decodable
// prefix.
func TestFlateDecodeTruncated(t *testing.T) {
	input := bytes.Repeat([]byte("partial output please "), 200)
	encoded, err := Encode("FlateDecode", input, nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := Decode("FlateDecode", encoded[:len(encoded)-4], nil)
	if err != nil {
		t.Fatalf("truncated decode failed: %v", err)
	}
	if len(decoded) == 0 {
		t.Error("expected partial output from truncated data")
	}
	if !bytes.HasPrefix(input, decoded) {
		t.Error("partial output is not a prefix of the input")
	}
}
