package pdf

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"
)

// flateFilter implements FlateDecode. Decoding is lenient: a payload with a
// damaged zlib header is retried as a raw deflate stream, and mid-stream
// corruption keeps the bytes decoded so far instead of failing outright.
type flateFilter struct{}

func (flateFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	decoded, inflateErr := inflate(raw)
	if inflateErr != nil && len(decoded) == 0 {
		return nil, &CodecError{Filter: "FlateDecode", Kind: Corrupt, Err: inflateErr}
	}
	if inflateErr != nil {
		debugf("FlateDecode: truncated after %d bytes: %v", len(decoded), inflateErr)
	}

	decoded, err = applyPredictor(decoded, params)
	if err != nil {
		return nil, &CodecError{Filter: "FlateDecode", Kind: Corrupt, Err: err}
	}

	_, err = w.Write(decoded)
	return nil, err
}

// inflate decompresses zlib-wrapped data, falling back to a headerless
// deflate stream when the two-byte header is damaged. Partial output is
// returned alongside the error.
func inflate(raw []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err == nil {
		var buf bytes.Buffer
		_, err = io.Copy(&buf, zr)
		zr.Close()
		if err == nil || buf.Len() > 0 {
			return buf.Bytes(), err
		}
	}

	// Some producers emit raw deflate data, or garbage before the header.
	fr := flate.NewReader(bytes.NewReader(raw))
	var buf bytes.Buffer
	_, err = io.Copy(&buf, fr)
	fr.Close()
	if err != nil {
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}

func (flateFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	zw := zlib.NewWriter(w)
	if _, err := io.Copy(zw, r); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
