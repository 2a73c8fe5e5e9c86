package pdf

import (
	"bytes"
	"image/jpeg"
	"io"
)

// dctFilter implements DCTDecode as a pass-through: the JPEG bytes are the
// terminal payload and are handed to consumers undecoded. The image header
// is inspected so callers get the pixel dimensions without a full decode.
type dctFilter struct{}

func (dctFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	result := make(DecodeResult)
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		result[Name("Width")] = Integer(cfg.Width)
		result[Name("Height")] = Integer(cfg.Height)
	} else {
		debugf("DCTDecode: unreadable JPEG header: %v", err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	return result, nil
}

func (dctFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	return &CodecError{Filter: "DCTDecode", Kind: EncodeUnsupported}
}
