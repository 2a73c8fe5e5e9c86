package pdf

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// ccittFilter implements CCITTFaxDecode. K < 0 selects Group 4, otherwise
// Group 3. Decoding is lenient: bytes produced before a mid-stream error are
// kept.
type ccittFilter struct{}

func (ccittFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	k := params.intDefault("K", 0)
	columns := params.intDefault("Columns", 1728)
	rows := params.intDefault("Rows", 0)
	blackIs1 := false
	if v, ok := params.GetBool("BlackIs1"); ok {
		blackIs1 = v
	}
	align := false
	if v, ok := params.GetBool("EncodedByteAlign"); ok {
		align = v
	}

	subFormat := ccitt.Group3
	if k < 0 {
		subFormat = ccitt.Group4
	}

	cr := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, subFormat, columns, rows, &ccitt.Options{
		Invert: !blackIs1,
		Align:  align,
	})

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, cr); err != nil {
		if buf.Len() == 0 {
			return nil, &CodecError{Filter: "CCITTFaxDecode", Kind: Corrupt, Err: err}
		}
		debugf("CCITTFaxDecode: truncated after %d bytes: %v", buf.Len(), err)
	}

	_, err = w.Write(buf.Bytes())
	return nil, err
}

func (ccittFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	return &CodecError{Filter: "CCITTFaxDecode", Kind: EncodeUnsupported}
}
