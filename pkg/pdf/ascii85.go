package pdf

import (
	"bytes"
	"encoding/ascii85"
	"io"
)

// ascii85Filter implements ASCII85Decode on top of the standard base-85
// codec, handling the PDF "~>" terminator.
type ascii85Filter struct{}

func (ascii85Filter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// Strip leading "<~" (some producers emit it) and the "~>" terminator.
	if len(data) >= 2 && data[0] == '<' && data[1] == '~' {
		data = data[2:]
	}
	for i := 0; i+1 < len(data); i++ {
		if data[i] == '~' && data[i+1] == '>' {
			data = data[:i]
			break
		}
	}

	// A streaming decode: the "z" shorthand expands one input byte to four
	// output bytes, so no fixed output sizing is safe.
	dec := ascii85.NewDecoder(bytes.NewReader(data))
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, &CodecError{Filter: "ASCII85Decode", Kind: Corrupt, Err: err}
	}
	if _, err := w.Write(out); err != nil {
		return nil, err
	}
	return nil, nil
}

func (ascii85Filter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out := make([]byte, ascii85.MaxEncodedLen(len(data)))
	n := ascii85.Encode(out, data)
	if _, err := w.Write(out[:n]); err != nil {
		return err
	}
	_, err = w.Write([]byte("~>"))
	return err
}
