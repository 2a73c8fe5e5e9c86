package pdf

import "io"

// runLengthFilter implements RunLengthDecode. A length byte 0..127 is
// followed by that many+1 literal bytes; 129..255 repeats the next byte
// 257-length times; 128 marks end of data. Truncated runs are tolerated.
type runLengthFilter struct{}

func (runLengthFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	pos := 0
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 128 {
			break
		}
		if n < 128 {
			count := n + 1
			if pos+count > len(data) {
				count = len(data) - pos
			}
			if _, err := w.Write(data[pos : pos+count]); err != nil {
				return nil, err
			}
			pos += count
		} else {
			if pos >= len(data) {
				break
			}
			run := make([]byte, 257-n)
			for i := range run {
				run[i] = data[pos]
			}
			pos++
			if _, err := w.Write(run); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil
}

func (runLengthFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	return &CodecError{Filter: "RunLengthDecode", Kind: EncodeUnsupported}
}
