package pdf

import "io"

// asciiHexFilter implements ASCIIHexDecode. Whitespace between digits is
// skipped, '>' ends the data, and an odd trailing nibble is padded with zero.
// Invalid characters decode as a zero nibble rather than failing.
type asciiHexFilter struct{}

func (asciiHexFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	high := -1
	for _, b := range data {
		if isHexWhitespace(b) {
			continue
		}
		if b == '>' {
			break
		}

		nibble := hexNibble(b)
		if nibble < 0 {
			debugf("ASCIIHexDecode: invalid character %q treated as 0", b)
			nibble = 0
		}

		if high < 0 {
			high = nibble
			continue
		}
		if _, err := w.Write([]byte{byte(high<<4 | nibble)}); err != nil {
			return nil, err
		}
		high = -1
	}

	if high >= 0 {
		if _, err := w.Write([]byte{byte(high << 4)}); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func (asciiHexFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	const digits = "0123456789ABCDEF"
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out := make([]byte, 0, len(data)*2+1)
	for _, b := range data {
		out = append(out, digits[b>>4], digits[b&0x0F])
	}
	out = append(out, '>')
	_, err = w.Write(out)
	return err
}

func isHexWhitespace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func hexNibble(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	}
	return -1
}
