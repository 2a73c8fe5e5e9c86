package pdf

import (
	"bytes"
	"io"
)

// lzwFilter implements LZWDecode with the variable-width code scheme PDF
// producers use: MSB-first codes growing from 9 to 12 bits, with the width
// switch optionally happening one code early (EarlyChange, on by default).
type lzwFilter struct{}

const (
	lzwClearTable = 256
	lzwEOD        = 257
	lzwMaxTable   = 4096
)

// lzwChunk returns the code width for the given table size. The width grows
// at 512, 1024 and 2048 entries, each threshold lowered by earlyChange.
func lzwChunk(tableSize, earlyChange int) int {
	switch {
	case tableSize >= lzwMaxTable/2-earlyChange:
		return 12
	case tableSize >= lzwMaxTable/4-earlyChange:
		return 11
	case tableSize >= lzwMaxTable/8-earlyChange:
		return 10
	}
	return 9
}

// lzwCodeTable returns the initial table: 256 single-byte entries plus two
// placeholders for the clear and EOD codes.
func lzwCodeTable() [][]byte {
	table := make([][]byte, 258, lzwMaxTable)
	for i := 0; i < 256; i++ {
		table[i] = []byte{byte(i)}
	}
	return table
}

func (lzwFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	earlyChange := params.intDefault("EarlyChange", 1)
	if earlyChange != 0 {
		earlyChange = 1
	}

	br := newBitReader(r)
	table := lzwCodeTable()
	chunk := 9
	prev := -1
	var out bytes.Buffer

	for {
		code, err := br.ReadBits(chunk)
		if err != nil {
			// Truncated data: keep what was decoded.
			break
		}
		if code == lzwEOD {
			break
		}

		if code == lzwClearTable {
			chunk = 9
			table = lzwCodeTable()
			prev = -1
			continue
		}

		if code < len(table) && table[code] != nil {
			data := table[code]
			out.Write(data)
			if prev != -1 {
				entry := append(append([]byte(nil), table[prev]...), data[0])
				table = append(table, entry)
			}
		} else {
			if prev < 0 || prev >= len(table) || table[prev] == nil {
				return nil, &CodecError{Filter: "LZWDecode", Kind: Corrupt,
					Err: io.ErrUnexpectedEOF}
			}
			// The K[K-1]K case: the code being defined right now.
			prevData := table[prev]
			entry := append(append([]byte(nil), prevData...), prevData[0])
			out.Write(entry)
			table = append(table, entry)
		}
		chunk = lzwChunk(len(table), earlyChange)
		prev = code
	}

	decoded, err := applyPredictor(out.Bytes(), params)
	if err != nil {
		return nil, &CodecError{Filter: "LZWDecode", Kind: Corrupt, Err: err}
	}
	_, err = w.Write(decoded)
	return nil, err
}

func (lzwFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	bw := newBitWriter(w)
	table := lzwCodeTable()
	chunk := 9

	if err := bw.WriteBits(lzwClearTable, chunk); err != nil {
		return err
	}

	var pattern []byte
	foundCode := -1

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	for _, b := range data {
		if pattern == nil {
			pattern = []byte{b}
			foundCode = int(b)
			continue
		}

		pattern = append(pattern, b)
		if code := lzwFindPattern(table, pattern); code != -1 {
			foundCode = code
			continue
		}

		// The width for an emitted code excludes the entry about to be
		// added, so it lags the post-insertion width by one entry.
		chunk = lzwChunk(len(table)-1, 1)
		if err := bw.WriteBits(foundCode, chunk); err != nil {
			return err
		}
		table = append(table, pattern)
		if len(table) == lzwMaxTable {
			if err := bw.WriteBits(lzwClearTable, chunk); err != nil {
				return err
			}
			table = lzwCodeTable()
		}
		pattern = []byte{b}
		foundCode = int(b)
	}

	if foundCode != -1 {
		chunk = lzwChunk(len(table)-1, 1)
		if err := bw.WriteBits(foundCode, chunk); err != nil {
			return err
		}
	}

	// The decoder grows its table after consuming the last data code, so the
	// EOD width comes from the full table size.
	chunk = lzwChunk(len(table), 1)
	if err := bw.WriteBits(lzwEOD, chunk); err != nil {
		return err
	}
	return bw.Flush()
}

// lzwFindPattern looks up a multi-byte pattern among the dynamic entries.
func lzwFindPattern(table [][]byte, pattern []byte) int {
	if len(pattern) == 1 {
		return int(pattern[0])
	}
	for i := 258; i < len(table); i++ {
		if bytes.Equal(table[i], pattern) {
			return i
		}
	}
	return -1
}

// bitReader reads MSB-first bit groups from a byte stream.
type bitReader struct {
	r    io.Reader
	buf  [1]byte
	bits uint
	n    int
}

func newBitReader(r io.Reader) *bitReader {
	return &bitReader{r: r}
}

func (br *bitReader) ReadBits(count int) (int, error) {
	for br.n < count {
		if _, err := io.ReadFull(br.r, br.buf[:]); err != nil {
			return 0, err
		}
		br.bits = br.bits<<8 | uint(br.buf[0])
		br.n += 8
	}
	br.n -= count
	value := int(br.bits >> uint(br.n))
	br.bits &= (1 << uint(br.n)) - 1
	return value, nil
}

// bitWriter writes MSB-first bit groups to a byte stream, zero-padding the
// final byte on Flush.
type bitWriter struct {
	w    io.Writer
	bits uint
	n    int
}

func newBitWriter(w io.Writer) *bitWriter {
	return &bitWriter{w: w}
}

func (bw *bitWriter) WriteBits(value, count int) error {
	bw.bits = bw.bits<<uint(count) | uint(value)&((1<<uint(count))-1)
	bw.n += count
	for bw.n >= 8 {
		bw.n -= 8
		b := byte(bw.bits >> uint(bw.n))
		bw.bits &= (1 << uint(bw.n)) - 1
		if _, err := bw.w.Write([]byte{b}); err != nil {
			return err
		}
	}
	return nil
}

func (bw *bitWriter) Flush() error {
	if bw.n == 0 {
		return nil
	}
	b := byte(bw.bits << uint(8-bw.n))
	bw.bits = 0
	bw.n = 0
	_, err := bw.w.Write([]byte{b})
	return err
}
