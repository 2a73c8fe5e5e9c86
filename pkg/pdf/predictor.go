package pdf

import "fmt"

// applyPredictor reverses the predictor transform declared in a filter's
// decode parameters. Predictor 1 (or absent) is a no-op, 2 is TIFF horizontal
// differencing, and 10..15 are the PNG filters, selected per row by a tag
// byte regardless of the declared value.
func applyPredictor(data []byte, params Dictionary) ([]byte, error) {
	predictor := params.intDefault("Predictor", 1)
	if predictor <= 1 {
		return data, nil
	}

	colors := params.intDefault("Colors", 1)
	bpc := params.intDefault("BitsPerComponent", 8)
	columns := params.intDefault("Columns", 1)
	if colors < 1 || bpc < 1 || columns < 1 {
		return nil, fmt.Errorf("invalid predictor parameters Colors=%d BitsPerComponent=%d Columns=%d",
			colors, bpc, columns)
	}

	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8

	if predictor == 2 {
		return applyTIFFPredictor(data, colors, bpc, rowLen), nil
	}
	return applyPNGPredictor(data, bpp, rowLen)
}

// applyTIFFPredictor reverses TIFF horizontal differencing in place. Only the
// 8-bit-per-component case is transformed; other depths pass through, which
// matches the components this package feeds.
func applyTIFFPredictor(data []byte, colors, bpc, rowLen int) []byte {
	if bpc != 8 {
		return data
	}
	for row := 0; row+rowLen <= len(data); row += rowLen {
		for i := colors; i < rowLen; i++ {
			data[row+i] += data[row+i-colors]
		}
	}
	return data
}

// applyPNGPredictor reverses the per-row PNG filters. Each encoded row is
// rowLen bytes preceded by a filter tag.
func applyPNGPredictor(data []byte, bpp, rowLen int) ([]byte, error) {
	out := make([]byte, 0, len(data))
	prev := make([]byte, rowLen)

	for pos := 0; pos < len(data); pos += rowLen + 1 {
		tag := data[pos]
		row := make([]byte, rowLen)
		n := copy(row, data[pos+1:])
		if n < rowLen {
			// Truncated final row: decode what is there.
			row = row[:n]
		}

		switch tag {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < len(row); i++ {
				row[i] += row[i-bpp]
			}
		case 2: // Up
			for i := range row {
				row[i] += prev[i]
			}
		case 3: // Average
			for i := range row {
				var left byte
				if i >= bpp {
					left = row[i-bpp]
				}
				row[i] += byte((int(left) + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := range row {
				var left, upLeft byte
				if i >= bpp {
					left = row[i-bpp]
					upLeft = prev[i-bpp]
				}
				row[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("invalid PNG predictor tag %d", tag)
		}

		out = append(out, row...)
		prev = prev[:rowLen]
		copy(prev, row)
		for i := len(row); i < rowLen; i++ {
			prev[i] = 0
		}
	}

	return out, nil
}

// paeth is the PNG Paeth predictor function.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
