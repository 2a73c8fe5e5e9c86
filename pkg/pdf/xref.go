package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseXRefSection parses one xref section (classic table or cross-reference
// stream) at the given offset. New entries are merged into the document's
// index without overwriting existing ones, so that sections visited earlier
// in the chain walk (newer incremental updates) win. It returns the section's
// trailer dictionary and the Prev offset, or -1 when the chain ends here.
func (d *Document) parseXRefSection(offset int64) (Dictionary, int64, error) {
	// Skip leading whitespace at the recorded offset.
	pos := offset
	for {
		b := d.readRange(pos, 1)
		if len(b) == 0 || !isWhitespace(b[0]) {
			break
		}
		pos++
	}

	head := d.readRange(pos, 4)
	if string(head) == "xref" {
		return d.parseXRefTable(pos)
	}
	return d.parseXRefStream(pos)
}

// parseXRefTable parses a classic xref table and its trailer.
func (d *Document) parseXRefTable(offset int64) (Dictionary, int64, error) {
	section := io.NewSectionReader(d.src, offset, d.size-offset)
	lexer := newLexerAt(section, offset)

	// Skip the "xref" keyword line.
	if _, err := lexer.ReadLine(); err != nil {
		return nil, -1, err
	}

	for {
		line, err := lexer.ReadLine()
		if err != nil {
			return nil, -1, err
		}

		lineStr := string(bytes.TrimSpace(line))
		if lineStr == "" {
			continue
		}
		if lineStr == "trailer" {
			break
		}

		// Subsection header: start count
		parts := bytes.Fields(line)
		if len(parts) != 2 {
			return nil, -1, fmt.Errorf("malformed xref subsection header %q", lineStr)
		}
		start, err := strconv.Atoi(string(parts[0]))
		if err != nil {
			return nil, -1, err
		}
		count, err := strconv.Atoi(string(parts[1]))
		if err != nil {
			return nil, -1, err
		}

		// Entries are nominally 20 bytes, but 19-byte lines from sloppy
		// producers are common, so parse by fields rather than position.
		for parsed := 0; parsed < count; {
			entryLine, err := lexer.ReadLine()
			if err != nil {
				return nil, -1, err
			}
			fields := strings.Fields(string(entryLine))
			if len(fields) == 0 {
				continue
			}
			if len(fields) < 3 {
				return nil, -1, fmt.Errorf("truncated xref entry for object %d", start+parsed)
			}

			entryOffset, _ := strconv.ParseInt(fields[0], 10, 64)
			gen, _ := strconv.Atoi(fields[1])
			inUse := fields[2] == "n"

			d.mergeEntry(start+parsed, xrefEntry{
				Offset:     entryOffset,
				Generation: gen,
				InUse:      inUse,
			})
			parsed++
		}
	}

	parser := NewParser(lexer)
	trailerObj, err := parser.ParseObject()
	if err != nil {
		return nil, -1, err
	}
	trailer, ok := trailerObj.(Dictionary)
	if !ok {
		return nil, -1, fmt.Errorf("trailer is %T, not a dictionary", trailerObj)
	}

	// Hybrid files carry a parallel xref stream for compressed objects.
	if xrefStm, ok := trailer.GetInt("XRefStm"); ok {
		if _, _, err := d.parseXRefStream(xrefStm); err != nil {
			debugf("hybrid xref stream at %d unreadable: %v", xrefStm, err)
		}
	}

	return trailer, prevOffset(trailer), nil
}

// parseXRefStream parses a cross-reference stream section. The stream's own
// dictionary doubles as the trailer.
func (d *Document) parseXRefStream(offset int64) (Dictionary, int64, error) {
	parser := newParserAt(d.src, offset, d.size, d.ResolveObject)
	_, _, obj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, -1, err
	}
	strm, ok := obj.(Stream)
	if !ok {
		return nil, -1, fmt.Errorf("expected xref stream at offset %d, got %T", offset, obj)
	}

	data, err := strm.Decode()
	if err != nil {
		return nil, -1, fmt.Errorf("decode xref stream: %w", err)
	}

	wArray, ok := strm.Dictionary.GetArray("W")
	if !ok || len(wArray) != 3 {
		return nil, -1, fmt.Errorf("xref stream has invalid W array")
	}
	w := make([]int, 3)
	for i, item := range wArray {
		if n, ok := item.(Integer); ok {
			w[i] = int(n)
		}
	}

	var indices []int
	if indexArray, ok := strm.Dictionary.GetArray("Index"); ok {
		for _, item := range indexArray {
			if n, ok := item.(Integer); ok {
				indices = append(indices, int(n))
			}
		}
	} else if size, ok := strm.Dictionary.GetInt("Size"); ok {
		indices = []int{0, int(size)}
	}
	if len(indices)%2 != 0 {
		return nil, -1, fmt.Errorf("xref stream has odd Index array")
	}

	entrySize := w[0] + w[1] + w[2]
	if entrySize <= 0 {
		return nil, -1, fmt.Errorf("xref stream has zero-width entries")
	}

	pos := 0
	for i := 0; i < len(indices); i += 2 {
		start, count := indices[i], indices[i+1]
		for j := 0; j < count; j++ {
			if pos+entrySize > len(data) {
				break
			}
			entry := data[pos : pos+entrySize]
			pos += entrySize

			field1 := readXRefField(entry, 0, w[0])
			field2 := readXRefField(entry, w[0], w[1])
			field3 := readXRefField(entry, w[0]+w[1], w[2])

			// A zero-width first field defaults to type 1.
			entryType := field1
			if w[0] == 0 {
				entryType = 1
			}

			switch entryType {
			case 0:
				d.mergeEntry(start+j, xrefEntry{InUse: false})
			case 1:
				d.mergeEntry(start+j, xrefEntry{
					Offset:     int64(field2),
					Generation: field3,
					InUse:      true,
				})
			case 2:
				d.mergeEntry(start+j, xrefEntry{
					StreamObjNum: field2,
					Index:        field3,
					InUse:        true,
				})
			}
		}
	}

	return strm.Dictionary, prevOffset(strm.Dictionary), nil
}

// mergeEntry records an entry unless a newer section already defined the
// object number.
func (d *Document) mergeEntry(num int, entry xrefEntry) {
	if _, exists := d.xref[num]; !exists {
		d.xref[num] = entry
	}
}

func prevOffset(trailer Dictionary) int64 {
	if prev, ok := trailer.GetInt("Prev"); ok {
		return int64(prev)
	}
	return -1
}

// readXRefField reads a big-endian field from an xref stream entry.
func readXRefField(data []byte, offset, width int) int {
	result := 0
	for i := 0; i < width; i++ {
		result = result<<8 | int(data[offset+i])
	}
	return result
}
