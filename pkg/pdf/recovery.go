package pdf

import (
	"bytes"
	"strconv"
	"strings"
)

// scanObjectHeaders rebuilds an object index from "N G obj" headers found by
// a linear scan. The last definition of each object number wins, mirroring
// incremental-update shadowing without a valid xref chain.
func scanObjectHeaders(data []byte) map[int]xrefEntry {
	entries := make(map[int]xrefEntry)
	objMarker := []byte(" obj")
	search := 0

	for {
		idx := bytes.Index(data[search:], objMarker)
		if idx < 0 {
			break
		}
		pos := search + idx
		search = pos + len(objMarker)

		// The keyword must end its token; " objxyz" is not a header.
		after := pos + len(objMarker)
		if after < len(data) && !isWhitespace(data[after]) && !isDelimiter(data[after]) {
			continue
		}

		lineStart := pos
		for lineStart > 0 && data[lineStart-1] != '\n' && data[lineStart-1] != '\r' {
			lineStart--
		}

		fields := strings.Fields(string(data[lineStart:pos]))
		if len(fields) < 2 {
			continue
		}
		num, err := strconv.Atoi(fields[len(fields)-2])
		if err != nil || num < 0 {
			continue
		}
		gen, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || gen < 0 {
			continue
		}

		// Later definitions shadow earlier ones.
		headerStart := lineStart
		if len(fields) > 2 {
			// Junk shares the line; locate the actual number token.
			numPos := strings.LastIndex(string(data[lineStart:pos]), fields[len(fields)-2])
			headerStart = lineStart + numPos
		}
		entries[num] = xrefEntry{
			Offset:     int64(headerStart),
			Generation: gen,
			InUse:      true,
		}
	}

	return entries
}

// recoverTrailer locates a trailer dictionary in a damaged document: first by
// scanning backward from the end for the trailer keyword, then by scanning
// forward for a catalog-shaped dictionary and synthesizing a trailer around
// it.
func recoverTrailer(data []byte, d *Document) Dictionary {
	if trailer := findTrailerDict(data); trailer != nil {
		return trailer
	}
	if rootRef, ok := findCatalogObject(data); ok {
		debugf("no trailer found, synthesizing one around object %d %d", rootRef.Number, rootRef.Generation)
		trailer := make(Dictionary)
		trailer[Name("Size")] = Integer(len(d.xref))
		trailer[Name("Root")] = rootRef
		return trailer
	}
	return nil
}

// findTrailerDict parses the dictionary after the last usable trailer
// keyword.
func findTrailerDict(data []byte) Dictionary {
	search := data
	for {
		idx := bytes.LastIndex(search, []byte("trailer"))
		if idx < 0 {
			return nil
		}

		after := idx + len("trailer")
		for after < len(search) && isWhitespace(search[after]) {
			after++
		}
		if after < len(search) && search[after] == '<' {
			obj, err := NewParserFromBytes(search[after:]).ParseObject()
			if err == nil {
				if dict, ok := obj.(Dictionary); ok && dict.Get("Root") != nil {
					return dict
				}
			}
		}

		search = search[:idx]
	}
}

// findCatalogObject locates the object whose dictionary is shaped like the
// document catalog and returns a reference to it.
func findCatalogObject(data []byte) (Reference, bool) {
	for _, pattern := range [][]byte{
		[]byte("/Type/Catalog"),
		[]byte("/Type /Catalog"),
	} {
		search := 0
		for {
			idx := bytes.Index(data[search:], pattern)
			if idx < 0 {
				break
			}
			pos := search + idx
			search = pos + len(pattern)

			if ref, ok := objectHeaderBefore(data, pos); ok {
				return ref, true
			}
		}
	}
	return Reference{}, false
}

// objectHeaderBefore walks backward from pos to the enclosing "N G obj"
// header.
func objectHeaderBefore(data []byte, pos int) (Reference, bool) {
	start := pos - 256
	if start < 0 {
		start = 0
	}
	area := data[start:pos]

	objIdx := bytes.LastIndex(area, []byte(" obj"))
	if objIdx < 0 {
		return Reference{}, false
	}

	lineStart := objIdx
	for lineStart > 0 && area[lineStart-1] != '\n' && area[lineStart-1] != '\r' {
		lineStart--
	}

	fields := strings.Fields(string(area[lineStart:objIdx]))
	if len(fields) < 2 {
		return Reference{}, false
	}
	num, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return Reference{}, false
	}
	gen, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return Reference{}, false
	}
	return Reference{Number: num, Generation: gen}, true
}
