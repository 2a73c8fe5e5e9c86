package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

// objID is the identity of an indirect object. Two references carrying the
// same pair name the same logical object regardless of where they were
// parsed from.
type objID struct {
	num int
	gen int
}

// xrefEntry maps an object number to its location: either a byte offset of a
// free-standing object, or an object stream and an index within it.
type xrefEntry struct {
	Offset       int64
	Generation   int
	InUse        bool
	StreamObjNum int
	Index        int
}

// ReadOptions controls structure lookup and recovery behavior.
type ReadOptions struct {
	// LookupWindow is the size of the tail window searched for startxref.
	LookupWindow int
	// MaxScanSize bounds the full-document scan used by recovery.
	MaxScanSize int64
}

// DefaultReadOptions returns the options used by Open and NewDocument.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		LookupWindow: 2048,
		MaxScanSize:  256 << 20,
	}
}

// Document represents an open PDF document. The resolver runs once at open
// time; afterwards indirect objects are materialized lazily through the
// object-number index.
type Document struct {
	src  io.ReaderAt
	size int64
	opts *ReadOptions

	Version string
	Trailer Dictionary
	Root    Dictionary
	Info    Dictionary
	Pages   []*Page

	// Recovered reports that the cross-reference structure was rebuilt by a
	// full-document scan instead of being read from the xref chain.
	Recovered bool

	xref      map[int]xrefEntry
	objects   map[objID]Object
	resolving map[objID]bool
}

// Page represents one leaf of the page tree.
type Page struct {
	doc        *Document
	Dictionary Dictionary
	Number     int
	Resources  Dictionary
	MediaBox   Array
}

// Open opens a PDF file
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewDocument(data)
}

// NewDocument creates a document from PDF data held in memory.
func NewDocument(data []byte) (*Document, error) {
	return NewReader(bytes.NewReader(data), int64(len(data)), nil)
}

// NewReader creates a document from a random-access byte source of known
// size. A nil opts uses DefaultReadOptions.
func NewReader(src io.ReaderAt, size int64, opts *ReadOptions) (*Document, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}
	doc := &Document{
		src:       src,
		size:      size,
		opts:      opts,
		xref:      make(map[int]xrefEntry),
		objects:   make(map[objID]Object),
		resolving: make(map[objID]bool),
	}
	if err := doc.parse(); err != nil {
		return nil, err
	}
	return doc, nil
}

// parse locates the document structure. It is a two-stage pipeline: the
// structured path follows startxref and the trailer chain; when that fails,
// or leaves the root unresolvable, the recovery path rebuilds the index from
// a linear scan.
func (d *Document) parse() error {
	d.parseVersion()

	structuredErr := d.openStructured()
	if structuredErr == nil && d.validateRoot() == nil {
		return d.finishOpen()
	}
	if structuredErr != nil {
		debugf("structured open failed: %v", structuredErr)
	}

	if err := d.openRecovered(); err != nil {
		return err
	}
	if err := d.validateRoot(); err != nil {
		return err
	}
	return d.finishOpen()
}

// parseVersion records the header version. A missing header is not fatal by
// itself; NotAPdf is decided only after recovery also fails.
func (d *Document) parseVersion() {
	head := d.readRange(0, 1024)
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return
	}
	rest := head[idx+5:]
	end := 0
	for end < len(rest) && rest[end] != '\r' && rest[end] != '\n' {
		end++
	}
	d.Version = string(rest[:end])
}

// openStructured follows startxref and the Prev chain.
func (d *Document) openStructured() error {
	start, err := d.findStartXRef()
	if err != nil {
		return err
	}
	return d.walkXRefChain(start)
}

// findStartXRef searches the configured tail window for the final startxref
// keyword and its offset.
func (d *Document) findStartXRef() (int64, error) {
	window := int64(d.opts.LookupWindow)
	if window > d.size {
		window = d.size
	}

	tail := d.readRange(d.size-window, int(window))
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found in last %d bytes", window)
	}

	start := idx + len("startxref")
	for start < len(tail) && isWhitespace(tail[start]) {
		start++
	}
	end := start
	for end < len(tail) && tail[end] >= '0' && tail[end] <= '9' {
		end++
	}

	offset, err := strconv.ParseInt(string(tail[start:end]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset")
	}
	if offset < 0 || offset >= d.size {
		return 0, fmt.Errorf("startxref offset %d outside file", offset)
	}
	return offset, nil
}

// walkXRefChain parses xref sections following Prev pointers backward.
// Entries already defined by a newer section are never overwritten, and
// trailer keys from the newest section shadow older ones. Revisiting an
// offset terminates the walk; malformed producers create self-referential
// chains.
func (d *Document) walkXRefChain(offset int64) error {
	visited := make(map[int64]bool)
	first := true

	for {
		if visited[offset] {
			debugf("xref chain loops back to offset %d, stopping", offset)
			return nil
		}
		visited[offset] = true

		trailer, prev, err := d.parseXRefSection(offset)
		if err != nil {
			if first {
				return err
			}
			debugf("broken xref chain at offset %d: %v", offset, err)
			return nil
		}
		first = false

		if d.Trailer == nil {
			d.Trailer = make(Dictionary)
		}
		for k, v := range trailer {
			if _, exists := d.Trailer[k]; !exists {
				d.Trailer[k] = v
			}
		}

		if prev < 0 {
			return nil
		}
		offset = prev
	}
}

// openRecovered rebuilds the index from object headers found by a linear
// scan, then recovers a trailer.
func (d *Document) openRecovered() error {
	if d.size > d.opts.MaxScanSize {
		return structureErr(MissingRoot, "file too large for recovery (%d bytes)", d.size)
	}
	data := d.readRange(0, int(d.size))

	entries := scanObjectHeaders(data)
	if len(entries) == 0 {
		return structureErr(NotAPdf, "no header signature and no recoverable objects")
	}

	// Recovered entries shadow whatever the broken chain produced.
	for num, entry := range entries {
		d.xref[num] = entry
	}
	// Cached objects may have been parsed through the broken index.
	d.objects = make(map[objID]Object)
	d.Recovered = true

	trailer := recoverTrailer(data, d)
	if trailer != nil {
		if d.Trailer == nil {
			d.Trailer = trailer
		} else {
			for k, v := range trailer {
				if _, exists := d.Trailer[k]; !exists {
					d.Trailer[k] = v
				}
			}
		}
	}
	if d.Trailer == nil || d.Trailer.Get("Root") == nil {
		return structureErr(MissingRoot, "no trailer with a Root entry recovered")
	}
	return nil
}

// validateRoot resolves the catalog and injects its type tag when absent.
func (d *Document) validateRoot() error {
	if d.Trailer == nil {
		return structureErr(MissingRoot, "no trailer")
	}
	rootRef := d.Trailer.Get("Root")
	if rootRef == nil {
		return structureErr(MissingRoot, "trailer has no Root entry")
	}
	rootObj, err := d.ResolveObject(rootRef)
	if err != nil {
		return structureErr(MissingRoot, "resolve root: %v", err)
	}
	root, ok := rootObj.(Dictionary)
	if !ok {
		return structureErr(MissingRoot, "root is %T, not a dictionary", rootObj)
	}
	if _, ok := root.GetName("Type"); !ok {
		// Widespread in the wild; repair instead of rejecting.
		debugf("catalog missing /Type, injecting")
		root[Name("Type")] = Name("Catalog")
	}
	d.Root = root
	return nil
}

// finishOpen loads the info dictionary, walks the page tree, and touches
// every object reachable from the root so later lazy access cannot surprise
// callers with parse errors.
func (d *Document) finishOpen() error {
	if infoRef := d.Trailer.Get("Info"); infoRef != nil {
		if infoObj, err := d.ResolveObject(infoRef); err == nil {
			if info, ok := infoObj.(Dictionary); ok {
				d.Info = info
			}
		} else {
			debugf("info dictionary unreadable: %v", err)
		}
	}

	if err := d.parsePages(); err != nil {
		return err
	}

	d.touchReachable(d.Root, make(map[objID]bool))
	if d.Info != nil {
		d.touchReachable(d.Info, make(map[objID]bool))
	}
	return nil
}

// touchReachable forces resolution of every object reachable from obj.
// Structural errors on individual objects are logged and skipped; one
// malformed object does not abort the document.
func (d *Document) touchReachable(obj Object, seen map[objID]bool) {
	switch v := obj.(type) {
	case Reference:
		id := objID{v.Number, v.Generation}
		if seen[id] {
			return
		}
		seen[id] = true
		resolved, err := d.GetObject(v.Number, v.Generation)
		if err != nil {
			debugf("skipping unreadable object: %v", err)
			return
		}
		d.touchReachable(resolved, seen)
	case Array:
		for _, item := range v {
			d.touchReachable(item, seen)
		}
	case Dictionary:
		for _, item := range v {
			d.touchReachable(item, seen)
		}
	case Stream:
		d.touchReachable(v.Dictionary, seen)
	}
}

// ResolveObject resolves an object, following references.
func (d *Document) ResolveObject(obj Object) (Object, error) {
	// Bounded to keep reference-to-reference cycles from recursing.
	for i := 0; i < 32; i++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj, nil
		}
		resolved, err := d.GetObject(ref.Number, ref.Generation)
		if err != nil {
			return nil, err
		}
		obj = resolved
	}
	return Null{}, fmt.Errorf("reference chain too deep")
}

// GetObject materializes the object recorded for (num, gen). Results are
// cached, so a given identity parses at most once per document.
func (d *Document) GetObject(num, gen int) (Object, error) {
	id := objID{num, gen}
	if obj, ok := d.objects[id]; ok {
		return obj, nil
	}
	if d.resolving[id] {
		// A malformed document can make an object's location depend on
		// itself (e.g. an object stream containing its own xref entry).
		return Null{}, &ObjectError{Number: num, Generation: gen, Err: fmt.Errorf("self-referential object")}
	}

	entry, ok := d.xref[num]
	if !ok || !entry.InUse {
		return Null{}, nil
	}

	d.resolving[id] = true
	defer delete(d.resolving, id)

	var obj Object
	var err error
	if entry.StreamObjNum > 0 {
		obj, err = d.getCompressedObject(entry.StreamObjNum, entry.Index)
	} else {
		obj, err = d.getUncompressedObject(entry.Offset)
	}
	if err != nil {
		return nil, &ObjectError{Number: num, Generation: gen, Err: err}
	}

	d.objects[id] = obj
	return obj, nil
}

// getUncompressedObject parses a free-standing object at a byte offset.
func (d *Document) getUncompressedObject(offset int64) (Object, error) {
	if offset < 0 || offset >= d.size {
		return nil, fmt.Errorf("offset %d outside file", offset)
	}
	parser := newParserAt(d.src, offset, d.size, d.ResolveObject)
	_, _, obj, err := parser.ParseIndirectObject()
	return obj, err
}

// getCompressedObject extracts an object from an object stream.
func (d *Document) getCompressedObject(streamObjNum, index int) (Object, error) {
	streamObj, err := d.GetObject(streamObjNum, 0)
	if err != nil {
		return nil, err
	}
	strm, ok := streamObj.(Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %d is not a stream", streamObjNum)
	}

	data, err := strm.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode object stream %d: %w", streamObjNum, err)
	}

	first, ok := strm.Dictionary.GetInt("First")
	if !ok {
		return nil, fmt.Errorf("object stream %d missing First", streamObjNum)
	}
	n, ok := strm.Dictionary.GetInt("N")
	if !ok {
		return nil, fmt.Errorf("object stream %d missing N", streamObjNum)
	}
	if int64(first) > int64(len(data)) {
		return nil, fmt.Errorf("object stream %d First beyond data", streamObjNum)
	}

	headerParser := NewParserFromBytes(data[:first])
	offsets := make([]int64, 0, n)
	for i := int64(0); i < n; i++ {
		if _, err := headerParser.ParseObject(); err != nil {
			return nil, err
		}
		offsetObj, err := headerParser.ParseObject()
		if err != nil {
			return nil, err
		}
		off, ok := offsetObj.(Integer)
		if !ok {
			return nil, fmt.Errorf("object stream %d header: offset is %T", streamObjNum, offsetObj)
		}
		offsets = append(offsets, int64(off))
	}

	if index < 0 || index >= len(offsets) {
		return nil, fmt.Errorf("object index %d out of range", index)
	}
	pos := first + offsets[index]
	if pos < 0 || pos > int64(len(data)) {
		return nil, fmt.Errorf("object offset %d beyond stream data", pos)
	}
	return NewParserFromBytes(data[pos:]).ParseObject()
}

// parsePages walks the page tree. An unreadable page tree root is fatal;
// individual broken kids are skipped.
func (d *Document) parsePages() error {
	pagesRef := d.Root.Get("Pages")
	if pagesRef == nil {
		return structureErr(InvalidPageTree, "catalog has no Pages entry")
	}
	pagesObj, err := d.ResolveObject(pagesRef)
	if err != nil {
		return structureErr(InvalidPageTree, "resolve page tree root: %v", err)
	}
	pagesDict, ok := pagesObj.(Dictionary)
	if !ok {
		return structureErr(InvalidPageTree, "page tree root is %T, not a dictionary", pagesObj)
	}
	d.walkPageTree(pagesDict, nil, nil, make(map[objID]bool))
	return nil
}

func (d *Document) walkPageTree(node Dictionary, resources Dictionary, mediaBox Array, seen map[objID]bool) {
	if res, ok := d.resolveDict(node.Get("Resources")); ok {
		resources = res
	}
	if mb, err := d.ResolveObject(node.Get("MediaBox")); err == nil {
		if arr, ok := mb.(Array); ok && len(arr) == 4 {
			mediaBox = arr
		}
	}

	nodeType, _ := node.GetName("Type")
	if nodeType == "Page" || (nodeType == "" && node.Get("Kids") == nil) {
		d.Pages = append(d.Pages, &Page{
			doc:        d,
			Dictionary: node,
			Number:     len(d.Pages) + 1,
			Resources:  resources,
			MediaBox:   mediaBox,
		})
		return
	}

	kids, err := d.ResolveObject(node.Get("Kids"))
	if err != nil {
		debugf("unreadable Kids array: %v", err)
		return
	}
	kidsArr, ok := kids.(Array)
	if !ok {
		return
	}
	for _, kidRef := range kidsArr {
		if ref, ok := kidRef.(Reference); ok {
			id := objID{ref.Number, ref.Generation}
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		kidObj, err := d.ResolveObject(kidRef)
		if err != nil {
			debugf("skipping unreadable page tree kid: %v", err)
			continue
		}
		if kidDict, ok := kidObj.(Dictionary); ok {
			d.walkPageTree(kidDict, resources, mediaBox, seen)
		}
	}
}

func (d *Document) resolveDict(obj Object) (Dictionary, bool) {
	if obj == nil {
		return nil, false
	}
	resolved, err := d.ResolveObject(obj)
	if err != nil {
		return nil, false
	}
	dict, ok := resolved.(Dictionary)
	return dict, ok
}

// NumPages returns the number of pages
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// GetPage returns a page by number (1-indexed)
func (d *Document) GetPage(num int) (*Page, error) {
	if num < 1 || num > len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range", num)
	}
	return d.Pages[num-1], nil
}

// Contents returns the page's content streams, decoded and concatenated.
func (p *Page) Contents() ([]byte, error) {
	contentsObj, err := p.doc.ResolveObject(p.Dictionary.Get("Contents"))
	if err != nil {
		return nil, err
	}

	switch contents := contentsObj.(type) {
	case nil:
		return nil, nil
	case Stream:
		return contents.Decode()
	case Array:
		var buf bytes.Buffer
		for _, ref := range contents {
			obj, err := p.doc.ResolveObject(ref)
			if err != nil {
				debugf("skipping unreadable content stream: %v", err)
				continue
			}
			if strm, ok := obj.(Stream); ok {
				data, err := strm.Decode()
				if err != nil {
					debugf("skipping corrupt content stream: %v", err)
					continue
				}
				buf.Write(data)
				buf.WriteByte('\n')
			}
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// readRange reads a byte range from the source, clamped to the file bounds.
func (d *Document) readRange(offset int64, length int) []byte {
	if offset < 0 {
		offset = 0
	}
	if offset >= d.size {
		return nil
	}
	if int64(length) > d.size-offset {
		length = int(d.size - offset)
	}
	buf := make([]byte, length)
	n, _ := d.src.ReadAt(buf, offset)
	return buf[:n]
}
