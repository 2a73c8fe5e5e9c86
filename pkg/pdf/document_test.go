package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"testing"
)

// docBuilder assembles PDF bytes with correct xref offsets for tests.
type docBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int64
}

func newDocBuilder() *docBuilder {
	b := &docBuilder{offsets: make(map[int]int64)}
	b.buf.WriteString("%PDF-1.7\n")
	return b
}

func (b *docBuilder) addObject(num int, body string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *docBuilder) addStreamObject(num int, dict, data string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		num, dict, len(data), data)
}

// addXRef writes a classic xref table covering the objects written so far
// and returns its offset.
func (b *docBuilder) addXRef(trailer string) int64 {
	start := int64(b.buf.Len())
	b.buf.WriteString("xref\n0 1\n0000000000 65535 f \n")

	var nums []int
	for num := range b.offsets {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	for _, num := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", num, b.offsets[num])
	}

	fmt.Fprintf(&b.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, start)
	return start
}

func (b *docBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func buildSimplePDF() *docBuilder {
	b := newDocBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	b.addStreamObject(4, "", "BT /F1 12 Tf ET")
	b.addObject(5, "<< /Title (Test Document) /Author (nobody) >>")
	return b
}

// TestOpenSimpleDocument tests the structured open path end to end.
func TestOpenSimpleDocument(t *testing.T) {
	b := buildSimplePDF()
	b.addXRef("<< /Size 6 /Root 1 0 R /Info 5 0 R >>")

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if doc.Version != "1.7" {
		t.Errorf("expected version 1.7, got %q", doc.Version)
	}
	if doc.Recovered {
		t.Error("well-formed document should not need recovery")
	}
	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}
	if typ, _ := doc.Root.GetName("Type"); typ != "Catalog" {
		t.Errorf("expected /Type /Catalog, got %v", typ)
	}
	if s, ok := doc.Info.Get("Title").(String); !ok || s.Text() != "Test Document" {
		t.Errorf("expected Info title, got %v", doc.Info.Get("Title"))
	}

	page, err := doc.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if len(page.MediaBox) != 4 {
		t.Errorf("expected 4-element MediaBox, got %v", page.MediaBox)
	}
	contents, err := page.Contents()
	if err != nil {
		t.Fatalf("Contents failed: %v", err)
	}
	if string(contents) != "BT /F1 12 Tf ET" {
		t.Errorf("unexpected contents %q", contents)
	}
}

// TestIncrementalUpdateNewestWins tests that the entry from the newest xref
// section shadows the original definition.
func TestIncrementalUpdateNewestWins(t *testing.T) {
	b := buildSimplePDF()
	firstXRef := b.addXRef("<< /Size 6 /Root 1 0 R >>")

	// Incremental update: redefine the content stream.
	b.addStreamObject(4, "", "BT /F2 24 Tf ET")
	start := int64(b.buf.Len())
	b.buf.WriteString("xref\n")
	fmt.Fprintf(&b.buf, "4 1\n%010d 00000 n \n", b.offsets[4])
	fmt.Fprintf(&b.buf, "trailer\n<< /Size 6 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		firstXRef, start)

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	page, err := doc.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	contents, err := page.Contents()
	if err != nil {
		t.Fatalf("Contents failed: %v", err)
	}
	if string(contents) != "BT /F2 24 Tf ET" {
		t.Errorf("expected updated contents, got %q", contents)
	}
}

// TestIndirectStreamLength tests a stream whose Length is an indirect
// reference, resolved through the document while the stream is parsed.
func TestIndirectStreamLength(t *testing.T) {
	b := newDocBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>")

	content := "BT /F1 12 Tf ET"
	b.offsets[4] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "4 0 obj\n<< /Length 6 0 R >>\nstream\n%s\nendstream\nendobj\n", content)
	b.addObject(6, fmt.Sprintf("%d", len(content)))
	b.addXRef("<< /Size 7 /Root 1 0 R >>")

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if doc.Recovered {
		t.Error("expected the structured open path")
	}

	page, err := doc.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	contents, err := page.Contents()
	if err != nil {
		t.Fatalf("Contents failed: %v", err)
	}
	if string(contents) != content {
		t.Errorf("expected %q, got %q", content, contents)
	}
}

// TestXRefChainLoop tests that a Prev pointer looping back to a visited
// section terminates the walk instead of spinning.
func TestXRefChainLoop(t *testing.T) {
	b := buildSimplePDF()

	start := int64(b.buf.Len())
	b.buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	var nums []int
	for num := range b.offsets {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	for _, num := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", num, b.offsets[num])
	}
	// Prev points back at this very section.
	fmt.Fprintf(&b.buf, "trailer\n<< /Size 6 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		start, start)

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("expected 1 page, got %d", doc.NumPages())
	}
}

// TestXRefStreamDocument tests cross-reference streams and object streams:
// the catalog and page tree root live compressed inside an object stream.
func TestXRefStreamDocument(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")

	offsets := make(map[int]int64)

	// Free-standing page object.
	offsets[3] = int64(buf.Len())
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 200] >>\nendobj\n")

	// Object stream holding the catalog (1) and page tree root (2).
	content1 := "<< /Type /Catalog /Pages 2 0 R >>"
	content2 := "<< /Type /Pages /Kids [3 0 R] /Count 1 >>"
	pairHeader := fmt.Sprintf("1 0 2 %d\n", len(content1)+1)
	body := pairHeader + content1 + "\n" + content2
	offsets[6] = int64(buf.Len())
	fmt.Fprintf(&buf, "6 0 obj\n<< /Type /ObjStm /N 2 /First %d /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(pairHeader), len(body), body)

	// Cross-reference stream, W = [1 2 1], Size = 8.
	xrefOffset := int64(buf.Len())
	offsets[7] = xrefOffset
	var entries bytes.Buffer
	writeEntry := func(typ byte, field2 int64, field3 byte) {
		entries.WriteByte(typ)
		entries.WriteByte(byte(field2 >> 8))
		entries.WriteByte(byte(field2))
		entries.WriteByte(field3)
	}
	writeEntry(0, 0, 0)          // 0: free
	writeEntry(2, 6, 0)          // 1: in object stream 6, index 0
	writeEntry(2, 6, 1)          // 2: in object stream 6, index 1
	writeEntry(1, offsets[3], 0) // 3
	writeEntry(0, 0, 0)          // 4: free
	writeEntry(0, 0, 0)          // 5: free
	writeEntry(1, offsets[6], 0) // 6
	writeEntry(1, offsets[7], 0) // 7: this stream
	fmt.Fprintf(&buf, "7 0 obj\n<< /Type /XRef /Size 8 /W [1 2 1] /Root 1 0 R /Length %d >>\nstream\n",
		entries.Len())
	buf.Write(entries.Bytes())
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	doc, err := NewDocument(buf.Bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}
	page, _ := doc.GetPage(1)
	if len(page.MediaBox) != 4 {
		t.Errorf("expected MediaBox from compressed page tree, got %v", page.MediaBox)
	}
}

// TestGetObjectCaching tests that resolving the same identity twice returns
// the cached object.
func TestGetObjectCaching(t *testing.T) {
	b := buildSimplePDF()
	b.addXRef("<< /Size 6 /Root 1 0 R >>")

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	first, err := doc.GetObject(2, 0)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	second, err := doc.GetObject(2, 0)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}

	d1, ok1 := first.(Dictionary)
	d2, ok2 := second.(Dictionary)
	if !ok1 || !ok2 {
		t.Fatalf("expected dictionaries, got %T and %T", first, second)
	}
	// Same underlying map, not a re-parse.
	d1[Name("Marker")] = Integer(1)
	if d2.Get("Marker") == nil {
		t.Error("expected cached object to be shared")
	}
}

// TestFreeObjectResolvesToNull tests that a free entry resolves to null.
func TestFreeObjectResolvesToNull(t *testing.T) {
	b := buildSimplePDF()
	b.addXRef("<< /Size 6 /Root 1 0 R >>")

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	obj, err := doc.GetObject(99, 0)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("expected Null for absent object, got %T", obj)
	}
}

// TestMissingCatalogType tests that a catalog without /Type is repaired.
func TestMissingCatalogType(t *testing.T) {
	b := newDocBuilder()
	b.addObject(1, "<< /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R >>")
	b.addXRef("<< /Size 4 /Root 1 0 R >>")

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if typ, _ := doc.Root.GetName("Type"); typ != "Catalog" {
		t.Errorf("expected injected /Type /Catalog, got %v", typ)
	}
}

// TestInheritedPageAttributes tests that Resources and MediaBox flow down
// from the page tree root.
func TestInheritedPageAttributes(t *testing.T) {
	b := newDocBuilder()
	b.addObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.addObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 300 400] /Resources << /Font << >> >> >>")
	b.addObject(3, "<< /Type /Page /Parent 2 0 R >>")
	b.addXRef("<< /Size 4 /Root 1 0 R >>")

	doc, err := NewDocument(b.bytes())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	page, err := doc.GetPage(1)
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if len(page.MediaBox) != 4 || page.MediaBox[2] != Integer(300) {
		t.Errorf("expected inherited MediaBox, got %v", page.MediaBox)
	}
	if page.Resources == nil {
		t.Error("expected inherited Resources")
	}
}
