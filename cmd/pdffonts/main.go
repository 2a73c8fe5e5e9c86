package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/docset/pdfcore/pkg/pdf"
)

var (
	substitute bool
	debug      bool
	printHelp  bool
)

func init() {
	flag.BoolVar(&substitute, "subst", false, "show the system font each document font would substitute to")
	flag.BoolVar(&debug, "debug", false, "enable diagnostic logging")
	flag.BoolVar(&printHelp, "h", false, "print usage information")
	flag.BoolVar(&printHelp, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdffonts [options] <PDF-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  -subst     : show substitution fonts\n")
		fmt.Fprintf(os.Stderr, "  -debug     : enable diagnostic logging\n")
		fmt.Fprintf(os.Stderr, "  -h, -help  : print usage information\n")
	}
}

type fontEntry struct {
	baseFont string
	subtype  string
	embedded bool
}

func main() {
	flag.Parse()

	if printHelp {
		flag.Usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	pdf.DebugOn = debug

	doc, err := pdf.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: couldn't open file '%s': %v\n", args[0], err)
		os.Exit(1)
	}

	fonts := collectFonts(doc)
	if len(fonts) == 0 {
		fmt.Println("No fonts found.")
		return
	}

	var resolver *pdf.FontResolver
	if substitute {
		scanner := pdf.NewFontScanner()
		scanner.ScanSystemFonts()
		resolver = pdf.NewFontResolver(scanner)
	}

	var names []string
	for name := range fonts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-36s %-12s %-4s\n", "name", "type", "emb")
	fmt.Printf("%s %s %s\n", strings.Repeat("-", 36), strings.Repeat("-", 12), strings.Repeat("-", 4))
	for _, name := range names {
		entry := fonts[name]
		fmt.Printf("%-36s %-12s %-4s", entry.baseFont, entry.subtype, yesNo(entry.embedded))
		if resolver != nil {
			if found := resolver.Find(entry.baseFont); found != nil {
				fmt.Printf("  -> %s (%s)", found.Path, found.Format)
				found.Release()
			} else {
				fmt.Printf("  -> (no match)")
			}
		}
		fmt.Println()
	}
}

// collectFonts gathers the font dictionaries referenced by every page's
// resources, keyed by base font name.
func collectFonts(doc *pdf.Document) map[string]fontEntry {
	fonts := make(map[string]fontEntry)

	for i := 1; i <= doc.NumPages(); i++ {
		page, err := doc.GetPage(i)
		if err != nil || page.Resources == nil {
			continue
		}
		fontDictObj, err := doc.ResolveObject(page.Resources.Get("Font"))
		if err != nil {
			continue
		}
		fontDict, ok := fontDictObj.(pdf.Dictionary)
		if !ok {
			continue
		}

		for _, ref := range fontDict {
			obj, err := doc.ResolveObject(ref)
			if err != nil {
				continue
			}
			font, ok := obj.(pdf.Dictionary)
			if !ok {
				continue
			}

			baseFont := "(unnamed)"
			if n, ok := font.GetName("BaseFont"); ok {
				baseFont = string(n)
			}
			subtype := ""
			if n, ok := font.GetName("Subtype"); ok {
				subtype = string(n)
			}

			fonts[baseFont] = fontEntry{
				baseFont: baseFont,
				subtype:  subtype,
				embedded: isEmbedded(doc, font),
			}
		}
	}

	return fonts
}

func isEmbedded(doc *pdf.Document, font pdf.Dictionary) bool {
	desc, err := doc.ResolveObject(font.Get("FontDescriptor"))
	if err != nil {
		return false
	}
	descDict, ok := desc.(pdf.Dictionary)
	if !ok {
		return false
	}
	for _, key := range []string{"FontFile", "FontFile2", "FontFile3"} {
		if descDict.Get(key) != nil {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
