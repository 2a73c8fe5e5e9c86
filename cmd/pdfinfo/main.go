package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/docset/pdfcore/pkg/pdf"
)

var (
	showTrailer bool
	showFilters bool
	debug       bool
	printHelp   bool
)

func init() {
	flag.BoolVar(&showTrailer, "trailer", false, "print the trailer dictionary keys")
	flag.BoolVar(&showFilters, "filters", false, "print the filter chain of each page's content streams")
	flag.BoolVar(&debug, "debug", false, "enable diagnostic logging")
	flag.BoolVar(&printHelp, "h", false, "print usage information")
	flag.BoolVar(&printHelp, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfinfo [options] <PDF-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  -trailer   : print the trailer dictionary keys\n")
		fmt.Fprintf(os.Stderr, "  -filters   : print content stream filter chains\n")
		fmt.Fprintf(os.Stderr, "  -debug     : enable diagnostic logging\n")
		fmt.Fprintf(os.Stderr, "  -h, -help  : print usage information\n")
	}
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
	inputFile := args[0]

	pdf.DebugOn = debug

	doc, err := pdf.Open(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: couldn't open file '%s': %v\n", inputFile, err)
		os.Exit(1)
	}

	printInfoString(doc, "Title", "Title:")
	printInfoString(doc, "Subject", "Subject:")
	printInfoString(doc, "Keywords", "Keywords:")
	printInfoString(doc, "Author", "Author:")
	printInfoString(doc, "Creator", "Creator:")
	printInfoString(doc, "Producer", "Producer:")

	fmt.Printf("Pages:          %d\n", doc.NumPages())
	fmt.Printf("PDF version:    %s\n", doc.Version)
	fmt.Printf("Recovered:      %s\n", yesNo(doc.Recovered))

	if fileInfo, err := os.Stat(inputFile); err == nil {
		fmt.Printf("File size:      %d bytes\n", fileInfo.Size())
	}

	if doc.NumPages() > 0 {
		page, err := doc.GetPage(1)
		if err == nil && len(page.MediaBox) == 4 {
			llx, _ := boxValue(page.MediaBox[0])
			lly, _ := boxValue(page.MediaBox[1])
			urx, _ := boxValue(page.MediaBox[2])
			ury, _ := boxValue(page.MediaBox[3])
			fmt.Printf("Page size:      %.2f x %.2f pts\n", urx-llx, ury-lly)
		}
	}

	if showTrailer {
		fmt.Println("Trailer:")
		var keys []string
		for k := range doc.Trailer {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  /%s %s\n", k, doc.Trailer.Get(k))
		}
	}

	if showFilters {
		printFilterChains(doc)
	}
}

func printInfoString(doc *pdf.Document, key, label string) {
	if doc.Info == nil {
		return
	}
	if s, ok := doc.Info.Get(key).(pdf.String); ok {
		fmt.Printf("%-15s %s\n", label, s.Text())
	}
}

func printFilterChains(doc *pdf.Document) {
	for i := 1; i <= doc.NumPages(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			continue
		}
		contents, err := doc.ResolveObject(page.Dictionary.Get("Contents"))
		if err != nil || contents == nil {
			continue
		}

		var streams []pdf.Stream
		switch c := contents.(type) {
		case pdf.Stream:
			streams = append(streams, c)
		case pdf.Array:
			for _, ref := range c {
				if obj, err := doc.ResolveObject(ref); err == nil {
					if strm, ok := obj.(pdf.Stream); ok {
						streams = append(streams, strm)
					}
				}
			}
		}

		for j, strm := range streams {
			filter := strm.Dictionary.Get("Filter")
			if filter == nil {
				fmt.Printf("Page %d stream %d: (none)\n", i, j+1)
			} else {
				fmt.Printf("Page %d stream %d: %s\n", i, j+1, filter)
			}
		}
	}
}

func boxValue(obj pdf.Object) (float64, bool) {
	switch v := obj.(type) {
	case pdf.Integer:
		return float64(v), true
	case pdf.Real:
		return float64(v), true
	}
	return 0, false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
