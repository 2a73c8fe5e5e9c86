package pdf

import (
	"testing"
)

// TestSniffFontFormat tests container format detection from leading bytes.
func TestSniffFontFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want FontFormat
	}{
		{"truetype", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x0B}, FormatTrueType},
		{"truetype apple", []byte("true\x00\x0B"), FormatTrueType},
		{"opentype cff", []byte("OTTO\x00\x0B"), FormatOpenType},
		{"collection", []byte("ttcf\x00\x01"), FormatCollection},
		{"pfb", []byte{0x80, 0x01, 0x12, 0x34}, FormatType1},
		{"pfa", []byte("%!PS-AdobeFont-1.0: Times"), FormatType1},
		{"short", []byte{0x00}, FormatUnknown},
		{"garbage", []byte("nope"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffFontFormat(tt.data); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMatchFontName tests name normalization: subset prefixes, separators,
// and style suffixes.
func TestMatchFontName(t *testing.T) {
	fs := NewFontScanner()
	fs.fonts["liberationsans"] = &SystemFontInfo{
		Path: "/fonts/LiberationSans.ttf", Family: "LiberationSans", Format: FormatTrueType,
	}

	tests := []string{
		"LiberationSans",
		"ABCDEF+LiberationSans",
		"LiberationSans-Bold",
		"liberationsans",
	}
	for _, name := range tests {
		if info := fs.MatchFontName(name); info == nil {
			t.Errorf("%q: no match", name)
		}
	}

	if info := fs.MatchFontName("CompletelyDifferent"); info != nil {
		t.Errorf("unexpected match %v", info)
	}
}

// TestResolverCachesMisses tests that repeated lookups of an unknown name
// are served from the cache.
func TestResolverCachesMisses(t *testing.T) {
	resolver := NewFontResolver(NewFontScanner())

	if font := resolver.Find("NoSuchFont"); font != nil {
		t.Fatalf("expected nil for unknown font, got %v", font)
	}
	if _, ok := resolver.cache["NoSuchFont"]; !ok {
		t.Error("expected the miss to be cached")
	}
	if font := resolver.Find("NoSuchFont"); font != nil {
		t.Errorf("expected cached nil, got %v", font)
	}
}

// TestResolverType1Delegation tests that Type1 programs are located but not
// parsed.
func TestResolverType1Delegation(t *testing.T) {
	fs := NewFontScanner()
	fs.fonts["nimbusroman"] = &SystemFontInfo{
		Path: "/fonts/NimbusRoman.pfb", Family: "NimbusRoman", Format: FormatType1,
	}
	resolver := NewFontResolver(fs)

	font := resolver.Find("NimbusRoman")
	if font == nil {
		t.Fatal("expected a resolved font")
	}
	if font.Format != FormatType1 {
		t.Errorf("expected Type1 format, got %v", font.Format)
	}
	if font.TrueType != nil || font.SFNT != nil {
		t.Error("Type1 programs must not be parsed here")
	}

	// Release on a non-collection font is a no-op.
	font.Release()
}

// TestReleaseWithoutCollection tests that Release is safe on every resolved
// font shape.
func TestReleaseWithoutCollection(t *testing.T) {
	f := &ResolvedFont{Name: "X", Format: FormatTrueType}
	f.Release()
	f.Release()
}
