package pdf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FontFormat classifies a font program by its container format.
type FontFormat int

const (
	FormatUnknown FontFormat = iota
	FormatTrueType
	FormatOpenType
	FormatCollection
	FormatType1
)

func (f FontFormat) String() string {
	switch f {
	case FormatTrueType:
		return "TrueType"
	case FormatOpenType:
		return "OpenType"
	case FormatCollection:
		return "TrueType Collection"
	case FormatType1:
		return "Type1"
	}
	return "unknown"
}

// SystemFontInfo describes one installed font file.
type SystemFontInfo struct {
	Path   string
	Family string
	Format FontFormat
}

// FontScanner indexes installed font files by name. Names are matched
// case-insensitively.
type FontScanner struct {
	fonts map[string]*SystemFontInfo
}

// NewFontScanner creates an empty scanner.
func NewFontScanner() *FontScanner {
	return &FontScanner{fonts: make(map[string]*SystemFontInfo)}
}

// ScanSystemFonts walks the platform font directories and indexes every font
// file found. Unreadable files and directories are skipped.
func (fs *FontScanner) ScanSystemFonts() error {
	for _, dir := range fs.systemFontDirectories() {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".ttc", ".otf", ".pfb", ".pfa":
				fs.scanFont(path)
			}
			return nil
		})
	}
	return nil
}

func (fs *FontScanner) systemFontDirectories() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = "C:\\Windows"
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(os.Getenv("HOME"), "Library", "Fonts"),
		}
	default:
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(os.Getenv("HOME"), ".fonts"),
			filepath.Join(os.Getenv("HOME"), ".local", "share", "fonts"),
		}
	}
}

// scanFont sniffs a font file's format and indexes it under its filename.
func (fs *FontScanner) scanFont(path string) {
	header := make([]byte, 16)
	f, err := os.Open(path)
	if err != nil {
		return
	}
	n, _ := f.Read(header)
	f.Close()

	format := SniffFontFormat(header[:n])
	if format == FormatUnknown {
		return
	}

	base := filepath.Base(path)
	family := strings.TrimSuffix(base, filepath.Ext(base))
	info := &SystemFontInfo{Path: path, Family: family, Format: format}
	fs.fonts[strings.ToLower(family)] = info
}

// SniffFontFormat classifies a font program from its leading bytes.
func SniffFontFormat(data []byte) FontFormat {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch {
	case binary.BigEndian.Uint32(data) == 0x00010000, bytes.HasPrefix(data, []byte("true")):
		return FormatTrueType
	case bytes.HasPrefix(data, []byte("OTTO")):
		return FormatOpenType
	case bytes.HasPrefix(data, []byte("ttcf")):
		return FormatCollection
	case data[0] == 0x80 && data[1] == 0x01:
		// PFB binary segment header.
		return FormatType1
	case bytes.HasPrefix(data, []byte("%!PS-AdobeFont")), bytes.HasPrefix(data, []byte("%!FontType1")):
		return FormatType1
	}
	return FormatUnknown
}

// FindFont looks a font up by name: exact match first, then substring match
// either way.
func (fs *FontScanner) FindFont(name string) *SystemFontInfo {
	nameLower := strings.ToLower(name)
	if info, ok := fs.fonts[nameLower]; ok {
		return info
	}
	for key, info := range fs.fonts {
		if strings.Contains(key, nameLower) || strings.Contains(nameLower, key) {
			return info
		}
	}
	return nil
}

// MatchFontName matches a document font name to an installed font, stripping
// subset prefixes ("ABCDEF+") and style suffixes as needed.
func (fs *FontScanner) MatchFontName(fontName string) *SystemFontInfo {
	name := fontName
	if idx := strings.Index(name, "+"); idx > 0 {
		name = name[idx+1:]
	}

	if info := fs.FindFont(name); info != nil {
		return info
	}

	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	if info := fs.FindFont(name); info != nil {
		return info
	}

	styleSuffixes := []string{
		"bold italic", "bold", "italic", "oblique", "regular",
		"light", "medium", "semibold", "black", "thin", "condensed",
	}
	for _, suffix := range styleSuffixes {
		lower := strings.ToLower(name)
		if strings.HasSuffix(lower, suffix) {
			base := strings.TrimSpace(strings.TrimSuffix(lower, suffix))
			if info := fs.FindFont(base); info != nil {
				return info
			}
		}
	}

	return nil
}

// ListFonts returns the indexed fonts, deduplicated by path.
func (fs *FontScanner) ListFonts() []*SystemFontInfo {
	seen := make(map[string]bool)
	var fonts []*SystemFontInfo
	for _, info := range fs.fonts {
		if !seen[info.Path] {
			seen[info.Path] = true
			fonts = append(fonts, info)
		}
	}
	return fonts
}
