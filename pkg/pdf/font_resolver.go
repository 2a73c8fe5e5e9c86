package pdf

import (
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/sfnt"
)

// ResolvedFont is a substitution font located on the system. Depending on
// the container format, either TrueType (freetype) or SFNT (collections) is
// populated; Type1 programs are located but not parsed here.
type ResolvedFont struct {
	Name   string
	Path   string
	Format FontFormat

	TrueType *truetype.Font
	SFNT     *sfnt.Font

	coll *collectionHandle
}

// Release drops the font's hold on its backing collection, if any. Fonts
// from standalone files need no release, but calling it is always safe.
func (f *ResolvedFont) Release() {
	if f.coll != nil {
		f.coll.release()
		f.coll = nil
	}
}

// collectionHandle keeps a parsed .ttc and its backing bytes alive while any
// constituent font is in use.
type collectionHandle struct {
	resolver *FontResolver
	path     string
	data     []byte
	coll     *sfnt.Collection
	refs     int
}

func (h *collectionHandle) release() {
	h.resolver.mu.Lock()
	defer h.resolver.mu.Unlock()
	h.refs--
	if h.refs <= 0 {
		delete(h.resolver.collections, h.path)
	}
}

// FontResolver finds substitution fonts for document font names. Lookups
// share a cache; the resolver is safe for concurrent use.
type FontResolver struct {
	mu          sync.Mutex
	scanner     *FontScanner
	cache       map[string]*ResolvedFont
	collections map[string]*collectionHandle
}

// NewFontResolver creates a resolver over an already-populated scanner.
func NewFontResolver(scanner *FontScanner) *FontResolver {
	return &FontResolver{
		scanner:     scanner,
		cache:       make(map[string]*ResolvedFont),
		collections: make(map[string]*collectionHandle),
	}
}

// Find locates a substitution font by PostScript name. It returns nil when
// no installed font matches or the matched file cannot be parsed; load
// failures are logged, never propagated.
func (r *FontResolver) Find(postScriptName string) *ResolvedFont {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[postScriptName]; ok {
		return cached
	}

	font := r.load(postScriptName)
	r.cache[postScriptName] = font
	return font
}

// load matches and parses a font file. Caller holds the mutex.
func (r *FontResolver) load(postScriptName string) *ResolvedFont {
	info := r.scanner.MatchFontName(postScriptName)
	if info == nil {
		return nil
	}

	switch info.Format {
	case FormatType1:
		// Outline parsing for Type1 happens downstream; the resolver only
		// locates the program.
		return &ResolvedFont{Name: postScriptName, Path: info.Path, Format: FormatType1}

	case FormatCollection:
		return r.loadFromCollection(postScriptName, info.Path)

	default:
		data, err := os.ReadFile(info.Path)
		if err != nil {
			debugf("%v", &FontLoadError{Path: info.Path, Err: err})
			return nil
		}
		tt, err := truetype.Parse(data)
		if err != nil {
			debugf("%v", &FontLoadError{Path: info.Path, Err: err})
			return nil
		}
		return &ResolvedFont{
			Name:     postScriptName,
			Path:     info.Path,
			Format:   info.Format,
			TrueType: tt,
		}
	}
}

// loadFromCollection searches a .ttc for the constituent whose PostScript or
// family name matches. Caller holds the mutex.
func (r *FontResolver) loadFromCollection(postScriptName, path string) *ResolvedFont {
	handle, ok := r.collections[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			debugf("%v", &FontLoadError{Path: path, Err: err})
			return nil
		}
		coll, err := sfnt.ParseCollection(data)
		if err != nil {
			debugf("%v", &FontLoadError{Path: path, Err: err})
			return nil
		}
		handle = &collectionHandle{resolver: r, path: path, data: data, coll: coll}
		r.collections[path] = handle
	}

	var buf sfnt.Buffer
	want := strings.ToLower(postScriptName)
	for i := 0; i < handle.coll.NumFonts(); i++ {
		font, err := handle.coll.Font(i)
		if err != nil {
			continue
		}
		for _, id := range []sfnt.NameID{sfnt.NameIDPostScript, sfnt.NameIDFamily, sfnt.NameIDFull} {
			name, err := font.Name(&buf, id)
			if err != nil {
				continue
			}
			if strings.ToLower(name) == want || strings.Contains(strings.ToLower(name), want) {
				handle.refs++
				return &ResolvedFont{
					Name:   postScriptName,
					Path:   path,
					Format: FormatCollection,
					SFNT:   font,
					coll:   handle,
				}
			}
		}
	}

	if handle.refs <= 0 {
		delete(r.collections, path)
	}
	return nil
}
