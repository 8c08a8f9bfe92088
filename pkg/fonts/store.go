package fonts

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// CJKFamily is the family name under which the CJK supplemental font is
// looked up. Styles are ignored for it.
const CJKFamily = "CJK"

// DefaultFamily is the family used by NewDefaultStore.
const DefaultFamily = "Go"

// Key identifies a font by family and style.
type Key struct {
	Family string
	Style  ocr.Style
}

// Store holds parsed fonts per (family, style) and one CJK font.
// It is safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	fonts         map[Key]*Font
	cjk           *Font
	defaultFamily string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		fonts:         make(map[Key]*Font),
		defaultFamily: DefaultFamily,
	}
}

// NewDefaultStore creates a store populated with the bundled Go fonts:
// family "Go" (normal, italic, small-caps) and "Go Mono" (normal, italic).
func NewDefaultStore() (*Store, error) {
	s := NewStore()
	bundled := []struct {
		family string
		style  ocr.Style
		data   []byte
	}{
		{DefaultFamily, ocr.StyleNormal, goregular.TTF},
		{DefaultFamily, ocr.StyleItalic, goitalic.TTF},
		{DefaultFamily, ocr.StyleSmallCaps, gosmallcaps.TTF},
		{"Go Mono", ocr.StyleNormal, gomono.TTF},
		{"Go Mono", ocr.StyleItalic, gomonoitalic.TTF},
	}
	for _, b := range bundled {
		f, err := Parse(b.family, b.style, b.data)
		if err != nil {
			return nil, err
		}
		s.Add(f)
	}
	return s, nil
}

// Add registers a font under its family and style, replacing any previous one.
func (s *Store) Add(f *Font) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fonts[Key{f.Family, f.Style}] = f
}

// LoadFile parses a font file from disk and registers it.
func (s *Store) LoadFile(family string, style ocr.Style, path string, serif bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fonts: failed to read %s: %w", path, err)
	}
	f, err := Parse(family, style, data)
	if err != nil {
		return err
	}
	f.Serif = serif
	s.Add(f)
	return nil
}

// SetCJK registers the CJK supplemental font.
func (s *Store) SetCJK(f *Font) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.Family = CJKFamily
	s.cjk = f
}

// LoadCJKFile parses a CJK font file from disk and registers it.
func (s *Store) LoadCJKFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fonts: failed to read %s: %w", path, err)
	}
	f, err := Parse(CJKFamily, ocr.StyleNormal, data)
	if err != nil {
		return err
	}
	s.SetCJK(f)
	return nil
}

// CJK returns the CJK supplemental font, or nil when none is registered.
func (s *Store) CJK() *Font {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cjk
}

// SetDefaultFamily changes the family used for words without an override.
func (s *Store) SetDefaultFamily(family string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultFamily = family
}

// DefaultFamily returns the family used for words without an override.
func (s *Store) DefaultFamily() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultFamily
}

// Font returns the font registered for family and style.
// The CJKFamily name resolves to the CJK font regardless of style.
func (s *Store) Font(family string, style ocr.Style) (*Font, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if family == CJKFamily {
		if s.cjk == nil {
			return nil, fmt.Errorf("%w: no CJK font registered", ErrFontNotFound)
		}
		return s.cjk, nil
	}
	f, ok := s.fonts[Key{family, style}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrFontNotFound, family, style)
	}
	return f, nil
}

// Keys returns the registered (family, style) pairs in a stable order.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]Key, 0, len(s.fonts))
	for k := range s.fonts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		return keys[i].Style < keys[j].Style
	})
	return keys
}
