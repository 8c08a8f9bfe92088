package ocr

import (
	"errors"
	"fmt"
)

// ErrWordOrder is returned by Line.CheckOrder when words are not sorted
// left-to-right by their left edge.
var ErrWordOrder = errors.New("ocr: words are not ordered left to right")

// Document is an ordered sequence of pages; the slice index is the page number.
type Document struct {
	Pages []Page `json:"pages"`
}

// Dims holds a width and height in source pixels.
type Dims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is one page of recognized text.
type Page struct {
	Dims  Dims    `json:"dims"`
	Angle float64 `json:"angle"` // Detected skew in signed degrees
	Lang  string  `json:"lang,omitempty"`
	Lines []Line  `json:"lines"`
}

// Baseline models a line's baseline as
// y(x) = bbox.Bottom + Intercept + Slope*(x - bbox.Left).
type Baseline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Line is a line of text. BBox must equal the union of its word boxes;
// call RecalcBBox after changing Words.
type Line struct {
	ID           string   `json:"id,omitempty"`
	BBox         BBox     `json:"bbox"`
	Baseline     Baseline `json:"baseline"`
	LetterHeight float64  `json:"letter_height,omitempty"` // Ascender-to-descender height in pixels
	AscHeight    float64  `json:"asc_height,omitempty"`    // Ascender extent above x-height, 0 if unknown
	DescHeight   float64  `json:"desc_height,omitempty"`   // Descender extent below baseline, 0 if unknown
	Words        []Word   `json:"words"`
}

// Word is a recognized word with its bounding box.
type Word struct {
	ID         string   `json:"id,omitempty"`
	Text       string   `json:"text"`
	BBox       BBox     `json:"bbox"`
	Confidence float64  `json:"confidence"` // Recognition confidence (0-100)
	Style      Style    `json:"style"`
	Kind       WordKind `json:"kind"`
	Family     string   `json:"family,omitempty"` // Font family override
	Size       float64  `json:"size,omitempty"`   // Explicit font size in pixels, 0 if unset
	Lang       string   `json:"lang,omitempty"`
	MatchTruth bool     `json:"match_truth,omitempty"`
}

// Style is the typographic style of a word.
type Style int

const (
	StyleNormal Style = iota
	StyleItalic
	StyleSmallCaps
)

var styleNames = [...]string{"normal", "italic", "small-caps"}

// String returns the style name used in configuration and JSON.
func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle converts a style name into a Style.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	if name == "" {
		return StyleNormal, nil
	}
	return StyleNormal, fmt.Errorf("ocr: unknown style %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(b []byte) error {
	v, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// WordKind distinguishes ordinary words from superscripts and drop capitals.
// A word is exactly one kind, so superscript and dropcap cannot both be set.
type WordKind int

const (
	KindPlain WordKind = iota
	KindSuperscript
	KindDropCap
)

var kindNames = [...]string{"plain", "sup", "dropcap"}

// String returns the kind name used in JSON.
func (k WordKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("WordKind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k WordKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WordKind) UnmarshalText(b []byte) error {
	name := string(b)
	if name == "" {
		*k = KindPlain
		return nil
	}
	for i, n := range kindNames {
		if n == name {
			*k = WordKind(i)
			return nil
		}
	}
	return fmt.Errorf("ocr: unknown word kind %q", name)
}
