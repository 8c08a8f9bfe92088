package synth

import (
	"errors"
	"fmt"
	"io"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// Sentinel errors returned by Synthesize.
var (
	// ErrInvalidPageCount is returned when the requested page range selects
	// a negative number of pages, or zero pages without AllowEmpty.
	ErrInvalidPageCount = errors.New("synth: invalid page count")

	// ErrRotationConflict is returned when both RotateText and
	// RotateBackground are set; applying both would rotate twice.
	ErrRotationConflict = errors.New("synth: rotate text and rotate background are mutually exclusive")

	// ErrNoPages is returned when the input document has no pages.
	ErrNoPages = errors.New("synth: document has no pages")
)

// PageError reports a failure while synthesizing one page.
type PageError struct {
	Page int // zero-based page index
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("synth: page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// DisplayMode selects how text is colored.
type DisplayMode int

const (
	ModeBook       DisplayMode = iota // black text
	ModeProof                         // colored by confidence
	ModeEvaluation                    // colored by agreement with ground truth
	ModeInvisible                     // searchable text over an image
)

var modeNames = [...]string{"book", "proof", "evaluation", "invisible"}

func (m DisplayMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseDisplayMode converts a mode name into a DisplayMode. The empty
// string selects ModeBook.
func ParseDisplayMode(name string) (DisplayMode, error) {
	if name == "" {
		return ModeBook, nil
	}
	for i, n := range modeNames {
		if n == name {
			return DisplayMode(i), nil
		}
	}
	return ModeBook, fmt.Errorf("synth: unknown display mode %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m DisplayMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DisplayMode) UnmarshalText(b []byte) error {
	v, err := ParseDisplayMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Thresholds are the confidence cut-offs used in proof mode.
type Thresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// PageRange selects pages [Start, End). End == 0 means through the last page.
type PageRange struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Options control synthesis.
type Options struct {
	Mode             DisplayMode `yaml:"display_mode" json:"display_mode"`
	RotateText       bool        `yaml:"rotate_text" json:"rotate_text"`             // Rotate the text matrix by the page angle
	RotateBackground bool        `yaml:"rotate_background" json:"rotate_background"` // Text stays axis-aligned; the background is rotated instead
	DimsLimit        *ocr.Dims   `yaml:"dims_limit" json:"dims_limit,omitempty"`      // Scale pages down to fit within these dimensions
	Confidence       Thresholds  `yaml:"confidence" json:"confidence"`
	HighlightOpacity float64     `yaml:"highlight_opacity" json:"highlight_opacity"` // Fill opacity in proof and evaluation modes
	Pages            PageRange   `yaml:"pages" json:"pages"`
	AllowEmpty       bool        `yaml:"allow_empty" json:"allow_empty"` // Allow a range that selects zero pages
	RecalcLineBoxes  bool        `yaml:"recalc_line_boxes" json:"recalc_line_boxes"`
	LogWarnings      bool        `yaml:"log_warnings" json:"log_warnings"`
	Debug            bool        `yaml:"debug" json:"debug"` // Log per-glyph substitutions
	Logger           io.Writer   `yaml:"-" json:"-"`         // nil = stdout
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Mode:             ModeBook,
		Confidence:       Thresholds{High: 85, Medium: 75},
		HighlightOpacity: 0.4,
		LogWarnings:      true,
	}
}

// pageSpan resolves the page range against n input pages.
func (o Options) pageSpan(n int) (start, end int, err error) {
	start, end = o.Pages.Start, o.Pages.End
	if end == 0 {
		end = n
	}
	if start < 0 || start > n || end > n {
		return 0, 0, fmt.Errorf("%w: range [%d, %d) outside %d pages", ErrInvalidPageCount, o.Pages.Start, o.Pages.End, n)
	}
	count := end - start
	if count < 0 || (count == 0 && !o.AllowEmpty) {
		return 0, 0, fmt.Errorf("%w: range [%d, %d) selects %d pages", ErrInvalidPageCount, start, end, count)
	}
	return start, end, nil
}
