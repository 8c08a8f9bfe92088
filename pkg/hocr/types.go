package hocr

// HOCR represents the entire hOCR document structure
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities, ...
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string
	PageNumber int         // ppageno, 0 if absent
	ImageName  string      // Source image filename
	Lang       string      // Language code for this page
	BBox       BoundingBox // Page coordinates
	ScanRes    float64     // Horizontal scan resolution in dpi, 0 if unknown
	Lines      []Line      // All text lines in document order, regardless of nesting
	Metadata   map[string]string
}

// Class assign 'ocr_page' to 'Page' struct
func (Page) Class() string { return "ocr_page" }

// Baseline is the hOCR "baseline p1 p0" property: y = p1*x + p0 relative
// to the bottom-left corner of the line box.
type Baseline struct {
	Slope     float64
	Intercept float64
}

// Line represents a line of text. hOCR marks lines with several classes
// (ocr_line, ocr_caption, ocr_header, ocr_textfloat); Kind keeps the one seen.
type Line struct {
	ID          string
	Kind        string
	Lang        string
	BBox        BoundingBox
	Baseline    *Baseline // nil when the line has no baseline property
	XSize       float64   // x_size: ascender-to-descender height
	XAscenders  float64   // x_ascenders: extent above the x-height
	XDescenders float64   // x_descenders: extent below the baseline
	DropCap     bool      // Line is marked ocr_dropcap
	Words       []Word
	Metadata    map[string]string
}

// Class assign 'ocr_line' to 'Line' struct
func (Line) Class() string { return "ocr_line" }

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID          string
	Text        string
	BBox        BoundingBox
	Confidence  float64 // x_wconf (0-100)
	Lang        string
	Font        string  // x_font
	FontSize    float64 // x_fsize in points
	Italic      bool    // Text wrapped in <em> or <i>
	SmallCaps   bool    // font-variant: small-caps
	Superscript bool    // Text wrapped in <sup>
	DropCap     bool    // Word is marked ocr_dropcap
	Metadata    map[string]string
}

// Class assign 'ocrx_word' to 'Word' struct
func (Word) Class() string { return "ocrx_word" }

// BoundingBox represents the coordinates of a rectangle
// Format in hOCR: "bbox x1 y1 x2 y2"
type BoundingBox struct {
	X1, Y1 float64 // Top-left corner
	X2, Y2 float64 // Bottom-right corner
}

// NewBoundingBox creates a new bounding box from coordinates
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// IsZero reports whether the box was never set.
func (b BoundingBox) IsZero() bool { return b == BoundingBox{} }
