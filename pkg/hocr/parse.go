package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoPages is returned when the input contains no ocr_page element.
var ErrNoPages = errors.New("hocr: no ocr_page elements found")

// lineClasses are the hOCR classes that denote a typeset line.
var lineClasses = []string{"ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat"}

var charsetRe = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-z0-9_\-]+)`)

// ParseHOCR converts raw hOCR data into a structured HOCR object.
func ParseHOCR(data []byte) (HOCR, error) {
	var result HOCR
	result.Metadata = make(map[string]string)

	decoded, err := decodeCharset(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, fmt.Errorf("hocr: parse html: %w", err)
	}

	extractDocumentMeta(&result, doc)

	walk(doc, func(n *html.Node) bool {
		if !hasClass(n, "ocr_page") {
			return true
		}
		result.Pages = append(result.Pages, processPage(n))
		return false
	})

	if len(result.Pages) == 0 {
		return result, ErrNoPages
	}
	return result, nil
}

// decodeCharset converts the document to UTF-8 based on its declared charset.
func decodeCharset(data []byte) ([]byte, error) {
	m := charsetRe.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	var enc encoding.Encoding
	switch name := strings.ToLower(string(m[1])); name {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return data, nil
	case "iso-8859-1", "iso8859-1", "iso_8859-1", "latin1", "latin-1":
		enc = charmap.ISO8859_1
	case "iso-8859-15", "latin-9":
		enc = charmap.ISO8859_15
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("hocr: unsupported charset %q", name)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("hocr: decode %s: %w", m[1], err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title has no complete bbox property
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	v, ok := floats(ParseTitle(title), "bbox", 4)
	if !ok {
		return nil
	}
	b := NewBoundingBox(v[0], v[1], v[2], v[3])
	return &b
}

// floats parses the first n values of a title property.
func floats(props map[string][]string, key string, n int) ([]float64, bool) {
	vals, ok := props[key]
	if !ok || len(vals) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		f, err := strconv.ParseFloat(vals[i], 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func floatProp(props map[string][]string, key string) float64 {
	if v, ok := floats(props, key, 1); ok {
		return v[0]
	}
	return 0
}

// extractDocumentMeta extracts document-level metadata from the head section
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			if lang := getAttrVal(n, "lang"); lang != "" {
				result.Language = lang
			} else if lang := getAttrVal(n, "xml:lang"); lang != "" {
				result.Language = lang
			}
		case "title":
			result.Title = extractTextContent(n)
		case "meta":
			name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
			switch {
			case name == "" || content == "":
			case strings.HasPrefix(name, "ocr-"):
				result.Metadata[name] = content
			case name == "dc.language" && result.Language == "":
				result.Language = content
			}
		case "body":
			return false
		}
		return true
	})
}

// processPage extracts the page properties and every line below it.
func processPage(n *html.Node) Page {
	page := Page{
		ID:       getAttrVal(n, "id"),
		Lang:     getAttrVal(n, "lang"),
		Metadata: make(map[string]string),
	}

	props := ParseTitle(getAttrVal(n, "title"))
	if bbox := ParseBoundingBoxFromTitle(getAttrVal(n, "title")); bbox != nil {
		page.BBox = *bbox
	}
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
		page.PageNumber, _ = strconv.Atoi(ppageno[0])
	}
	page.ScanRes = floatProp(props, "scan_res")
	for k, v := range props {
		switch k {
		case "bbox", "image", "ppageno", "scan_res":
		default:
			page.Metadata[k] = strings.Join(v, " ")
		}
	}

	walk(n, func(c *html.Node) bool {
		if c == n {
			return true
		}
		for _, class := range lineClasses {
			if hasClass(c, class) {
				line := processLine(c, class, inheritedLang(c, n), insideClass(c, n, "ocr_dropcap"))
				page.Lines = append(page.Lines, line)
				return false
			}
		}
		return true
	})
	return page
}

// processLine extracts line information and its words. lang and dropCap
// carry what the line inherits from enclosing areas and paragraphs.
func processLine(n *html.Node, kind, lang string, dropCap bool) Line {
	line := Line{
		ID:       getAttrVal(n, "id"),
		Kind:     kind,
		Lang:     getAttrVal(n, "lang"),
		DropCap:  dropCap || hasClass(n, "ocr_dropcap"),
		Metadata: make(map[string]string),
	}
	if line.Lang == "" {
		line.Lang = lang
	}

	title := getAttrVal(n, "title")
	props := ParseTitle(title)
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		line.BBox = *bbox
	}
	if v, ok := floats(props, "baseline", 2); ok {
		line.Baseline = &Baseline{Slope: v[0], Intercept: v[1]}
	}
	line.XSize = floatProp(props, "x_size")
	line.XAscenders = floatProp(props, "x_ascenders")
	line.XDescenders = floatProp(props, "x_descenders")
	for k, v := range props {
		switch k {
		case "bbox", "baseline", "x_size", "x_ascenders", "x_descenders":
		default:
			line.Metadata[k] = strings.Join(v, " ")
		}
	}

	walk(n, func(c *html.Node) bool {
		if c == n || !hasClass(c, "ocrx_word") {
			return true
		}
		word := processWord(c)
		word.DropCap = word.DropCap || line.DropCap || insideClass(c, n, "ocr_dropcap")
		if word.Lang == "" {
			word.Lang = line.Lang
		}
		line.Words = append(line.Words, word)
		return false
	})
	return line
}

// processWord extracts a word element's text, properties and typographic style
func processWord(n *html.Node) Word {
	word := Word{
		ID:       getAttrVal(n, "id"),
		Lang:     getAttrVal(n, "lang"),
		DropCap:  hasClass(n, "ocr_dropcap"),
		Metadata: make(map[string]string),
	}

	title := getAttrVal(n, "title")
	props := ParseTitle(title)
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		word.BBox = *bbox
	}
	word.Confidence = floatProp(props, "x_wconf")
	if font, ok := props["x_font"]; ok && len(font) > 0 {
		word.Font = strings.Trim(strings.Join(font, " "), `"`)
	}
	word.FontSize = floatProp(props, "x_fsize")
	for k, v := range props {
		switch k {
		case "bbox", "x_wconf", "x_font", "x_fsize":
		default:
			word.Metadata[k] = strings.Join(v, " ")
		}
	}

	word.SmallCaps = isSmallCaps(n)
	walk(n, func(c *html.Node) bool {
		if c.Type != html.ElementNode {
			return true
		}
		switch c.Data {
		case "em", "i":
			word.Italic = true
		case "sup":
			word.Superscript = true
		}
		if isSmallCaps(c) {
			word.SmallCaps = true
		}
		return true
	})

	word.Text = extractTextContent(n)
	return word
}

func isSmallCaps(n *html.Node) bool {
	return strings.Contains(strings.ReplaceAll(getAttrVal(n, "style"), " ", ""), "font-variant:small-caps")
}
