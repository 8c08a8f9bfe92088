package hocr

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// FromDocument converts an OCR model document into hOCR pages, the inverse of
// ToDocument for the properties hOCR can express.
func FromDocument(doc *ocr.Document, system string) *HOCR {
	h := &HOCR{
		Title: "OCR output",
		Metadata: map[string]string{
			"ocr-system":          system,
			"ocr-capabilities":    "ocr_page ocr_line ocrx_word ocrp_lang ocrp_wconf",
			"ocr-number-of-pages": strconv.Itoa(len(doc.Pages)),
		},
	}
	langs := map[string]bool{}
	for pi, p := range doc.Pages {
		page := Page{
			ID:         fmt.Sprintf("page_%d", pi+1),
			PageNumber: pi,
			Lang:       p.Lang,
			BBox:       NewBoundingBox(0, 0, p.Dims.Width, p.Dims.Height),
		}
		if p.Lang != "" {
			langs[p.Lang] = true
		}
		for li, l := range p.Lines {
			line := Line{
				ID:          fmt.Sprintf("line_%d_%d", pi+1, li+1),
				Kind:        "ocr_line",
				BBox:        fromBBox(l.BBox),
				Baseline:    &Baseline{Slope: l.Baseline.Slope, Intercept: l.Baseline.Intercept},
				XSize:       l.LetterHeight,
				XAscenders:  l.AscHeight,
				XDescenders: l.DescHeight,
			}
			for wi, w := range l.Words {
				line.Words = append(line.Words, Word{
					ID:          fmt.Sprintf("word_%d_%d_%d", pi+1, li+1, wi+1),
					Text:        w.Text,
					BBox:        fromBBox(w.BBox),
					Confidence:  w.Confidence,
					Lang:        w.Lang,
					Font:        w.Family,
					Italic:      w.Style == ocr.StyleItalic,
					SmallCaps:   w.Style == ocr.StyleSmallCaps,
					Superscript: w.Kind == ocr.KindSuperscript,
					DropCap:     w.Kind == ocr.KindDropCap,
				})
			}
			page.Lines = append(page.Lines, line)
		}
		h.Pages = append(h.Pages, page)
	}
	if len(langs) > 0 {
		var all []string
		for l := range langs {
			all = append(all, l)
		}
		sort.Strings(all)
		h.Metadata["ocr-langs"] = strings.Join(all, " ")
		h.Language = all[0]
	}
	return h
}

func fromBBox(b ocr.BBox) BoundingBox {
	return NewBoundingBox(b.Left, b.Top, b.Right, b.Bottom)
}

// GenerateHOCRDocument renders an hOCR HTML document from the HOCR struct.
func GenerateHOCRDocument(h *HOCR) ([]byte, error) {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlAttr := []html.Attribute{{Key: "xmlns", Val: "http://www.w3.org/1999/xhtml"}}
	if h.Language != "" {
		htmlAttr = append(htmlAttr, html.Attribute{Key: "lang", Val: h.Language})
	}
	doc := element(atom.Html, htmlAttr...)
	root.AppendChild(doc)

	head := element(atom.Head)
	doc.AppendChild(head)
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: h.Title})
	head.AppendChild(title)
	head.AppendChild(element(atom.Meta,
		html.Attribute{Key: "http-equiv", Val: "Content-Type"},
		html.Attribute{Key: "content", Val: "text/html;charset=utf-8"}))
	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		head.AppendChild(element(atom.Meta,
			html.Attribute{Key: "name", Val: k},
			html.Attribute{Key: "content", Val: h.Metadata[k]}))
	}

	body := element(atom.Body)
	doc.AppendChild(body)
	for _, p := range h.Pages {
		body.AppendChild(pageNode(&p))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("hocr: render: %w", err)
	}
	return buf.Bytes(), nil
}

func pageNode(p *Page) *html.Node {
	title := []string{"bbox " + bboxString(p.BBox), "ppageno " + strconv.Itoa(p.PageNumber)}
	if p.ImageName != "" {
		title = append(title, "image "+strconv.Quote(p.ImageName))
	}
	if p.ScanRes > 0 {
		res := formatFloat(p.ScanRes)
		title = append(title, "scan_res "+res+" "+res)
	}
	n := element(atom.Div, classAttrs("ocr_page", p.ID, p.Lang, title)...)
	for _, l := range p.Lines {
		n.AppendChild(lineNode(&l))
	}
	return n
}

func lineNode(l *Line) *html.Node {
	title := []string{"bbox " + bboxString(l.BBox)}
	if l.Baseline != nil {
		title = append(title, "baseline "+formatFloat(l.Baseline.Slope)+" "+formatFloat(l.Baseline.Intercept))
	}
	for _, p := range []struct {
		key string
		val float64
	}{{"x_size", l.XSize}, {"x_ascenders", l.XAscenders}, {"x_descenders", l.XDescenders}} {
		if p.val != 0 {
			title = append(title, p.key+" "+formatFloat(p.val))
		}
	}
	kind := l.Kind
	if kind == "" {
		kind = "ocr_line"
	}
	n := element(atom.Span, classAttrs(kind, l.ID, l.Lang, title)...)
	for i, w := range l.Words {
		if i > 0 {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
		}
		n.AppendChild(wordNode(&w))
	}
	return n
}

func wordNode(w *Word) *html.Node {
	title := []string{"bbox " + bboxString(w.BBox), "x_wconf " + formatFloat(w.Confidence)}
	if w.Font != "" {
		title = append(title, "x_font "+w.Font)
	}
	if w.FontSize > 0 {
		title = append(title, "x_fsize "+formatFloat(w.FontSize))
	}
	class := "ocrx_word"
	if w.DropCap {
		class += " ocr_dropcap"
	}
	attrs := classAttrs(class, w.ID, w.Lang, title)
	if w.SmallCaps {
		attrs = append(attrs, html.Attribute{Key: "style", Val: "font-variant: small-caps"})
	}
	n := element(atom.Span, attrs...)

	parent := n
	if w.Superscript {
		sup := element(atom.Sup)
		parent.AppendChild(sup)
		parent = sup
	}
	if w.Italic {
		em := element(atom.Em)
		parent.AppendChild(em)
		parent = em
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: w.Text})
	return n
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func classAttrs(class, id, lang string, title []string) []html.Attribute {
	attrs := []html.Attribute{{Key: "class", Val: class}}
	if id != "" {
		attrs = append(attrs, html.Attribute{Key: "id", Val: id})
	}
	if lang != "" {
		attrs = append(attrs, html.Attribute{Key: "lang", Val: lang})
	}
	return append(attrs, html.Attribute{Key: "title", Val: strings.Join(title, "; ")})
}

func bboxString(b BoundingBox) string {
	return strings.Join([]string{formatFloat(b.X1), formatFloat(b.Y1), formatFloat(b.X2), formatFloat(b.Y2)}, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
