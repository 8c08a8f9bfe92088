package gdocai

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ToJSON converts various types to a pretty-printed JSON string
// It handles both protocol buffer messages and regular Go structs
func ToJSON(data any) (string, error) {
	switch v := data.(type) {
	case proto.Message:
		jsonData, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(jsonData), nil
	default:
		jsonData, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(jsonData), nil
	}
}

// LoadDocumentJSON parses a Document AI response saved as JSON, either the
// Document itself or a full ProcessResponse wrapping it.
func LoadDocumentJSON(data []byte) (*documentaipb.Document, error) {
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}

	var resp documentaipb.ProcessResponse
	if err := opts.Unmarshal(data, &resp); err == nil && resp.GetDocument() != nil {
		return resp.GetDocument(), nil
	}

	var doc documentaipb.Document
	if err := opts.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gdocai: parse document json: %w", err)
	}
	return &doc, nil
}

// LoadDocumentFile reads a saved Document AI JSON response from disk.
func LoadDocumentFile(path string) (*documentaipb.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadDocumentJSON(data)
}

// ExtractImageFromPage pulls out the image data from a Document AI page
func ExtractImageFromPage(page *documentaipb.Document_Page) ([]byte, string, error) {
	if page == nil {
		return nil, "", errors.New("no documentai page provided")
	}
	image := page.GetImage()
	if image == nil {
		return nil, "", errors.New("no image found in documentai page")
	}
	content := image.GetContent()
	if len(content) == 0 {
		return nil, "", errors.New("image content is empty")
	}
	return content, image.GetMimeType(), nil
}

// MergeDocument appends the pages and text of src to dst, renumbering pages
// and shifting every text anchor by the length of the text already in dst.
// Anchors index code points, not bytes.
func MergeDocument(dst, src *documentaipb.Document) {
	sep := ""
	if dst.Text != "" {
		sep = "\n\n"
	}
	offset := int64(utf8.RuneCountInString(dst.Text) + len(sep))
	dst.Text += sep + src.GetText()

	for _, p := range src.GetPages() {
		page := proto.Clone(p).(*documentaipb.Document_Page)
		page.PageNumber = int32(len(dst.Pages) + 1)
		shift := func(l *documentaipb.Document_Page_Layout) {
			for _, seg := range l.GetTextAnchor().GetTextSegments() {
				seg.StartIndex += offset
				seg.EndIndex += offset
			}
		}
		shift(page.GetLayout())
		for _, b := range page.GetBlocks() {
			shift(b.GetLayout())
		}
		for _, par := range page.GetParagraphs() {
			shift(par.GetLayout())
		}
		for _, l := range page.GetLines() {
			shift(l.GetLayout())
		}
		for _, t := range page.GetTokens() {
			shift(t.GetLayout())
		}
		dst.Pages = append(dst.Pages, page)
	}
}
