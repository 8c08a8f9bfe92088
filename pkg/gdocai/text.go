package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// textFromLayout extracts text from a layout's text anchor segments
func textFromLayout(layout *documentaipb.Document_Page_Layout, runes []rune) string {
	var result strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start, end := clampSegment(seg, len(runes))
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}

func clampSegment(seg *documentaipb.Document_TextAnchor_TextSegment, n int) (int, int) {
	start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
	start = max(start, 0)
	end = min(end, n)
	start = min(start, end)
	return start, end
}

// anchorSpan returns the first and last code point covered by a layout's
// text anchor, or ok false when the layout has none.
func anchorSpan(layout *documentaipb.Document_Page_Layout) (start, end int64, ok bool) {
	segs := layout.GetTextAnchor().GetTextSegments()
	if len(segs) == 0 {
		return 0, 0, false
	}
	start, end = segs[0].GetStartIndex(), segs[0].GetEndIndex()
	for _, s := range segs[1:] {
		start = min(start, s.GetStartIndex())
		end = max(end, s.GetEndIndex())
	}
	return start, end, true
}

// cleanTokenText trims the whitespace Document AI attaches to token text.
func cleanTokenText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
