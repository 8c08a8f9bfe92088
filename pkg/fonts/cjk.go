package fonts

import "github.com/go-text/typesetting/language"

var cjkLanguages = map[language.Language]bool{
	"zh": true, "ja": true, "ko": true,
	"chi": true, "jpn": true, "kor": true,
}

// IsCJK reports whether a word should be set in the CJK supplemental font,
// either because its language tag is Chinese, Japanese or Korean (BCP 47 or
// Tesseract codes such as "chi_sim") or because it contains Han, kana or
// Hangul characters.
func IsCJK(text, lang string) bool {
	if lang != "" && cjkLanguages[language.NewLanguage(lang).Primary()] {
		return true
	}
	for _, r := range text {
		switch language.LookupScript(r) {
		case language.Han, language.Hiragana, language.Katakana, language.Hangul:
			return true
		}
	}
	return false
}
