package epubtidy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// punctuation is the fixed set of Chinese and ASCII marks that the spacing
// and sentence rules recognise. It is deliberately not a Unicode category.
const punctuation = "，。！？；：、“”‘’（）《》【】…—" + `.,!?;:'")(][-`

// sentenceEnders are the marks that close a sentence.
const sentenceEnders = "。！？!?"

// closers are quotes and brackets ignored at the end of a paragraph when
// looking for its final mark.
const closers = `'”』」】〉)]`

func isPunct(r rune) bool { return strings.ContainsRune(punctuation, r) }

func isCloser(r rune) bool { return strings.ContainsRune(closers, r) }

// EndsSentence reports whether text reads as a finished paragraph.
//
// Blank text counts as finished. Otherwise trailing closers are ignored and
// the last mark must be one of 。！？!?. A paragraph that trails off in a
// comma, colon, dash or an ellipsis ("……") is unfinished and continues in
// the next block.
func EndsSentence(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	text = strings.TrimRightFunc(text, isCloser)
	// A single newline left in front of the stripped closers is ignored.
	text = strings.TrimSuffix(text, "\n")

	last, _ := utf8.DecodeLastRuneInString(text)
	if text == "" || !isPunct(last) {
		return false
	}
	if strings.HasSuffix(text, "……") {
		return false
	}
	return strings.ContainsRune(sentenceEnders, last)
}

// Tighten removes whitespace that follows a non-punctuation character and
// trims the result. Whitespace after a punctuation mark survives as its
// first character, so "你 好 ， 世界 。" becomes "你好， 世界。".
func Tighten(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		sb.WriteRune(r)
		if isPunct(r) || i+1 >= len(rs) || !unicode.IsSpace(rs[i+1]) {
			continue
		}
		for i+1 < len(rs) && unicode.IsSpace(rs[i+1]) {
			i++
		}
	}
	return strings.TrimSpace(sb.String())
}
