package extract

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun   = regexp.MustCompile(`[\s\x{0B}\x{85}\p{Z}]+`)
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s,.!?;:()\-'"，。！？；：（）]`)
	hyphenBreak     = regexp.MustCompile(`-\s+`)
	punctuationRun  = regexp.MustCompile(`[,.!?;:]{2,}`)
	sentenceJoin    = regexp.MustCompile(`([.!?])\s*([A-Z])`)
)

// Clean normalizes extracted text. The steps run in order:
// whitespace runs become one space, characters outside the allowed set are
// dropped, line-break hyphenation is joined, runs of punctuation collapse to
// a period, and a space is put back after sentence ends glued to a capital.
func Clean(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = disallowedChars.ReplaceAllString(text, "")
	text = hyphenBreak.ReplaceAllString(text, "")
	text = punctuationRun.ReplaceAllString(text, ".")
	text = sentenceJoin.ReplaceAllString(text, "${1} ${2}")
	return strings.TrimSpace(text)
}
