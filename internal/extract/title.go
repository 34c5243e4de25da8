package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultTitleMaxLength caps derived titles, in characters.
const DefaultTitleMaxLength = 50

// TitleFromText picks a title from the first non-empty line of text. A
// first line shorter than 10 characters is joined with the second when the
// pair fits maxLen. Titles over maxLen are cut and end in "...". When text
// has no usable line the filename is used.
func TitleFromText(text, filename string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultTitleMaxLength
	}

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
			if len(lines) == 2 {
				break
			}
		}
	}
	if len(lines) == 0 {
		return TitleFromFilename(filename)
	}

	title := lines[0]
	if utf8.RuneCountInString(title) < 10 && len(lines) > 1 {
		if combined := title + " - " + lines[1]; utf8.RuneCountInString(combined) <= maxLen {
			title = combined
		}
	}
	if utf8.RuneCountInString(title) > maxLen {
		title = string([]rune(title)[:maxLen]) + "..."
	}
	return title
}

// TitleFromFilename returns the base name without its extension, or the
// whole base name when that would leave nothing.
func TitleFromFilename(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}
