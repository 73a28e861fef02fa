package extract

import (
	"strings"
	"unicode/utf8"
)

// plainPages returns the whole content as a single page, replacing invalid
// UTF-8 sequences with the replacement character.
func plainPages(content []byte) ([]string, error) {
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "�")
	}
	return []string{text}, nil
}
