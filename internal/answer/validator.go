// Package answer validates questions and synthesizes query results from
// retrieved chunks and the extractive-answer oracle.
package answer

import (
	"strings"
	"unicode"
)

// ValidQuestion reports whether a question is worth sending to the models.
// It filters symbol and number noise, not semantic nonsense: a question must
// have at least 3 trimmed characters, at least half of them letters, and at
// least one run of letters. Pure function, no model work.
func ValidQuestion(question string) bool {
	trimmed := strings.TrimSpace(question)
	if len([]rune(trimmed)) < 3 {
		return false
	}

	total := 0
	alpha := 0
	hasWord := false
	for _, r := range trimmed {
		total++
		if unicode.IsLetter(r) {
			alpha++
			hasWord = true
		}
	}
	if float64(alpha)/float64(total) < 0.5 {
		return false
	}
	return hasWord
}
