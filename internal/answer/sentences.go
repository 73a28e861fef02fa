package answer

import (
	"strings"
	"unicode"
)

// sentence is one sentence of a chunk with its byte offsets in the original
// text, terminator included.
type sentence struct {
	text  string
	start int
	end   int
}

// splitSentences splits text at '.', '!' and '?' when the terminator ends the
// text or is followed by whitespace. Offsets refer to the input so callers can
// map a substring match back to its sentences. Abbreviation handling is
// deliberately out of scope.
func splitSentences(text string) []sentence {
	var out []sentence
	start := 0
	runes := []rune(text)
	byteAt := 0 // byte offset of runes[i]
	offsets := make([]int, len(runes)+1)
	for i, r := range runes {
		offsets[i] = byteAt
		byteAt += len(string(r))
	}
	offsets[len(runes)] = byteAt

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		s := strings.TrimSpace(text[offsets[start]:offsets[i+1]])
		if s != "" {
			out = append(out, sentence{text: s, start: offsets[start], end: offsets[i+1]})
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(text[offsets[start]:]); tail != "" {
		out = append(out, sentence{text: tail, start: offsets[start], end: len(text)})
	}
	return out
}
