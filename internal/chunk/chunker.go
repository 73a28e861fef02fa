// Package chunk splits document text into overlapping word-based chunks.
package chunk

import (
	"fmt"
	"strings"
)

// Chunker splits text into sliding windows of words. Consecutive windows share
// overlap words so that context is not severed at chunk boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given window size and overlap (in words).
// Overlap must be strictly less than size; violating this is a configuration
// error reported once at startup, not per call.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split splits text into overlapping chunks. Empty or whitespace-only input
// yields no chunks. Each chunk is a space-joined run of the original words,
// so chunks carry no leading or trailing whitespace.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.size - c.overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for i := 0; ; i += step {
		end := i + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// Size returns the configured window size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }
