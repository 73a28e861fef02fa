// Package extract converts document files into ordered page texts for
// ingestion. A "page" is the format's natural unit: a PDF page, a worksheet,
// a slide, or the whole file for flat formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts page texts from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages reads the file at path and returns its text split into pages.
// Plain text formats (.txt, .md, .rst) yield a single page. PDF yields one
// page per PDF page, XLSX one per sheet, PPTX one per slide, DOCX a single
// page. Returns an error if the file cannot be read or parsed.
func (e *Extractor) ExtractPages(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractPagesBytes(content, ext)
}

// ExtractPagesBytes extracts page texts from content based on the given
// extension. ext includes the leading dot (e.g. ".pdf"). Unknown extensions
// are treated as plain text.
func (e *Extractor) ExtractPagesBytes(content []byte, ext string) ([]string, error) {
	switch ext {
	case ".pdf":
		return pdfPages(content)
	case ".docx", ".odt", ".rtf":
		return docxPages(content)
	case ".xlsx":
		return excelPages(content)
	case ".pptx":
		return pptxPages(content)
	default:
		return plainPages(content)
	}
}
