package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// slidePathRe matches ppt/slides/slideN.xml and captures the slide number.
var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// atTag matches <a:t>text</a:t> with any attributes on the tag.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// pptxPages returns one text per slide, ordered by slide number. PPTX is a
// ZIP of Office Open XML parts; zip entry order is not slide order, so slides
// are sorted by the number in their path.
func pptxPages(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: open %s: %w", f.Name, err)
		}
		var raw bytes.Buffer
		if _, err := raw.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("extract PPTX: read %s: %w", f.Name, err)
		}
		_ = rc.Close()

		var buf strings.Builder
		for _, p := range atTag.FindAllStringSubmatch(raw.String(), -1) {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(strings.TrimSpace(p[1]))
		}
		slides = append(slides, slide{num: num, text: strings.TrimSpace(buf.String())})
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })
	pages := make([]string, len(slides))
	for i, s := range slides {
		pages[i] = s.text
	}
	return pages, nil
}
