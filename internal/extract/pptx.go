package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX returns slide text in slide order.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	type slide struct {
		n    int
		text []string
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		b, err := readZipEntry(f)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		n, _ := strconv.Atoi(m[1])
		s := slide{n: n}
		for _, p := range atTag.FindAllStringSubmatch(string(b), -1) {
			if t := strings.TrimSpace(unescapeXML(p[1])); t != "" {
				s.text = append(s.text, t)
			}
		}
		slides = append(slides, s)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	var parts []string
	for _, s := range slides {
		parts = append(parts, s.text...)
	}
	return strings.Join(parts, " "), nil
}
