// Package extract pulls plain text out of selected documents for local previews.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content. ext should include the leading dot
// (e.g. ".pdf"); when it is empty the format is sniffed from the content.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	if ext == "" {
		ext = DetectExtension(content)
	}
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	default:
		return extractPlain(content)
	}
}

// DetectExtension sniffs content and returns its usual extension, such as ".pdf".
func DetectExtension(content []byte) string {
	return mimetype.Detect(content).Extension()
}

// DetectMIME sniffs content and returns its MIME type without parameters.
func DetectMIME(content []byte) string {
	m := mimetype.Detect(content).String()
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return m
}
