package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

const (
	docxDefaultDocument = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wtTag matches <w:t>text</w:t> with any attributes.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// docxMainDocument resolves the main document part from [Content_Types].xml,
// falling back to word/document.xml.
func docxMainDocument(zr *zip.Reader) string {
	f := findZipEntry(zr, contentTypesPath)
	if f == nil {
		return docxDefaultDocument
	}
	b, err := readZipEntry(f)
	if err != nil {
		return docxDefaultDocument
	}
	var ct contentTypes
	if err := xml.Unmarshal(b, &ct); err != nil {
		return docxDefaultDocument
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return docxDefaultDocument
}

// extractDOCX joins the text of every <w:t> run with single spaces.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	name := docxMainDocument(zr)
	f := findZipEntry(zr, name)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", name)
	}
	docXML, err := readZipEntry(f)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	var b strings.Builder
	for _, m := range wtTag.FindAllStringSubmatch(string(docXML), -1) {
		t := strings.TrimSpace(unescapeXML(m[1]))
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String(), nil
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
