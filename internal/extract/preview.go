package extract

import (
	"path/filepath"
	"strings"

	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/pkg/utils"
)

// snippetLength is the preview snippet size in characters.
const snippetLength = 160

// Preview extracts and cleans the text of a selected file. It never fails:
// unreadable content yields a preview with only the MIME type set.
func (e *Extractor) Preview(fileName string, content []byte) *models.Preview {
	p := &models.Preview{MIMEType: DetectMIME(content)}
	text, err := e.ExtractBytes(content, strings.ToLower(filepath.Ext(fileName)))
	if err != nil {
		return p
	}
	text = Clean(text)
	p.WordCount = utils.WordCount(text)
	p.Snippet = utils.Truncate(text, snippetLength)
	return p
}
