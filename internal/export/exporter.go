package export

import (
	"io"

	"github.com/hyperjump/smartstudy/internal/models"
)

// Exporter renders session snapshots with a fixed title and layout.
type Exporter struct {
	Title  string
	Layout LayoutOptions
}

// NewExporter returns an Exporter using the default layout. wrapColumn <= 0 keeps the default.
func NewExporter(title string, wrapColumn int) *Exporter {
	layout := DefaultLayout()
	if wrapColumn > 0 {
		layout.WrapColumn = wrapColumn
	}
	return &Exporter{Title: title, Layout: layout}
}

// PDF writes state as a paginated PDF to w.
func (e *Exporter) PDF(w io.Writer, state *models.SessionState) error {
	return WritePDF(w, NewReport(e.Title, state), e.Layout)
}

// DOCX saves state as a Word document at path.
func (e *Exporter) DOCX(path string, state *models.SessionState) error {
	return SaveDOCX(path, NewReport(e.Title, state))
}
