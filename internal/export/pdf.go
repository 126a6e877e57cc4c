package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const pdfFont = "Helvetica"

// WritePDF lays out r and writes an A4 PDF to w.
func WritePDF(w io.Writer, r Report, opts LayoutOptions) error {
	pages := Layout(r, opts)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(r.Title, true)
	doc.SetCreator("smartstudy", true)
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, page := range pages {
		doc.AddPage()
		for _, line := range page.Lines {
			setStyle(doc, line.Style)
			doc.Text(opts.LeftMargin, line.Y, tr(line.Text))
		}
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}
	return nil
}

func setStyle(doc *fpdf.Fpdf, s Style) {
	switch s {
	case StyleTitle:
		doc.SetFont(pdfFont, "B", 16)
	case StyleHeading:
		doc.SetFont(pdfFont, "B", 13)
	case StyleQuestion:
		doc.SetFont(pdfFont, "B", 11)
	default:
		doc.SetFont(pdfFont, "", 11)
	}
}
