package export

import (
	"fmt"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/hyperjump/smartstudy/pkg/utils"
)

const (
	docxFont     = "Times New Roman"
	docxBodySize = 12
)

// SaveDOCX writes r as a Word document at path. Pagination is left to the reader.
func SaveDOCX(path string, r Report) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create DOCX: %w", err)
	}

	addRun(doc.AddParagraph(""), r.Title, true, 16)
	addRun(doc.AddParagraph(""), summaryHeading, true, 14)
	for _, para := range utils.WrapText(r.Summary, 1<<20) {
		if para == "" {
			continue
		}
		addRun(doc.AddParagraph(""), para, false, docxBodySize)
	}
	if len(r.Pairs) > 0 {
		addRun(doc.AddParagraph(""), qaHeading, true, 14)
		for _, p := range r.Pairs {
			addRun(doc.AddParagraph(""), fmt.Sprintf("Q%d: %s", p.Index, p.Question), true, docxBodySize)
			addRun(doc.AddParagraph(""), fmt.Sprintf("A%d: %s", p.Index, p.Answer), false, docxBodySize)
		}
	}

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("save DOCX: %w", err)
	}
	return nil
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(docxFont).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
