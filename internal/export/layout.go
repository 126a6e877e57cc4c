// Package export renders session results as PDF or DOCX study notes.
package export

import (
	"fmt"

	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/pkg/utils"
)

// Style selects the font used for a line.
type Style int

const (
	StyleTitle Style = iota
	StyleHeading
	StyleBody
	StyleQuestion
)

const (
	summaryHeading = "Summary"
	qaHeading      = "Questions & Answers"
)

// Report is the content of an export.
type Report struct {
	Title   string
	Summary string
	Pairs   []models.QAPair
}

// NewReport builds a report from a session snapshot.
func NewReport(title string, state *models.SessionState) Report {
	r := Report{Title: title, Summary: state.Summary()}
	r.Pairs = state.QA.Pairs()
	return r
}

// Line is one positioned line of text. Y is the baseline in millimetres from the page top.
type Line struct {
	Text  string
	Y     float64
	Style Style
}

// Page holds the lines placed on one page.
type Page struct {
	Lines []Line
}

// LayoutOptions are the fixed geometry of the document, in millimetres.
type LayoutOptions struct {
	WrapColumn int
	LeftMargin float64
	TopMargin  float64
	PageBreakY float64 // a new page starts before any line once y exceeds this
	LineHeight float64
	TitleGap   float64
	PairGap    float64
}

// DefaultLayout is A4 portrait with a 90 column wrap.
func DefaultLayout() LayoutOptions {
	return LayoutOptions{
		WrapColumn: 90,
		LeftMargin: 10,
		TopMargin:  10,
		PageBreakY: 270,
		LineHeight: 7,
		TitleGap:   10,
		PairGap:    3,
	}
}

// Layout paginates r: title, summary heading, wrapped summary, then each Q/A pair
// as "Qn: ..." and "An: ..." lines.
func Layout(r Report, opts LayoutOptions) []Page {
	pages := []Page{{}}
	y := opts.TopMargin
	place := func(text string, style Style, advance float64) {
		if y > opts.PageBreakY {
			pages = append(pages, Page{})
			y = opts.TopMargin
		}
		last := &pages[len(pages)-1]
		last.Lines = append(last.Lines, Line{Text: text, Y: y, Style: style})
		y += advance
	}

	place(r.Title, StyleTitle, opts.TitleGap)
	place(summaryHeading, StyleHeading, opts.LineHeight)
	for _, l := range utils.WrapText(r.Summary, opts.WrapColumn) {
		place(l, StyleBody, opts.LineHeight)
	}

	if len(r.Pairs) == 0 {
		return pages
	}
	y += opts.PairGap
	place(qaHeading, StyleHeading, opts.LineHeight)
	for _, p := range r.Pairs {
		for _, l := range utils.WrapText(fmt.Sprintf("Q%d: %s", p.Index, p.Question), opts.WrapColumn) {
			place(l, StyleQuestion, opts.LineHeight)
		}
		for _, l := range utils.WrapText(fmt.Sprintf("A%d: %s", p.Index, p.Answer), opts.WrapColumn) {
			place(l, StyleBody, opts.LineHeight)
		}
		y += opts.PairGap
	}
	return pages
}
