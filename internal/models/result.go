package models

import "strings"

// AnalysisResult is returned by the Upload collaborator.
type AnalysisResult struct {
	Summary  string `json:"summary"`
	FullText string `json:"full_text"`
}

// QAResult is returned by the Result collaborator. Questions and Answers are
// index-aligned by contract; nothing here checks it.
type QAResult struct {
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
	Keywords  []string `json:"keywords"`
}

// QAPair is one question with its index-aligned answer. Index is 1-based.
type QAPair struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Pairs zips questions and answers up to the shorter of the two.
func (r *QAResult) Pairs() []QAPair {
	if r == nil {
		return nil
	}
	n := len(r.Questions)
	if len(r.Answers) < n {
		n = len(r.Answers)
	}
	pairs := make([]QAPair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, QAPair{Index: i + 1, Question: r.Questions[i], Answer: r.Answers[i]})
	}
	return pairs
}

// KeywordQuery joins the keyword set with single spaces. Blank and repeated
// keywords are dropped; first occurrence order is kept.
func (r *QAResult) KeywordQuery() string {
	if r == nil {
		return ""
	}
	seen := make(map[string]bool, len(r.Keywords))
	terms := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		terms = append(terms, k)
	}
	return strings.Join(terms, " ")
}
