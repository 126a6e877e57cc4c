// Package cli formats sessions, history and status for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hyperjump/smartstudy/internal/history"
	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSession writes the results of an analyzed session.
func WriteSession(w io.Writer, state *models.SessionState, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, state)
	}
	fmt.Fprintf(w, "File: %s (%s summary)\n", state.FileName, state.SummaryType)
	if state.Preview != nil && state.Preview.MIMEType != "" {
		fmt.Fprintf(w, "Type: %s, %d words\n", state.Preview.MIMEType, state.Preview.WordCount)
	}
	if s := state.Summary(); s != "" {
		fmt.Fprintf(w, "\n--- Summary ---\n")
		for _, line := range utils.WrapText(s, 80) {
			fmt.Fprintln(w, line)
		}
	}
	if pairs := state.QA.Pairs(); len(pairs) > 0 {
		fmt.Fprintf(w, "\n--- Questions & Answers ---\n")
		for _, p := range pairs {
			fmt.Fprintf(w, "Q%d: %s\nA%d: %s\n\n", p.Index, p.Question, p.Index, p.Answer)
		}
	}
	if state.QA != nil && len(state.QA.Keywords) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(state.QA.Keywords, ", "))
	}
	if len(state.Videos) > 0 {
		fmt.Fprintf(w, "\n--- Related videos ---\n")
		for _, v := range state.Videos {
			fmt.Fprintf(w, "%s\n  %s | %s\n", v.Title, v.ChannelTitle, v.WatchURL())
		}
	}
	return nil
}

// WriteHistory writes history records, newest first. A non-empty suggestion is
// shown when nothing matched.
func WriteHistory(w io.Writer, res *history.SearchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		if res.DidYouMean != "" {
			fmt.Fprintf(w, "Did you mean: %s\n", res.DidYouMean)
		}
		return nil
	}
	for _, r := range res.Records {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%s  %s  (%s, %d questions, %d videos)\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.FileName, r.SummaryType, len(r.Questions), r.VideoCount)
		fmt.Fprintf(w, "ID: %s\n", r.ID)
		if len(r.Keywords) > 0 {
			fmt.Fprintf(w, "Keywords: %s\n", strings.Join(r.Keywords, ", "))
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Summary, 200))
	}
	return nil
}

// Status is the shape of GET /api/v1/status and of `smartstudy status`.
type Status struct {
	Version        string         `json:"version"`
	History        *history.Stats `json:"history,omitempty"`
	Voices         int            `json:"voices"`
	BackendURL     string         `json:"backend_url"`
	VideoSearch    bool           `json:"video_search_enabled"`
	DatabasePath   string         `json:"database_path,omitempty"`
	BleveIndexPath string         `json:"bleve_index_path,omitempty"`
}

// WriteStatus writes s.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "version:            %s\n", s.Version)
	fmt.Fprintf(w, "backend_url:        %s\n", s.BackendURL)
	fmt.Fprintf(w, "video_search:       %t   # api key configured\n", s.VideoSearch)
	fmt.Fprintf(w, "voices:             %d\n", s.Voices)
	if s.History != nil {
		fmt.Fprintf(w, "sessions:           %d   # recorded runs\n", s.History.Records)
		fmt.Fprintf(w, "indexed:            %d   # searchable runs\n", s.History.Indexed)
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # history database + index\n", s.History.DiskBytes)
	} else {
		fmt.Fprintln(w, "history:            disabled")
	}
	if s.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", s.DatabasePath)
	}
	if s.BleveIndexPath != "" {
		fmt.Fprintf(w, "bleve_index_path:   %s\n", s.BleveIndexPath)
	}
	return nil
}

// WriteVoices lists voices, one per line.
func WriteVoices(w io.Writer, voices []models.Voice, format OutputFormat) error {
	if format == OutputJSON {
		if voices == nil {
			voices = []models.Voice{}
		}
		return writeJSON(w, voices)
	}
	for _, v := range voices {
		def := ""
		if v.Default {
			def = " (default)"
		}
		fmt.Fprintf(w, "%-12s %s%s\n", v.Language, v.Name, def)
	}
	return nil
}

// Notifier prints notices to a writer, typically stderr.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNotifier returns a Notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Notify prints n on its own line.
func (n *Notifier) Notify(notice models.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix := ""
	if notice.Kind == models.NoticeError {
		prefix = "error: "
	}
	fmt.Fprintf(n.w, "%s%s\n", prefix, notice.Message)
}
