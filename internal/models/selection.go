// Package models defines the session entities shared by the pipeline, the CLI and the HTTP API.
package models

import (
	"fmt"
	"strings"
)

// SummaryType is the requested summary verbosity sent as summary_type on upload.
type SummaryType string

const (
	SummaryShort SummaryType = "short"
	SummaryLong  SummaryType = "long"
)

// ParseSummaryType accepts "short" or "long" (case-insensitive, surrounding space ignored).
// An empty string yields SummaryShort.
func ParseSummaryType(s string) (SummaryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SummaryShort):
		return SummaryShort, nil
	case string(SummaryLong):
		return SummaryLong, nil
	default:
		return "", fmt.Errorf("invalid summary type %q: use short or long", s)
	}
}

// UploadSelection is the pending file chosen by the user. Content is sent as-is;
// no type or size validation is performed.
type UploadSelection struct {
	FileName    string      `json:"file_name"`
	Content     []byte      `json:"-"`
	SummaryType SummaryType `json:"summary_type"`
}

// Preview is a local, best-effort look at a selected file.
type Preview struct {
	MIMEType  string `json:"mime_type,omitempty"`
	WordCount int    `json:"word_count"`
	Snippet   string `json:"snippet,omitempty"`
}
