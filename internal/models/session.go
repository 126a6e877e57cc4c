package models

import "time"

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// Notice is a message surfaced to the user (the alert of a browser client).
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// SessionState is a point-in-time snapshot of a client session.
type SessionState struct {
	ID          string          `json:"id,omitempty"`
	FileName    string          `json:"file_name,omitempty"`
	Preview     *Preview        `json:"preview,omitempty"`
	SummaryType SummaryType     `json:"summary_type"`
	Analysis    *AnalysisResult `json:"analysis,omitempty"`
	QA          *QAResult       `json:"qa,omitempty"`
	Videos      []Video         `json:"videos,omitempty"`
	UploadBusy  bool            `json:"upload_busy"`
	QABusy      bool            `json:"qa_busy"`
	Notices     []Notice        `json:"notices,omitempty"`
}

// Summary returns the current summary text, or "".
func (s *SessionState) Summary() string {
	if s == nil || s.Analysis == nil {
		return ""
	}
	return s.Analysis.Summary
}

// SessionRecord is a finished pipeline run kept in history.
type SessionRecord struct {
	ID          string      `json:"id"`
	FileName    string      `json:"file_name"`
	ContentID   string      `json:"content_id"`
	SummaryType SummaryType `json:"summary_type"`
	Summary     string      `json:"summary"`
	Questions   []string    `json:"questions"`
	Answers     []string    `json:"answers"`
	Keywords    []string    `json:"keywords"`
	VideoCount  int         `json:"video_count"`
	CreatedAt   time.Time   `json:"created_at"`
}
