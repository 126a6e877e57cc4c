package pipeline

import (
	"context"
	"io"

	"github.com/hyperjump/smartstudy/internal/models"
)

// Uploader sends a selected document for summarization.
type Uploader interface {
	Upload(ctx context.Context, sel models.UploadSelection) (*models.AnalysisResult, error)
}

// Analyzer generates questions, answers and keywords from a summarized document.
type Analyzer interface {
	Result(ctx context.Context, fullText, summary string) (*models.QAResult, error)
}

// VideoSearcher finds videos related to a keyword query.
type VideoSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Video, error)
}

// Speaker starts speaking text without waiting for playback to finish.
type Speaker interface {
	Speak(ctx context.Context, text, languageTag string) error
}

// Exporter renders a session snapshot.
type Exporter interface {
	PDF(w io.Writer, state *models.SessionState) error
	DOCX(path string, state *models.SessionState) error
}

// Previewer inspects a selected file locally. It must not fail.
type Previewer interface {
	Preview(fileName string, content []byte) *models.Preview
}

// Recorder keeps finished runs.
type Recorder interface {
	Record(ctx context.Context, rec *models.SessionRecord) error
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n models.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(models.Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n models.Notice) { f(n) }
