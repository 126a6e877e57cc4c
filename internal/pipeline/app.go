// Package pipeline owns a study session: the selected file, the analysis results
// and the sequential upload → result → video search run that produces them.
package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/fileid"
	"github.com/hyperjump/smartstudy/internal/models"
)

var (
	// ErrNoFileSelected is returned by SubmitUpload before any file is selected.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrUploadBusy is returned by SubmitUpload while an upload is in flight.
	ErrUploadBusy = errors.New("upload already in progress")
	// ErrNothingToExport is returned by the export operations while the summary is empty.
	ErrNothingToExport = errors.New("nothing to export: summary is empty")
	// ErrSpeechUnavailable is returned by Speak when no speaker is configured.
	ErrSpeechUnavailable = errors.New("speech output is not configured")
	// ErrExportUnavailable is returned by the export operations when no exporter is configured.
	ErrExportUnavailable = errors.New("export is not configured")
)

// User-facing notice texts.
const (
	MsgSelectFile  = "Please select a file"
	MsgUploadError = "Error uploading file. Check logs for details."
	MsgResultError = "Error generating questions. Check logs for details."
	MsgVideoError  = "Error loading related videos. Check logs for details."
)

// VideoFailurePolicy decides whether video search failures reach the user.
type VideoFailurePolicy string

const (
	// VideoFailureSilent logs video search failures only.
	VideoFailureSilent VideoFailurePolicy = "silent"
	// VideoFailureNotify also adds an error notice.
	VideoFailureNotify VideoFailurePolicy = "notify"
)

// DefaultMaxVideos is the number of videos requested per search.
const DefaultMaxVideos = 5

// App is one client session. All methods are safe for concurrent use; a run
// started by SubmitUpload executes its steps one after another on the calling goroutine.
type App struct {
	id        string
	uploader  Uploader
	analyzer  Analyzer
	videos    VideoSearcher
	speaker   Speaker
	exporter  Exporter
	previewer Previewer
	recorder  Recorder
	notifier  Notifier
	policy    VideoFailurePolicy
	maxVideos int
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	selection   *models.UploadSelection
	preview     *models.Preview
	summaryType models.SummaryType
	analysis    *models.AnalysisResult
	qa          *models.QAResult
	videoList   []models.Video
	uploadBusy  bool
	qaBusy      bool
	generation  uint64
	notices     []models.Notice
}

// Option configures an App.
type Option func(*App)

// WithID sets the session ID reported in State.
func WithID(id string) Option {
	return func(a *App) { a.id = id }
}

// WithVideoSearcher enables the video search step. Without it the step is skipped.
func WithVideoSearcher(v VideoSearcher) Option {
	return func(a *App) { a.videos = v }
}

// WithSpeaker enables Speak.
func WithSpeaker(s Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithExporter enables ExportPDF and ExportDOCX.
func WithExporter(e Exporter) Option {
	return func(a *App) { a.exporter = e }
}

// WithPreviewer attaches a local preview to each selection.
func WithPreviewer(p Previewer) Option {
	return func(a *App) { a.previewer = p }
}

// WithRecorder keeps every finished run.
func WithRecorder(r Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithNotifier receives every notice as it is raised.
func WithNotifier(n Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithVideoFailurePolicy sets the video search failure policy. Unknown values mean silent.
func WithVideoFailurePolicy(p VideoFailurePolicy) Option {
	return func(a *App) {
		if p != VideoFailureNotify {
			p = VideoFailureSilent
		}
		a.policy = p
	}
}

// WithMaxVideos sets how many videos to request. Values <= 0 are ignored.
func WithMaxVideos(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.maxVideos = n
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns a session with no file selected and a short summary requested.
func New(uploader Uploader, analyzer Analyzer, opts ...Option) *App {
	a := &App{
		uploader:    uploader,
		analyzer:    analyzer,
		policy:      VideoFailureSilent,
		maxVideos:   DefaultMaxVideos,
		logger:      zap.NewNop(),
		now:         time.Now,
		summaryType: models.SummaryShort,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SelectFile stores sel as the pending selection. Any content is accepted. A
// non-empty sel.SummaryType also replaces the requested summary type.
func (a *App) SelectFile(sel models.UploadSelection) {
	var preview *models.Preview
	if a.previewer != nil {
		preview = a.previewer.Preview(sel.FileName, sel.Content)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selection = &models.UploadSelection{FileName: sel.FileName, Content: sel.Content}
	a.preview = preview
	if sel.SummaryType != "" {
		a.summaryType = sel.SummaryType
	}
	a.logger.Debug("file selected", zap.String("file", sel.FileName), zap.Int("bytes", len(sel.Content)))
}

// SetSummaryType sets the summary length sent with the next upload.
func (a *App) SetSummaryType(t models.SummaryType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaryType = t
}

// SubmitUpload runs the pipeline for the selected file and returns once every
// reachable step has finished. Collaborator failures are reported through
// notices and the Outcome, not the returned error.
func (a *App) SubmitUpload(ctx context.Context) (*Outcome, error) {
	gen, sel, err := a.begin()
	if err != nil {
		return nil, err
	}
	return a.run(ctx, gen, sel), nil
}

// StartUpload checks the same preconditions as SubmitUpload, resets the session
// synchronously, and runs the pipeline on a new goroutine. The channel receives
// the Outcome and is then closed.
func (a *App) StartUpload(ctx context.Context) (<-chan *Outcome, error) {
	gen, sel, err := a.begin()
	if err != nil {
		return nil, err
	}
	done := make(chan *Outcome, 1)
	go func() {
		defer close(done)
		done <- a.run(ctx, gen, sel)
	}()
	return done, nil
}

// begin validates the selection, clears prior results and marks the upload busy.
func (a *App) begin() (uint64, models.UploadSelection, error) {
	a.mu.Lock()
	if a.selection == nil {
		a.mu.Unlock()
		a.notify(models.NoticeError, MsgSelectFile)
		return 0, models.UploadSelection{}, ErrNoFileSelected
	}
	if a.uploadBusy {
		a.mu.Unlock()
		return 0, models.UploadSelection{}, ErrUploadBusy
	}
	a.generation++
	a.analysis = nil
	a.qa = nil
	a.videoList = nil
	a.qaBusy = false
	a.uploadBusy = true
	sel := *a.selection
	sel.SummaryType = a.summaryType
	gen := a.generation
	a.mu.Unlock()
	return gen, sel, nil
}

func (a *App) run(ctx context.Context, gen uint64, sel models.UploadSelection) *Outcome {
	out := &Outcome{Generation: gen}
	log := a.logger.With(zap.Uint64("generation", gen), zap.String("file", sel.FileName))

	analysis, ok := a.uploadStep(ctx, gen, sel, out, log)
	if !ok {
		return out
	}
	qa, ok := a.resultStep(ctx, gen, analysis, out, log)
	var videos []models.Video
	if ok {
		videos = a.videoStep(ctx, gen, qa, out, log)
	}
	if !out.Stale {
		a.record(ctx, gen, sel, analysis, qa, videos, log)
	}
	return out
}

func (a *App) uploadStep(ctx context.Context, gen uint64, sel models.UploadSelection, out *Outcome, log *zap.Logger) (*models.AnalysisResult, bool) {
	log.Info("uploading", zap.String("summary_type", string(sel.SummaryType)))
	analysis, err := a.uploader.Upload(ctx, sel)

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		out.Stale = true
		return nil, false
	}
	a.uploadBusy = false
	if err != nil {
		a.mu.Unlock()
		log.Error("upload failed", zap.Error(err))
		out.add(StageUpload, StatusFailed, err)
		a.notify(models.NoticeError, MsgUploadError)
		return nil, false
	}
	if analysis == nil {
		analysis = &models.AnalysisResult{}
	}
	a.analysis = analysis
	a.mu.Unlock()
	out.add(StageUpload, StatusOK, nil)
	return analysis, true
}

func (a *App) resultStep(ctx context.Context, gen uint64, analysis *models.AnalysisResult, out *Outcome, log *zap.Logger) (*models.QAResult, bool) {
	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		out.Stale = true
		return nil, false
	}
	a.qaBusy = true
	a.mu.Unlock()

	qa, err := a.analyzer.Result(ctx, analysis.FullText, analysis.Summary)

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		log.Debug("discarding stale result")
		out.Stale = true
		return nil, false
	}
	a.qaBusy = false
	if err == nil && qa == nil {
		qa = &models.QAResult{}
	}
	if err != nil {
		a.mu.Unlock()
		log.Error("result failed", zap.Error(err))
		out.add(StageResult, StatusFailed, err)
		a.notify(models.NoticeError, MsgResultError)
		return nil, false
	}
	a.qa = qa
	a.mu.Unlock()
	if len(qa.Questions) != len(qa.Answers) {
		log.Warn("questions and answers differ in length",
			zap.Int("questions", len(qa.Questions)), zap.Int("answers", len(qa.Answers)))
	}
	out.add(StageResult, StatusOK, nil)
	return qa, true
}

func (a *App) videoStep(ctx context.Context, gen uint64, qa *models.QAResult, out *Outcome, log *zap.Logger) []models.Video {
	query := qa.KeywordQuery()
	if query == "" || a.videos == nil {
		out.add(StageVideoSearch, StatusSkipped, nil)
		return nil
	}

	videos, err := a.videos.Search(ctx, query, a.maxVideos)

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		log.Debug("discarding stale videos")
		out.Stale = true
		return nil
	}
	if err != nil {
		a.mu.Unlock()
		log.Warn("video search failed", zap.String("query", query), zap.Error(err))
		out.add(StageVideoSearch, StatusFailed, err)
		if a.policy == VideoFailureNotify {
			a.notify(models.NoticeError, MsgVideoError)
		}
		return nil
	}
	a.videoList = videos
	a.mu.Unlock()
	out.add(StageVideoSearch, StatusOK, nil)
	return videos
}

// record stores what this run produced. Nothing is written once a newer
// upload has started.
func (a *App) record(ctx context.Context, gen uint64, sel models.UploadSelection, analysis *models.AnalysisResult, qa *models.QAResult, videos []models.Video, log *zap.Logger) {
	if a.recorder == nil {
		return
	}
	a.mu.Lock()
	current := gen == a.generation
	a.mu.Unlock()
	if !current {
		log.Debug("skipping history for superseded run")
		return
	}
	rec := &models.SessionRecord{
		ID:          uuid.NewString(),
		FileName:    sel.FileName,
		ContentID:   fileid.ContentID(sel.Content),
		SummaryType: sel.SummaryType,
		Summary:     analysis.Summary,
		VideoCount:  len(videos),
		CreatedAt:   a.now(),
	}
	if qa != nil {
		rec.Questions = qa.Questions
		rec.Answers = qa.Answers
		rec.Keywords = qa.Keywords
	}
	if err := a.recorder.Record(ctx, rec); err != nil {
		log.Warn("failed to record session", zap.Error(err))
	}
}

// Speak reads text aloud in languageTag.
func (a *App) Speak(ctx context.Context, text, languageTag string) error {
	if a.speaker == nil {
		return ErrSpeechUnavailable
	}
	return a.speaker.Speak(ctx, text, languageTag)
}

// ExportPDF writes the current summary and Q&A pairs to w.
func (a *App) ExportPDF(w io.Writer) error {
	state, err := a.exportable()
	if err != nil {
		return err
	}
	return a.exporter.PDF(w, state)
}

// ExportDOCX saves the current summary and Q&A pairs as a Word document.
func (a *App) ExportDOCX(path string) error {
	state, err := a.exportable()
	if err != nil {
		return err
	}
	return a.exporter.DOCX(path, state)
}

func (a *App) exportable() (*models.SessionState, error) {
	if a.exporter == nil {
		return nil, ErrExportUnavailable
	}
	state := a.State()
	if state.Summary() == "" {
		return nil, ErrNothingToExport
	}
	return state, nil
}

// Busy reports whether an upload or result request is in flight.
func (a *App) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploadBusy || a.qaBusy
}

// State returns a snapshot of the session.
func (a *App) State() *models.SessionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &models.SessionState{
		ID:          a.id,
		SummaryType: a.summaryType,
		UploadBusy:  a.uploadBusy,
		QABusy:      a.qaBusy,
	}
	if a.selection != nil {
		s.FileName = a.selection.FileName
	}
	if a.preview != nil {
		p := *a.preview
		s.Preview = &p
	}
	if a.analysis != nil {
		an := *a.analysis
		s.Analysis = &an
	}
	if a.qa != nil {
		s.QA = &models.QAResult{
			Questions: append([]string(nil), a.qa.Questions...),
			Answers:   append([]string(nil), a.qa.Answers...),
			Keywords:  append([]string(nil), a.qa.Keywords...),
		}
	}
	s.Videos = append([]models.Video(nil), a.videoList...)
	s.Notices = append([]models.Notice(nil), a.notices...)
	return s
}

// notify records a notice and forwards it. It must be called without a.mu held.
func (a *App) notify(kind models.NoticeKind, msg string) {
	n := models.Notice{Kind: kind, Message: msg, At: a.now()}
	a.mu.Lock()
	a.notices = append(a.notices, n)
	a.mu.Unlock()
	if a.notifier != nil {
		a.notifier.Notify(n)
	}
}
