package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/internal/pipeline"
)

// inbox analyzes files dropped into the watched directory, one at a time, and
// writes a PDF report for each.
type inbox struct {
	mu          sync.Mutex
	newApp      func(opts ...pipeline.Option) *pipeline.App
	outDir      string
	summaryType models.SummaryType
	logger      *zap.Logger
}

func newInbox(c *Components, outDir string, summaryType models.SummaryType) *inbox {
	return &inbox{newApp: c.newApp, outDir: outDir, summaryType: summaryType, logger: c.Logger}
}

// process runs the pipeline for path and returns the written report path, or "".
func (in *inbox) process(ctx context.Context, path string) string {
	in.mu.Lock()
	defer in.mu.Unlock()

	log := in.logger.With(zap.String("path", path))
	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn("inbox read failed", zap.Error(err))
		return ""
	}
	notices := pipeline.NotifierFunc(func(n models.Notice) {
		log.Warn("inbox notice", zap.String("message", n.Message))
	})
	app := in.newApp(pipeline.WithNotifier(notices))
	app.SelectFile(models.UploadSelection{FileName: filepath.Base(path), Content: content, SummaryType: in.summaryType})
	if _, err := app.SubmitUpload(ctx); err != nil {
		log.Warn("inbox analyze failed", zap.Error(err))
		return ""
	}
	if app.State().Summary() == "" {
		return ""
	}
	out := reportPath(in.outDir, path, ".pdf")
	if err := exportPDF(app, out); err != nil {
		log.Warn("inbox report failed", zap.Error(err))
		return ""
	}
	log.Info("report written", zap.String("report", out))
	return out
}
