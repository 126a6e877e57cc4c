package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/backend"
	"github.com/hyperjump/smartstudy/internal/cli"
	"github.com/hyperjump/smartstudy/internal/config"
	"github.com/hyperjump/smartstudy/internal/export"
	"github.com/hyperjump/smartstudy/internal/extract"
	"github.com/hyperjump/smartstudy/internal/history"
	"github.com/hyperjump/smartstudy/internal/pipeline"
	"github.com/hyperjump/smartstudy/internal/speech"
	"github.com/hyperjump/smartstudy/internal/videosearch"
	"github.com/hyperjump/smartstudy/pkg/executor"
)

// Components holds initialized services.
type Components struct {
	Config    *config.Config
	Logger    *zap.Logger
	Backend   *backend.Client
	Videos    *videosearch.Client
	Catalog   *speech.Catalog
	Speaker   *speech.Speaker
	Exporter  *export.Exporter
	Extractor *extract.Extractor
	History   *history.Recorder
}

// Close releases storage handles.
func (c *Components) Close() {
	if c.History != nil {
		if err := c.History.Close(); err != nil {
			c.Logger.Warn("history close failed", zap.Error(err))
		}
	}
}

// initializeComponents wires every collaborator from cfg. The voice catalog is
// loaded once here; a missing speech engine leaves it empty.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{
		Config:    cfg,
		Logger:    logger,
		Backend:   backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, backend.WithLogger(logger)),
		Exporter:  export.NewExporter(cfg.Export.Title, cfg.Export.WrapColumn),
		Extractor: extract.NewExtractor(),
	}

	if cfg.VideoSearch.Enabled() {
		c.Videos = videosearch.NewClient(cfg.VideoSearch.BaseURL, cfg.VideoSearch.APIKey, cfg.VideoSearch.Timeout)
	} else {
		logger.Info("video search disabled: no api key configured",
			zap.String("env", config.VideoAPIKeyEnv))
	}

	engine := speech.NewEspeak(cfg.Speech.Command, executor.New())
	c.Catalog = speech.NewCatalog(engine)
	if err := c.Catalog.Load(ctx); err != nil {
		logger.Warn("voice catalog unavailable", zap.String("command", cfg.Speech.Command), zap.Error(err))
	}
	c.Speaker = speech.NewSpeaker(c.Catalog, engine, cfg.Speech.Rate, logger)

	if cfg.Storage.Enabled {
		rec, err := openHistory(cfg, logger)
		if err != nil {
			return nil, err
		}
		c.History = rec
	}
	return c, nil
}

func openHistory(cfg *config.Config, logger *zap.Logger) (*history.Recorder, error) {
	store, err := history.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history storage: %w", err)
	}
	idx, err := history.NewBleveIndex(cfg.Storage.BleveIndexPath, history.WithFuzziness(1))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize history index: %w", err)
	}
	return history.NewRecorder(store, idx,
		history.WithLogger(logger),
		history.WithDiskPaths(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath),
	), nil
}

// newApp builds a session over c. Optional collaborators are only attached when
// configured so that nil pointers never reach the pipeline as non-nil interfaces.
func (c *Components) newApp(opts ...pipeline.Option) *pipeline.App {
	base := []pipeline.Option{
		pipeline.WithLogger(c.Logger),
		pipeline.WithExporter(c.Exporter),
		pipeline.WithPreviewer(c.Extractor),
		pipeline.WithVideoFailurePolicy(pipeline.VideoFailurePolicy(c.Config.VideoSearch.FailurePolicy)),
		pipeline.WithMaxVideos(c.Config.VideoSearch.MaxResults),
	}
	if c.Speaker != nil {
		base = append(base, pipeline.WithSpeaker(c.Speaker))
	}
	if c.Videos != nil {
		base = append(base, pipeline.WithVideoSearcher(c.Videos))
	}
	if c.History != nil {
		base = append(base, pipeline.WithRecorder(c.History))
	}
	return pipeline.New(c.Backend, c.Backend, append(base, opts...)...)
}

// status collects the report shared by `smartstudy status` and GET /api/v1/status.
func (c *Components) status(ctx context.Context) (*cli.Status, error) {
	s := &cli.Status{
		Version:     version,
		BackendURL:  c.Config.Backend.BaseURL,
		VideoSearch: c.Videos != nil,
	}
	if c.Catalog != nil {
		s.Voices = len(c.Catalog.Voices())
	}
	if c.History != nil {
		stats, err := c.History.Stats(ctx)
		if err != nil {
			return nil, err
		}
		s.History = stats
		s.DatabasePath = c.Config.Storage.DatabasePath
		s.BleveIndexPath = c.Config.Storage.BleveIndexPath
	}
	return s, nil
}

var errHistoryDisabled = errors.New("history is disabled; set storage.enabled: true in the config")
