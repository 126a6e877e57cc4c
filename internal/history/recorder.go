package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/models"
)

// Recorder writes session records to a Store and keeps an Index in step.
type Recorder struct {
	store  Store
	index  Index
	paths  []string
	logger *zap.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDiskPaths sets the paths summed by Stats.
func WithDiskPaths(paths ...string) RecorderOption {
	return func(r *Recorder) {
		r.paths = paths
	}
}

// NewRecorder returns a Recorder over store and index.
func NewRecorder(store Store, index Index, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, index: index, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists rec and indexes it. A failed index write rolls nothing back;
// the record stays listable and the error is returned.
func (r *Recorder) Record(ctx context.Context, rec *models.SessionRecord) error {
	if err := r.store.CreateRecord(ctx, rec); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	if err := r.index.Index(ctx, rec); err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	r.logger.Debug("session recorded",
		zap.String("id", rec.ID),
		zap.String("file", rec.FileName),
		zap.Int("questions", len(rec.Questions)))
	return nil
}

// Get returns the record with id.
func (r *Recorder) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	return r.store.GetRecord(ctx, id)
}

// List returns up to limit records, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]*models.SessionRecord, error) {
	return r.store.ListRecords(ctx, 0, limit)
}

// SearchResult holds matching records and an optional spelling correction.
type SearchResult struct {
	Records    []*models.SessionRecord `json:"records"`
	DidYouMean string                  `json:"did_you_mean,omitempty"`
}

// Search finds records matching query. When nothing matches, DidYouMean
// carries a corrected query built from indexed terms.
func (r *Recorder) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	hits, err := r.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Records: make([]*models.SessionRecord, 0, len(hits))}
	for _, h := range hits {
		rec, err := r.store.GetRecord(ctx, h.ID)
		if errors.Is(err, ErrNotFound) {
			r.logger.Warn("indexed record missing from store", zap.String("id", h.ID))
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Records = append(res.Records, rec)
	}
	if len(res.Records) == 0 {
		terms, err := r.index.Terms()
		if err != nil {
			r.logger.Debug("term dictionary unavailable", zap.Error(err))
		} else {
			res.DidYouMean = Suggest(query, terms)
		}
	}
	return res, nil
}

// Stats summarizes what history holds.
type Stats struct {
	Records   int64  `json:"records"`
	Indexed   uint64 `json:"indexed"`
	DiskBytes int64  `json:"disk_bytes"`
}

// Stats reports record counts and disk usage.
func (r *Recorder) Stats(ctx context.Context) (*Stats, error) {
	n, err := r.store.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	indexed, err := r.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count indexed: %w", err)
	}
	disk, err := DiskUsageBytes(r.paths...)
	if err != nil {
		return nil, fmt.Errorf("disk usage: %w", err)
	}
	return &Stats{Records: n, Indexed: indexed, DiskBytes: disk}, nil
}

// Close closes the index and the store.
func (r *Recorder) Close() error {
	return errors.Join(r.index.Close(), r.store.Close())
}
