// Package history persists finished study sessions and makes them searchable.
package history

import (
	"context"
	"errors"

	"github.com/hyperjump/smartstudy/internal/models"
)

// ErrNotFound is returned when a record ID is unknown.
var ErrNotFound = errors.New("record not found")

// Store defines session record persistence.
type Store interface {
	CreateRecord(ctx context.Context, rec *models.SessionRecord) error
	GetRecord(ctx context.Context, id string) (*models.SessionRecord, error)
	ListRecords(ctx context.Context, offset, limit int) ([]*models.SessionRecord, error)
	CountRecords(ctx context.Context) (int64, error)
	Close() error
}

// Index defines full-text search over session records.
type Index interface {
	Index(ctx context.Context, rec *models.SessionRecord) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Terms() ([]string, error)
	Close() error
}

// Hit is a single search match.
type Hit struct {
	ID    string
	Score float64
}
