package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/smartstudy/internal/models"
)

// Indexed fields.
const (
	fieldFileName  = "file_name"
	fieldSummary   = "summary"
	fieldQuestions = "questions"
	fieldKeywords  = "keywords"
)

var searchFields = []string{fieldFileName, fieldSummary, fieldQuestions, fieldKeywords}

// fieldBoost weights matches per field. Unlisted fields weigh 1.
var fieldBoost = map[string]float64{
	fieldFileName: 3,
	fieldKeywords: 2,
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index     bleve.Index
	fuzziness int
}

// BleveOption configures a BleveIndex.
type BleveOption func(*BleveIndex)

// WithFuzziness enables typo-tolerant matching up to the given edit distance (1 or 2).
func WithFuzziness(n int) BleveOption {
	return func(b *BleveIndex) {
		if n >= 0 && n <= 2 {
			b.fuzziness = n
		}
	}
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory so it is rebuilt.
func NewBleveIndex(path string, opts ...BleveOption) (*BleveIndex, error) {
	b := &BleveIndex{}
	for _, opt := range opts {
		opt(b)
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		b.index = index
		return b, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b.index = index
	return b, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// standard analyzer: lowercase and tokenize, no stemming
	text.Analyzer = standard.Name
	for _, f := range searchFields {
		docMapping.AddFieldMappingsAt(f, text)
	}
	im.AddDocumentMapping("session", docMapping)
	im.DefaultType = "session"
	im.DefaultMapping = docMapping
	return im
}

// Index adds or replaces rec in the index.
func (b *BleveIndex) Index(ctx context.Context, rec *models.SessionRecord) error {
	doc := map[string]interface{}{
		fieldFileName:  rec.FileName,
		fieldSummary:   rec.Summary,
		fieldQuestions: strings.Join(rec.Questions, "\n"),
		fieldKeywords:  strings.Join(rec.Keywords, " "),
	}
	return b.index.Index(rec.ID, doc)
}

// Search matches query against every indexed field and returns up to limit hits, best first.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(b.buildQuery(query))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make([]Hit, len(results.Hits))
	for i, h := range results.Hits {
		hits[i] = Hit{ID: h.ID, Score: h.Score}
	}
	return hits, nil
}

func (b *BleveIndex) buildQuery(query string) blevequery.Query {
	queries := make([]blevequery.Query, 0, len(searchFields))
	for _, f := range searchFields {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(f)
		if b.fuzziness > 0 {
			mq.SetFuzziness(b.fuzziness)
		}
		if boost, ok := fieldBoost[f]; ok {
			mq.SetBoost(boost)
		}
		queries = append(queries, mq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a record from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed records.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Terms returns every distinct term across the indexed fields.
func (b *BleveIndex) Terms() ([]string, error) {
	seen := make(map[string]struct{})
	var terms []string
	for _, f := range searchFields {
		dict, err := b.index.FieldDict(f)
		if err != nil {
			return nil, fmt.Errorf("field dictionary %s: %w", f, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				seen[entry.Term] = struct{}{}
				terms = append(terms, entry.Term)
			}
		}
		dict.Close()
	}
	return terms, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
