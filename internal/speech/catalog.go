// Package speech speaks text through the host text-to-speech engine.
package speech

import (
	"context"
	"strings"
	"sync"

	"github.com/hyperjump/smartstudy/internal/models"
)

// VoiceLister enumerates the voices the platform offers.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]models.Voice, error)
}

// Catalog is the loaded voice list. Load it once at startup and call Refresh
// whenever the platform reports a change.
type Catalog struct {
	lister VoiceLister
	mu     sync.RWMutex
	voices []models.Voice
}

// NewCatalog returns an empty catalog backed by lister.
func NewCatalog(lister VoiceLister) *Catalog {
	return &Catalog{lister: lister}
}

// Load replaces the voice list with the platform's current one.
func (c *Catalog) Load(ctx context.Context) error {
	voices, err := c.lister.ListVoices(ctx)
	if err != nil {
		return err
	}
	c.Replace(voices)
	return nil
}

// Refresh is Load under the name used by change notifications.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// Replace sets the voice list directly.
func (c *Catalog) Replace(voices []models.Voice) {
	c.mu.Lock()
	c.voices = append([]models.Voice(nil), voices...)
	c.mu.Unlock()
}

// Voices returns a copy of the loaded voices.
func (c *Catalog) Voices() []models.Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Voice(nil), c.voices...)
}

// Find returns the voice for languageTag. An exact tag match wins; otherwise the
// first voice sharing the primary subtag ("en" for "en-GB") is used.
func (c *Catalog) Find(languageTag string) (models.Voice, bool) {
	want := normalizeTag(languageTag)
	if want == "" {
		return models.Voice{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if normalizeTag(v.Language) == want {
			return v, true
		}
	}
	primary := primarySubtag(want)
	for _, v := range c.voices {
		if primarySubtag(normalizeTag(v.Language)) == primary {
			return v, true
		}
	}
	return models.Voice{}, false
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

func primarySubtag(tag string) string {
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		return tag[:i]
	}
	return tag
}
