package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/smartstudy/internal/watcher"
	"go.uber.org/zap"
)

// Speaker resolves voices from an injected Catalog and hands utterances to an Engine.
type Speaker struct {
	catalog *Catalog
	engine  Engine
	rate    float64
	logger  *zap.Logger
}

// NewSpeaker returns a Speaker. rate 1.0 is normal speed.
func NewSpeaker(catalog *Catalog, engine Engine, rate float64, logger *zap.Logger) *Speaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Speaker{catalog: catalog, engine: engine, rate: rate, logger: logger}
}

// Speak starts speaking text in languageTag and returns immediately. Earlier
// utterances are not cancelled; overlap is up to the engine.
func (s *Speaker) Speak(ctx context.Context, text, languageTag string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to speak")
	}
	u := Utterance{Text: text, Language: languageTag, Rate: s.rate}
	if v, ok := s.catalog.Find(languageTag); ok {
		u.Voice = v.Name
	} else {
		s.logger.Debug("no voice for language, using engine default", zap.String("lang", languageTag))
	}
	done, err := s.engine.Speak(u)
	if err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	go func() {
		if err := <-done; err != nil {
			s.logger.Warn("speech playback failed", zap.Error(err))
		}
	}()
	return nil
}

// Catalog returns the injected voice catalog.
func (s *Speaker) Catalog() *Catalog {
	return s.catalog
}

// WatchVoices refreshes catalog whenever files under dir change (voices installed or
// removed). The returned watcher stops when ctx is cancelled.
func WatchVoices(ctx context.Context, catalog *Catalog, dir string, logger *zap.Logger) (*watcher.Watcher, error) {
	refresh := func(path string) {
		if err := catalog.Refresh(ctx); err != nil {
			logger.Warn("voice refresh failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("voices refreshed", zap.Int("count", len(catalog.Voices())))
	}
	w := watcher.NewWatcher([]string{dir}, nil, refresh, watcher.WithRemoveHandler(refresh))
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("watch voices dir: %w", err)
	}
	return w, nil
}
