package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/smartstudy/internal/models"
	"go.uber.org/zap"
)

const espeakVoicesOutput = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-gb           --/M      English_(Great_Britain) gmw/en
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
 5  fr-fr           --/M      French_(France)    roa/fr               (fr 5)
`

type fakeExecutor struct {
	mu      sync.Mutex
	out     string
	err     error
	started [][]string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return f.out, f.err
}

func (f *fakeExecutor) Start(name string, args ...string) (<-chan error, error) {
	f.mu.Lock()
	f.started = append(f.started, append([]string{name}, args...))
	f.mu.Unlock()
	done := make(chan error, 1)
	done <- nil
	close(done)
	return done, nil
}

type staticLister struct {
	voices []models.Voice
	calls  int
	mu     sync.Mutex
}

func (s *staticLister) ListVoices(ctx context.Context) ([]models.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.voices, nil
}

func (s *staticLister) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestParseEspeakVoices(t *testing.T) {
	got := parseEspeakVoices(espeakVoicesOutput)
	want := []models.Voice{
		{Name: "gmw/af", Language: "af"},
		{Name: "gmw/en", Language: "en-gb"},
		{Name: "gmw/en-US", Language: "en-us"},
		{Name: "roa/fr", Language: "fr-fr"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseEspeakVoices() = %+v, want %+v", got, want)
	}
}

func TestCatalog_Find(t *testing.T) {
	c := NewCatalog(&staticLister{})
	c.Replace([]models.Voice{
		{Name: "gmw/en-US", Language: "en-us"},
		{Name: "roa/fr", Language: "fr-fr"},
	})
	tests := []struct {
		tag      string
		wantName string
		wantOK   bool
	}{
		{"en-US", "gmw/en-US", true},
		{"en_us", "gmw/en-US", true},
		{"en", "gmw/en-US", true},
		{"fr-CA", "roa/fr", true},
		{"de-DE", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			v, ok := c.Find(tt.tag)
			if ok != tt.wantOK || v.Name != tt.wantName {
				t.Errorf("Find(%q) = %+v, %v; want %q, %v", tt.tag, v, ok, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestSpeaker_Speak(t *testing.T) {
	exec := &fakeExecutor{}
	engine := NewEspeak("espeak-ng", exec)
	catalog := NewCatalog(&staticLister{})
	catalog.Replace([]models.Voice{{Name: "gmw/en-US", Language: "en-us"}})
	s := NewSpeaker(catalog, engine, 1.2, zap.NewNop())

	if err := s.Speak(context.Background(), "Hello there", "en-US"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if err := s.Speak(context.Background(), "Bonjour", "fr-FR"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	exec.mu.Lock()
	defer exec.mu.Unlock()
	want := [][]string{
		{"espeak-ng", "-v", "gmw/en-US", "-s", "210", "--", "Hello there"},
		{"espeak-ng", "-s", "210", "--", "Bonjour"},
	}
	if !reflect.DeepEqual(exec.started, want) {
		t.Errorf("started = %v, want %v", exec.started, want)
	}
}

func TestSpeaker_SpeakUnmatchedTagUsesDefaultVoice(t *testing.T) {
	exec := &fakeExecutor{out: espeakVoicesOutput}
	engine := NewEspeak("espeak-ng", exec)
	catalog := NewCatalog(engine)
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := NewSpeaker(catalog, engine, 1, zap.NewNop())

	if err := s.Speak(context.Background(), "hello", "xx-YY"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	exec.mu.Lock()
	defer exec.mu.Unlock()
	want := [][]string{{"espeak-ng", "-s", "175", "--", "hello"}}
	if !reflect.DeepEqual(exec.started, want) {
		t.Errorf("started = %v, want %v", exec.started, want)
	}
}

func TestSpeaker_SpeakEmpty(t *testing.T) {
	s := NewSpeaker(NewCatalog(&staticLister{}), NewEspeak("espeak-ng", &fakeExecutor{}), 1, nil)
	if err := s.Speak(context.Background(), "   ", "en"); err == nil {
		t.Error("expected error for blank text")
	}
}

func TestCatalog_LoadError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("not installed")}
	c := NewCatalog(NewEspeak("espeak-ng", exec))
	if err := c.Load(context.Background()); err == nil {
		t.Error("expected error")
	}
	if len(c.Voices()) != 0 {
		t.Error("voices should stay empty")
	}
}

func TestWatchVoices_refreshOnChange(t *testing.T) {
	dir := t.TempDir()
	lister := &staticLister{voices: []models.Voice{{Name: "v", Language: "en"}}}
	catalog := NewCatalog(lister)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := WatchVoices(ctx, catalog, dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "new-voice"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for lister.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if lister.callCount() == 0 {
		t.Fatal("catalog was not refreshed")
	}
	if len(catalog.Voices()) != 1 {
		t.Errorf("voices = %v", catalog.Voices())
	}
}
