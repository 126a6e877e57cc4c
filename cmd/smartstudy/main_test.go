package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/backend"
	"github.com/hyperjump/smartstudy/internal/config"
	"github.com/hyperjump/smartstudy/internal/export"
	"github.com/hyperjump/smartstudy/internal/extract"
	"github.com/hyperjump/smartstudy/internal/models"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after file are moved first",
			args:     []string{"lecture.pdf", "-summary", "long"},
			expected: []string{"-summary", "long", "lecture.pdf"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-summary", "long", "lecture.pdf"},
			expected: []string{"-summary", "long", "lecture.pdf"},
		},
		{
			name:     "positional only returns unchanged",
			args:     []string{"photosynthesis"},
			expected: []string{"photosynthesis"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"cell", "biology", "-limit", "5"},
			expected: []string{"-limit", "5", "cell", "biology"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"hello"}, "hello"},
		{"multiple words", []string{"hello", "world"}, "hello world"},
		{"single quoted phrase", []string{"hello world"}, "hello world"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := joinArgs(tt.args)
			if got != tt.expected {
				t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestReportPath(t *testing.T) {
	tests := []struct {
		file string
		ext  string
		want string
	}{
		{"/inbox/lecture.pdf", ".pdf", "/out/lecture.pdf"},
		{"notes.txt", ".pdf", "/out/notes.pdf"},
		{"archive.tar.gz", ".docx", "/out/archive.tar.docx"},
		{".pdf", ".pdf", "/out/study-notes.pdf"},
	}
	for _, tt := range tests {
		if got := reportPath("/out", tt.file, tt.ext); got != tt.want {
			t.Errorf("reportPath(%q, %q) = %q, want %q", tt.file, tt.ext, got, tt.want)
		}
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
backend:
  base_url: "http://127.0.0.1:5001"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:5001" {
		t.Errorf("backend = %q", cfg.Backend.BaseURL)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.VideoSearch.FailurePolicy != config.FailureSilent {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("expected error when file exists without force")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("force overwrite: %v", err)
	}
}

func newTestComponents(t *testing.T, backendURL string) *Components {
	t.Helper()
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	cfg.Backend.BaseURL = backendURL
	return &Components{
		Config:    &cfg,
		Logger:    zap.NewNop(),
		Backend:   backend.NewClient(backendURL, 0),
		Exporter:  export.NewExporter(cfg.Export.Title, cfg.Export.WrapColumn),
		Extractor: extract.NewExtractor(),
	}
}

func TestInboxProcess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			_ = json.NewEncoder(w).Encode(models.AnalysisResult{Summary: "Plants make sugar.", FullText: "Photosynthesis ..."})
		case "/result":
			_ = json.NewEncoder(w).Encode(models.QAResult{
				Questions: []string{"What do plants make?"},
				Answers:   []string{"Sugar."},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := filepath.Join(dir, "biology.txt")
	if err := os.WriteFile(src, []byte("Photosynthesis converts light."), 0644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "reports")
	in := newInbox(newTestComponents(t, srv.URL), outDir, models.SummaryShort)

	got := in.process(context.Background(), src)
	want := filepath.Join(outDir, "biology.pdf")
	if got != want {
		t.Fatalf("process() = %q, want %q", got, want)
	}
	info, err := os.Stat(want)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("report is empty")
	}
}

func TestInboxProcess_BackendFailureWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(src, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "reports")
	in := newInbox(newTestComponents(t, srv.URL), outDir, models.SummaryShort)

	if got := in.process(context.Background(), src); got != "" {
		t.Errorf("process() = %q, want no report", got)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("reports dir should not exist, stat err = %v", err)
	}
	if got := in.process(context.Background(), filepath.Join(dir, "missing.txt")); got != "" {
		t.Errorf("missing file should yield no report, got %q", got)
	}
}

func TestComponentsStatus_HistoryDisabled(t *testing.T) {
	c := newTestComponents(t, "http://127.0.0.1:5000")
	st, err := c.status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.History != nil || st.DatabasePath != "" {
		t.Errorf("history should be absent: %+v", st)
	}
	if st.VideoSearch {
		t.Error("video search should be off without a key")
	}
	if st.BackendURL != "http://127.0.0.1:5000" || st.Version != version {
		t.Errorf("unexpected status: %+v", st)
	}
}
