package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()

	var changed []string
	var mu sync.Mutex
	onChange := func(path string) {
		mu.Lock()
		changed = append(changed, path)
		mu.Unlock()
	}
	w := NewWatcher([]string{dir}, []string{".pdf"}, onChange, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	pdfPath := filepath.Join(dir, "notes.pdf")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(pdfPath, []byte("chunk"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changed) != 1 {
		t.Fatalf("expected one debounced callback, got %v", changed)
	}
	if changed[0] != pdfPath {
		t.Errorf("changed = %s, want %s", changed[0], pdfPath)
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox")
	w := NewWatcher([]string{root}, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.pdf", "c.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0755); err != nil {
		t.Fatal(err)
	}
	var got []string
	w := NewWatcher([]string{dir}, []string{".txt", "pdf"}, func(path string) {
		got = append(got, filepath.Base(path))
	})
	w.SyncExistingFiles()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a.txt" || got[1] != "b.pdf" {
		t.Errorf("synced = %v", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, nil)
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestWatcher_Wants(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/inbox/notes.pdf", []string{".pdf"}, true},
		{"/inbox/.notes.pdf", []string{".pdf"}, false},
		{"/inbox/~$notes.docx", []string{".docx"}, false},
		{"/inbox/notes.pdf.part", nil, false},
		{"/inbox/video.crdownload", nil, false},
		{"/inbox/scratch.tmp", []string{".tmp"}, true},
		{"/voices/en-us", nil, true},
	}
	for _, tt := range tests {
		w := NewWatcher(nil, tt.extensions, nil)
		if got := w.wants(tt.path); got != tt.want {
			t.Errorf("wants(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestWatcher_RemoveHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	removed := make(chan string, 1)
	w := NewWatcher([]string{dir}, []string{".txt"}, nil,
		WithDebounce(50*time.Millisecond),
		WithRemoveHandler(func(p string) {
			select {
			case removed <- p:
			default:
			}
		}))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-removed:
		if got != path {
			t.Errorf("removed %s, want %s", got, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("remove handler not called")
	}
}

func TestWatcher_SyncSkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lecture.pdf", ".lecture.pdf", "~$draft.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	w := NewWatcher([]string{dir}, []string{".pdf"}, func(path string) {
		got = append(got, filepath.Base(path))
	})
	w.SyncExistingFiles()
	if len(got) != 1 || got[0] != "lecture.pdf" {
		t.Errorf("synced = %v", got)
	}
}
