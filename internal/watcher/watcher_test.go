package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	ingested []string
	removed  []string
	ch       chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) onIngest(path string) {
	r.mu.Lock()
	r.ingested = append(r.ingested, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *recorder) onRemove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *recorder) wait(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-r.ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event on %s", want)
		}
	}
}

func (r *recorder) ingestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ingested)
}

func TestWatcher_IngestOnCreate(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := New([]string{dir}, []string{".txt"}, true, rec.onIngest, rec.onRemove,
		WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, path)
}

func TestWatcher_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := New([]string{dir}, []string{".txt", ".md"}, true, rec.onIngest, rec.onRemove,
		WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	skip := filepath.Join(dir, "binary.bin")
	keep := filepath.Join(dir, "notes.MD")
	if err := os.WriteFile(skip, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keep, []byte("y"), 0600); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, keep)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, p := range rec.ingested {
		if p == skip {
			t.Errorf("non-matching extension was ingested: %s", p)
		}
	}
}

func TestWatcher_RemoveEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	w := New([]string{dir}, []string{".txt"}, true, rec.onIngest, rec.onRemove,
		WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, path)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.removed) == 0 || rec.removed[0] != path {
		t.Errorf("removed: %v", rec.removed)
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(sub, "b.txt")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	rec := newRecorder()
	w := New([]string{dir}, []string{".txt"}, true, rec.onIngest, rec.onRemove)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.SyncExistingFiles()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.ingested) != 2 {
		t.Errorf("synced %v, want both existing files", rec.ingested)
	}
}

func TestWatcher_SyncNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "nested.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	w := New([]string{dir}, []string{".txt"}, false, rec.onIngest, rec.onRemove)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.SyncExistingFiles()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.ingested) != 1 || filepath.Base(rec.ingested[0]) != "top.txt" {
		t.Errorf("non-recursive sync ingested %v", rec.ingested)
	}
}

func TestWatcher_DebounceCollapsesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := New([]string{dir}, []string{".txt"}, true, rec.onIngest, rec.onRemove,
		WithDebounce(200*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "doc.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("write"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	rec.wait(t, path)
	time.Sleep(300 * time.Millisecond)
	if n := rec.ingestCount(); n != 1 {
		t.Errorf("burst of writes produced %d ingests, want 1", n)
	}
}

func TestWatcher_CreatesMissingRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	rec := newRecorder()
	w := New([]string{dir}, nil, true, rec.onIngest, rec.onRemove)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root was not created: %v", err)
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	rec := newRecorder()
	w := New([]string{t.TempDir()}, nil, true, rec.onIngest, rec.onRemove)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
