package watch

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func quiet(w *Watcher) *Watcher {
	w.Logger = log.New(io.Discard, "", 0)
	return w
}

func startWatcher(t *testing.T, config WatchConfig, handler Handler) (*Watcher, context.CancelFunc) {
	t.Helper()
	w, err := New(config)
	if err != nil {
		t.Fatal(err)
	}
	quiet(w)
	w.Handler = handler

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to start
	time.Sleep(100 * time.Millisecond)
	return w, cancel
}

func TestNewWatcher(t *testing.T) {
	w, err := New(WatchConfig{
		Paths:    []string{t.TempDir()},
		Debounce: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if w == nil {
		t.Fatal("expected non-nil watcher")
	}
	w.watcher.Close()
}

func TestDefaultDebounce(t *testing.T) {
	w, _ := New(WatchConfig{Debounce: 0})
	defer w.watcher.Close()

	if w.Config.Debounce != DefaultDebounce {
		t.Errorf("expected default debounce %d, got %d", DefaultDebounce, w.Config.Debounce)
	}
}

func TestStartMissingPath(t *testing.T) {
	w, _ := New(WatchConfig{Paths: []string{filepath.Join(t.TempDir(), "missing")}})
	quiet(w)
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error for a missing path")
	}
}

func TestWatchedFileTriggersHandler(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(manifest, []byte("scenarios: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := make(chan []string, 4)
	startWatcher(t, WatchConfig{Paths: []string{manifest}, Debounce: 50}, func(_ context.Context, changed []string) error {
		calls <- changed
		return nil
	})

	// A sibling of the watched file is not relevant.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(manifest, []byte("scenarios: [] # edited\n"), 0644)

	select {
	case changed := <-calls:
		if len(changed) != 1 || changed[0] != manifest {
			t.Errorf("expected [%s], got %v", manifest, changed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler call")
	}
}

func TestBurstIsDebounced(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	got := make(chan []string, 4)
	startWatcher(t, WatchConfig{Paths: []string{dir}, Debounce: 150}, func(_ context.Context, changed []string) error {
		calls.Add(1)
		got <- changed
		return nil
	})

	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")
	os.WriteFile(a, []byte("1"), 0644)
	os.WriteFile(b, []byte("2"), 0644)
	os.WriteFile(a, []byte("3"), 0644)

	select {
	case changed := <-got:
		if len(changed) != 2 || changed[0] != a || changed[1] != b {
			t.Errorf("expected sorted [a b], got %v", changed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler call")
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one handler call, got %d", n)
	}
}

func TestIgnoredAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "generated")
	if err := os.MkdirAll(out, 0755); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	startWatcher(t, WatchConfig{Paths: []string{dir}, Recursive: true, Ignore: []string{out}, Debounce: 50}, func(context.Context, []string) error {
		calls.Add(1)
		return nil
	})

	os.WriteFile(filepath.Join(out, "grid.xlsx"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "~$lock.xlsx"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "base.xlsx.tmp.123"), []byte("x"), 0644)
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("handler should not run for ignored or temp files, ran %d time(s)", n)
	}
}

func TestRecursiveWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	got := make(chan []string, 8)
	startWatcher(t, WatchConfig{Paths: []string{dir}, Recursive: true, Debounce: 50}, func(_ context.Context, changed []string) error {
		got <- changed
		return nil
	})

	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Drain the directory creation run.
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for directory event")
	}

	target := filepath.Join(sub, "t.xlsx")
	os.WriteFile(target, []byte("x"), 0644)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case changed := <-got:
			for _, p := range changed {
				if p == target {
					return
				}
			}
		case <-deadline:
			t.Fatal("timeout waiting for nested file event")
		}
	}
}

func TestTriggerRecordsEvents(t *testing.T) {
	w, _ := New(WatchConfig{Paths: []string{"fixtures/manifest.yaml"}})
	defer w.watcher.Close()
	quiet(w)

	w.Handler = func(context.Context, []string) error { return errors.New("boom") }
	w.Trigger(context.Background(), "initial")
	w.Handler = nil
	w.Trigger(context.Background(), "again")

	events := w.GetEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Status != "error" || events[0].Error != "boom" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Status != "processed" {
		t.Errorf("unexpected second event: %+v", events[1])
	}

	status := w.GetStatus()
	if !status.Running || status.EventCount != 2 || len(status.Paths) != 1 {
		t.Errorf("unexpected status: %+v", status)
	}
}
