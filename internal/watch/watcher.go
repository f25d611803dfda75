// Package watch re-runs fixture generation when its inputs change.
// It monitors the manifest file and template directories and calls a handler
// once per burst of file events.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when WatchConfig.Debounce is not positive.
const DefaultDebounce = 500

// WatchConfig holds the complete watcher configuration.
type WatchConfig struct {
	// Paths are files or directories. A file is matched by name inside its
	// parent directory so editors that replace files are still seen.
	Paths     []string `json:"paths"`
	Recursive bool     `json:"recursive"`
	Debounce  int      `json:"debounceMs"` // Milliseconds to wait before processing
	// Ignore lists directories whose events never trigger a run, typically
	// the output directory.
	Ignore []string `json:"ignore,omitempty"`
}

// Event records one handler invocation.
type Event struct {
	Time    time.Time `json:"time"`
	Paths   []string  `json:"paths"`
	Status  string    `json:"status"` // "processed", "error"
	Error   string    `json:"error,omitempty"`
	Elapsed string    `json:"elapsed,omitempty"`
}

// Handler is called with the changed paths, sorted, after the debounce
// interval. Calls never overlap.
type Handler func(ctx context.Context, changed []string) error

// Watcher monitors paths for changes and triggers a handler.
type Watcher struct {
	Config  WatchConfig
	Logger  *log.Logger
	Events  []Event
	Handler Handler

	mu      sync.Mutex
	runMu   sync.Mutex
	watcher *fsnotify.Watcher
	files   map[string]bool
	dirs    map[string]bool
	ignore  []string
	pending map[string]bool
	timer   *time.Timer
	ctx     context.Context
}

// Status represents the current watcher status.
type Status struct {
	Running    bool     `json:"running"`
	Paths      []string `json:"paths"`
	EventCount int      `json:"eventCount"`
}

// New creates a new Watcher with the given configuration.
func New(config WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	w := &Watcher{
		Config:  config,
		Logger:  log.New(os.Stderr, "[watch] ", log.LstdFlags),
		watcher: fsw,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]bool),
		ctx:     context.Background(),
	}
	for _, dir := range config.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	return w, nil
}

// Start begins watching the configured paths. It blocks until the context is
// cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	for _, p := range w.Config.Paths {
		if err := w.add(p); err != nil {
			_ = w.watcher.Close()
			return err
		}
	}

	w.Logger.Printf("Watching %d path(s)", len(w.Config.Paths))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("Stopping watcher")
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) add(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("could not resolve %s: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", p, err)
	}

	if !info.IsDir() {
		parent := filepath.Dir(abs)
		if err := w.watcher.Add(parent); err != nil {
			return fmt.Errorf("could not watch %s: %w", parent, err)
		}
		w.files[abs] = true
		return nil
	}

	w.dirs[abs] = true
	if w.Config.Recursive {
		return w.addRecursive(abs)
	}
	if err := w.watcher.Add(abs); err != nil {
		return fmt.Errorf("could not watch %s: %w", abs, err)
	}
	return nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			if w.ignored(path) {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant reports whether path is a watched file or lies under a watched
// directory.
func (w *Watcher) relevant(path string) bool {
	if w.ignored(path) {
		return false
	}
	// Skip temp files
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") || strings.HasSuffix(base, "~") || strings.Contains(base, ".tmp.") {
		return false
	}
	if w.files[path] {
		return true
	}
	for dir := range w.dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			if !w.Config.Recursive && filepath.Dir(path) != dir {
				continue
			}
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.relevant(path) {
		return
	}
	if event.Has(fsnotify.Create) && w.Config.Recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.Logger.Printf("Error: could not watch %s: %v", path, err)
			}
		}
	}

	// Debounce: one run per burst of events
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	ctx := w.ctx
	w.mu.Unlock()

	if len(changed) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(changed)
	w.process(ctx, changed)
}

// Trigger runs the handler immediately for the given paths, as a change
// would. It is used for the initial run.
func (w *Watcher) Trigger(ctx context.Context, changed ...string) {
	w.process(ctx, changed)
}

func (w *Watcher) process(ctx context.Context, changed []string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	evt := Event{Time: time.Now(), Paths: changed}
	if w.Handler != nil {
		start := time.Now()
		if err := w.Handler(ctx, changed); err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Printf("Error processing %s: %v", strings.Join(changed, ", "), err)
		} else {
			evt.Status = "processed"
			w.Logger.Printf("Processed %d change(s)", len(changed))
		}
		evt.Elapsed = time.Since(start).Round(time.Millisecond).String()
	} else {
		evt.Status = "processed"
		w.Logger.Printf("Changed %s [no handler]", strings.Join(changed, ", "))
	}

	w.mu.Lock()
	w.Events = append(w.Events, evt)
	w.mu.Unlock()
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:    true,
		Paths:      w.Config.Paths,
		EventCount: len(w.Events),
	}
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.Events))
	copy(events, w.Events)
	return events
}
