// Package progress draws scenario progress for manifest runs on stderr.
// Nothing is drawn unless stderr is a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Bar tracks a manifest run: which scenario is being generated, how many
// have finished, and how each one ended.
type Bar struct {
	Total   int
	Width   int
	Enabled bool
	// Out defaults to stderr.
	Out io.Writer

	mu      sync.Mutex
	done    int
	current string
	counts  map[string]int
}

// New creates a bar for a manifest of total scenarios.
func New(total int) *Bar {
	return &Bar{
		Total:   total,
		Width:   30,
		Enabled: shouldEnable(),
		counts:  make(map[string]int),
	}
}

func (b *Bar) out() io.Writer {
	if b.Out != nil {
		return b.Out
	}
	return os.Stderr
}

// Begin marks the scenario at index as running.
func (b *Bar) Begin(index int, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done = clamp(index, b.Total)
	b.current = id
	b.draw()
}

// Record counts a finished scenario under status.
func (b *Bar) Record(id, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.counts == nil {
		b.counts = make(map[string]int)
	}
	b.counts[status]++
	b.done = clamp(b.done+1, b.Total)
	b.current = id + " " + status
	b.draw()
}

// Line returns the text the bar currently shows.
func (b *Bar) Line() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.line()
}

// Finish replaces the bar with a tally of scenario outcomes.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	fmt.Fprintf(b.out(), "\r\033[K%d/%d scenarios: %s\n", b.done, b.Total, b.tally())
}

func (b *Bar) line() string {
	filled := 0
	if b.Total > 0 {
		filled = b.done * b.Width / b.Total
	}
	return fmt.Sprintf("[%s%s] %d/%d %s",
		strings.Repeat("#", filled), strings.Repeat(".", b.Width-filled),
		b.done, b.Total, b.current)
}

func (b *Bar) tally() string {
	if len(b.counts) == 0 {
		return "none run"
	}
	statuses := make([]string, 0, len(b.counts))
	for s := range b.counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = fmt.Sprintf("%d %s", b.counts[s], s)
	}
	return strings.Join(parts, ", ")
}

func (b *Bar) draw() {
	if b.Enabled {
		fmt.Fprintf(b.out(), "\r\033[K%s", b.line())
	}
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}

var frames = []rune{'|', '/', '-', '\\'}

// Spinner animates a phase of unknown length, such as checksum
// verification.
type Spinner struct {
	Enabled bool
	// Out defaults to stderr.
	Out io.Writer

	mu    sync.Mutex
	phase string
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewSpinner creates a spinner showing phase.
func NewSpinner(phase string) *Spinner {
	return &Spinner{phase: phase, Enabled: shouldEnable()}
}

func (s *Spinner) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stderr
}

// Phase returns the text shown next to the spinner.
func (s *Spinner) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Update switches the spinner to a new phase.
func (s *Spinner) Update(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// Start animates until Stop is called.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out(), "\r\033[K%c %s", frames[i%len(frames)], s.phase)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and prints result in its place.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.wg.Wait()
	}
	if s.Enabled {
		fmt.Fprintf(s.out(), "\r\033[K%s\n", result)
	}
}

// shouldEnable reports whether stderr is a terminal and neither
// FIXTUREGEN_NO_PROGRESS nor JSON output turned progress off.
func shouldEnable() bool {
	if os.Getenv("FIXTUREGEN_NO_PROGRESS") == "1" || os.Getenv("FIXTUREGEN_JSON") == "true" {
		return false
	}
	info, err := os.Stderr.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
