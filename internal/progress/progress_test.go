package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestProgressOffWhenDisabledByEnv(t *testing.T) {
	t.Setenv("FIXTUREGEN_NO_PROGRESS", "1")
	if New(5).Enabled {
		t.Error("bar enabled with FIXTUREGEN_NO_PROGRESS=1")
	}
	if NewSpinner("checksums").Enabled {
		t.Error("spinner enabled with FIXTUREGEN_NO_PROGRESS=1")
	}
}

func TestProgressOffForJSONRuns(t *testing.T) {
	t.Setenv("FIXTUREGEN_JSON", "true")
	if New(5).Enabled {
		t.Error("bar enabled during a --json run")
	}
}

func TestBarFollowsManifestRun(t *testing.T) {
	bar := &Bar{Total: 4, Width: 8}
	bar.Begin(0, "grid")
	if got := bar.Line(); got != "[........] 0/4 grid" {
		t.Errorf("Line() = %q", got)
	}
	bar.Record("grid", "ok")
	bar.Begin(1, "pad")
	bar.Record("pad", "ok")
	bar.Begin(2, "ghost")
	bar.Record("ghost", "skipped")
	if got := bar.Line(); got != "[######..] 3/4 ghost skipped" {
		t.Errorf("Line() = %q", got)
	}
	if got := bar.tally(); got != "2 ok, 1 skipped" {
		t.Errorf("tally() = %q", got)
	}
}

func TestBarNeverPassesTotal(t *testing.T) {
	bar := &Bar{Total: 2, Width: 4}
	for _, id := range []string{"a", "b", "c"} {
		bar.Record(id, "ok")
	}
	bar.Begin(7, "late")
	if got := bar.Line(); got != "[####] 2/2 late" {
		t.Errorf("Line() = %q", got)
	}
}

func TestBarWithoutScenarios(t *testing.T) {
	bar := &Bar{Total: 0, Width: 4}
	if got := bar.Line(); got != "[....] 0/0 " {
		t.Errorf("Line() = %q", got)
	}
	if got := bar.tally(); got != "none run" {
		t.Errorf("tally() = %q", got)
	}
}

func TestEnabledBarWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 2, Width: 4, Enabled: true, Out: &buf}
	bar.Begin(0, "charts")
	bar.Record("charts", "failed")
	bar.Finish()

	out := buf.String()
	if !strings.Contains(out, "0/2 charts") {
		t.Errorf("missing running line in %q", out)
	}
	if !strings.HasSuffix(out, "1/2 scenarios: 1 failed\n") {
		t.Errorf("unexpected finish line in %q", out)
	}
}

func TestDisabledBarIsSilent(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 1, Width: 4, Out: &buf}
	bar.Begin(0, "grid")
	bar.Record("grid", "ok")
	bar.Finish()
	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}

func TestSpinnerSwitchesPhase(t *testing.T) {
	var buf syncBuffer
	s := &Spinner{phase: "opening outputs", Enabled: true, Out: &buf}
	s.Start()
	s.Update("checksums against fixtures.lock.json")
	if got := s.Phase(); got != "checksums against fixtures.lock.json" {
		t.Errorf("Phase() = %q", got)
	}
	time.Sleep(250 * time.Millisecond)
	s.Stop("checked 3 output(s)")

	out := buf.String()
	if !strings.Contains(out, "checksums against fixtures.lock.json") {
		t.Errorf("spinner never drew the new phase: %q", out)
	}
	if !strings.HasSuffix(out, "checked 3 output(s)\n") {
		t.Errorf("unexpected stop line in %q", out)
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf syncBuffer
	s := &Spinner{phase: "checksums", Out: &buf}
	s.Stop("done")
	s.Stop("done")
	if buf.String() != "" {
		t.Errorf("disabled spinner wrote %q", buf.String())
	}
}

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
