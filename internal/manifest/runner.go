package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tabulensis/fixturegen/internal/generators"
)

// Status is the outcome of one scenario.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result records what happened to one scenario.
type Result struct {
	ID        string        `json:"id"`
	Generator string        `json:"generator"`
	Outputs   []string      `json:"outputs"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Stack     string        `json:"-"`
	Duration  time.Duration `json:"duration_ns"`
}

// Summary is the outcome of a whole run.
type Summary struct {
	Results   []Result `json:"results"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusOK:
		s.Generated++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Runner executes manifest scenarios one after another. A failing scenario
// is reported and the run continues with the next one.
type Runner struct {
	Registry     *generators.Registry
	Env          generators.Env
	OutputDir    string
	Force        bool
	Verbose      bool
	Interpolator *Interpolator

	// Logger receives warnings, failures and stack traces.
	Logger *log.Logger
	// Out receives one status line per scenario.
	Out io.Writer
	// OnStart, when set, is called before every scenario with its index.
	OnStart func(index int, id string)
	// OnResult, when set, is called after every scenario.
	OnResult func(Result)
}

// NewRunner creates a runner over reg that writes into outputDir.
func NewRunner(reg *generators.Registry, outputDir string) *Runner {
	return &Runner{
		Registry:  reg,
		OutputDir: outputDir,
		Logger:    log.New(os.Stderr, "[fixtures] ", log.LstdFlags),
		Out:       os.Stdout,
	}
}

// Run executes every scenario of m. The returned error is non-nil only when
// the output directory cannot be created or ctx is cancelled between
// scenarios; scenario failures are recorded in the summary.
func (r *Runner) Run(ctx context.Context, m *Manifest) (*Summary, error) {
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", r.OutputDir, err)
	}
	interp := r.Interpolator
	if interp == nil {
		interp = NewInterpolator(nil)
	}

	summary := &Summary{}
	for i, s := range m.Scenarios {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if r.Verbose {
			r.Logger.Printf("[%d/%d] %s (%s)", i+1, len(m.Scenarios), s.Label(i), s.Generator)
		}
		if r.OnStart != nil {
			r.OnStart(i, s.Label(i))
		}
		res := r.runScenario(interp, i, s)
		r.report(res)
		summary.add(res)
		if r.OnResult != nil {
			r.OnResult(res)
		}
	}
	return summary, nil
}

func (r *Runner) runScenario(interp *Interpolator, idx int, s Scenario) Result {
	res := Result{ID: s.Label(idx), Generator: s.Generator, Outputs: s.Output}

	if _, ok := r.Registry.Lookup(s.Generator); !ok {
		res.Status = StatusSkipped
		res.Message = fmt.Sprintf("unknown generator '%s'", s.Generator)
		return res
	}

	if existing := r.existingOutputs(s.Output); len(existing) > 0 && !r.Force {
		res.Status = StatusSkipped
		res.Message = fmt.Sprintf("outputs already exist: %s: use --force to overwrite", strings.Join(existing, ", "))
		return res
	}

	start := time.Now()
	stack, err := r.generate(interp, s)
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = StatusFailed
		res.Message = err.Error()
		res.Stack = stack
		return res
	}
	res.Status = StatusOK
	return res
}

// generate runs one scenario, turning a generator panic into an error with
// the panicking goroutine's stack.
func (r *Runner) generate(interp *Interpolator, s Scenario) (stack string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("generator %s panicked: %v", s.Generator, p)
			stack = string(debug.Stack())
		}
	}()

	args, err := interp.Args(s)
	if err != nil {
		return "", err
	}
	return "", r.Registry.Run(s.Generator, args, r.Env, r.OutputDir, s.Output)
}

func (r *Runner) existingOutputs(names []string) []string {
	var existing []string
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(r.OutputDir, filepath.FromSlash(name))); err == nil {
			existing = append(existing, name)
		}
	}
	return existing
}

func (r *Runner) report(res Result) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	out := r.Out
	if out == nil {
		out = io.Discard
	}
	switch res.Status {
	case StatusOK:
		fmt.Fprintf(out, "%s %s -> %s\n", green("OK  "), res.ID, strings.Join(res.Outputs, ", "))
		if r.Verbose {
			r.Logger.Printf("%s completed in %s", res.ID, res.Duration.Round(time.Millisecond))
		}
	case StatusSkipped:
		fmt.Fprintf(out, "%s %s: %s\n", yellow("WARN"), res.ID, res.Message)
		r.Logger.Printf("skipping scenario %s: %s", res.ID, res.Message)
	case StatusFailed:
		fmt.Fprintf(out, "%s %s: %s\n", red("FAIL"), res.ID, res.Message)
		r.Logger.Printf("scenario %s failed: %s", res.ID, res.Message)
		if res.Stack != "" {
			r.Logger.Printf("stack for %s:\n%s", res.ID, res.Stack)
		}
	}
}

// ErrRefuseClean is returned when asked to clean a filesystem root.
var ErrRefuseClean = errors.New("refusing to clean root directory")

// CleanOutputDir removes everything inside dir, leaving dir itself. A missing
// dir is not an error.
func CleanOutputDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("could not resolve %s: %w", dir, err)
	}
	if filepath.Dir(abs) == abs {
		return fmt.Errorf("%w: %s", ErrRefuseClean, abs)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read output directory %s: %w", abs, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(abs, e.Name())); err != nil {
			return fmt.Errorf("could not remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
