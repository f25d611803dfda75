// Package generators builds fixture artifacts. Each named generator turns a
// scenario's arguments into one or more files whose bytes depend only on
// those arguments and the templates they reference.
package generators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tabulensis/fixturegen/internal/artifact"
)

// ErrContract marks wrong output arity, missing or malformed arguments, and
// unsupported modes.
var ErrContract = errors.New("generator contract violated")

// ErrUnknown is returned for names that are not registered.
var ErrUnknown = errors.New("unknown generator")

// ContractError reports a contract violation by a named generator.
type ContractError struct {
	Generator string
	Msg       string
}

func (e *ContractError) Error() string { return e.Msg }

// Unwrap lets callers match the error with errors.Is(err, ErrContract).
func (e *ContractError) Unwrap() error { return ErrContract }

func contractf(generator, format string, a ...any) error {
	return &ContractError{Generator: generator, Msg: fmt.Sprintf(format, a...)}
}

// Generator builds the artifacts of one scenario. Outputs are the declared
// file names in order; the returned files carry those names.
type Generator interface {
	Generate(outputs []string) ([]artifact.File, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(outputs []string) ([]artifact.File, error)

// Generate calls f.
func (f GeneratorFunc) Generate(outputs []string) ([]artifact.File, error) { return f(outputs) }

// Env carries what generators need from their surroundings.
type Env struct {
	// FixturesRoot is the fallback directory for template and base files.
	FixturesRoot string
}

// Constructor decodes args into a configured generator.
type Constructor func(args Args, env Env) (Generator, error)

// Spec describes a registered generator.
type Spec struct {
	Name        string
	Arity       Arity
	Description string
	New         Constructor
}

// Registry maps generator names to their specs. It is filled once and then
// only read.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds spec, replacing any generator of the same name.
func (r *Registry) Register(spec Spec) {
	r.specs[spec.Name] = spec
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build validates the output count and constructs the generator.
func (r *Registry) Build(name string, args Args, env Env, outputs []string) (Generator, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	if err := spec.Arity.Check(name, len(outputs)); err != nil {
		return nil, err
	}
	if args == nil {
		args = Args{}
	}
	return spec.New(args, env)
}

// Run builds the named generator, generates its artifacts, and commits them
// into dir. Nothing is written when any step fails.
func (r *Registry) Run(name string, args Args, env Env, dir string, outputs []string) error {
	g, err := r.Build(name, args, env, outputs)
	if err != nil {
		return err
	}
	files, err := g.Generate(outputs)
	if err != nil {
		return err
	}
	return artifact.Commit(dir, files)
}

// Arity bounds the number of outputs a generator accepts. Max 0 means no
// upper bound.
type Arity struct {
	Min int
	Max int
}

var (
	// One is a generator with exactly one output.
	One = Arity{Min: 1, Max: 1}
	// Pair is a generator with exactly two outputs, A then B.
	Pair = Arity{Min: 2, Max: 2}
	// Each writes the same artifact to every output.
	Each = Arity{Min: 1}
	// OneOrPair accepts a single B output or an A, B pair.
	OneOrPair = Arity{Min: 1, Max: 2}
)

var numberWords = map[int]string{1: "one", 2: "two"}

// Check returns a ContractError when n outputs violate the arity.
func (a Arity) Check(generator string, n int) error {
	if n >= a.Min && (a.Max == 0 || n <= a.Max) {
		return nil
	}
	switch {
	case a.Min == a.Max && a.Min == 1:
		return contractf(generator, "%s generator expects exactly one output filename", generator)
	case a.Min == a.Max:
		return contractf(generator, "%s generator expects exactly %s output filenames", generator, word(a.Min))
	case a.Max == 0:
		return contractf(generator, "%s generator expects at least %s output filename(s)", generator, word(a.Min))
	default:
		return contractf(generator, "%s generator expects %s to %s output filenames", generator, word(a.Min), word(a.Max))
	}
}

func (a Arity) String() string {
	switch {
	case a.Min == a.Max:
		return fmt.Sprint(a.Min)
	case a.Max == 0:
		return fmt.Sprintf("%d+", a.Min)
	default:
		return fmt.Sprintf("%d-%d", a.Min, a.Max)
	}
}

func word(n int) string {
	if w, ok := numberWords[n]; ok {
		return w
	}
	return fmt.Sprint(n)
}
