package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tabulensis/fixturegen/internal/generators"
)

// FileArgKeys are the scenario arguments that name input files.
var FileArgKeys = []string{"template", "base_file", "model_schema_file"}

// Report collects preflight findings. Errors abort the run; warnings do not.
type Report struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) errorf(format string, a ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

// Err returns nil when there are no errors, otherwise an ErrConfig listing
// them.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: preflight failed:\n  %s", ErrConfig, strings.Join(r.Errors, "\n  "))
}

// Options locate the files a manifest reads and writes.
type Options struct {
	Registry     *generators.Registry
	OutputDir    string
	FixturesRoot string
	Interpolator *Interpolator
}

func (o Options) interpolator() *Interpolator {
	if o.Interpolator != nil {
		return o.Interpolator
	}
	return NewInterpolator(nil)
}

// Preflight checks the whole manifest before anything is generated.
func Preflight(m *Manifest, opts Options) *Report {
	r := &Report{}
	outputs := make(map[string]string)
	outputIndex := make(map[string]int)
	ids := make(map[string]int)

	for i, s := range m.Scenarios {
		label := s.Label(i)
		if s.ID == "" || s.Generator == "" || len(s.Output) == 0 {
			r.errorf("Scenario %s is missing id, generator, or output.", label)
			continue
		}
		if prev, ok := ids[s.ID]; ok {
			r.errorf("Scenario id '%s' is duplicated at indexes %d and %d.", s.ID, prev, i)
		} else {
			ids[s.ID] = i
		}
		if opts.Registry != nil {
			if _, ok := opts.Registry.Lookup(s.Generator); !ok {
				r.Warnings = append(r.Warnings, fmt.Sprintf("Scenario %s uses unknown generator '%s'; it will be skipped.", label, s.Generator))
			}
		}
		for _, name := range s.Output {
			if prev, ok := outputs[name]; ok {
				r.errorf("Output '%s' is duplicated in scenarios %s and %s.", name, prev, label)
				continue
			}
			outputs[name] = label
			outputIndex[name] = i
		}
	}

	interp := opts.interpolator()
	for i, s := range m.Scenarios {
		label := s.Label(i)
		args, err := interp.Args(s)
		if err != nil {
			r.errorf("Scenario %s: %v", label, err)
			continue
		}
		for _, key := range FileArgKeys {
			v, ok := args[key]
			if !ok || v == nil || v == "" {
				continue
			}
			value, isString := v.(string)
			if !isString {
				r.errorf("Scenario %s arg '%s' must be a string.", label, key)
				continue
			}

			if key == "base_file" {
				if dep, ok := generatedDependency(value); ok {
					if idx, declared := outputIndex[dep]; declared {
						if idx >= i {
							r.errorf("Scenario %s depends on generated/%s but it is not produced earlier in the manifest.", label, dep)
						}
					} else if _, err := os.Stat(filepath.Join(opts.OutputDir, filepath.FromSlash(dep))); err != nil {
						r.errorf("Scenario %s depends on generated/%s but it is not produced by this manifest or present in the output dir.", label, dep)
					}
					continue
				}
			}
			if _, err := generators.ResolveFile(opts.FixturesRoot, value); err != nil {
				r.errorf("Scenario %s arg '%s' file '%s' not found.", label, key, value)
			}
		}
	}
	return r
}

// generatedDependency returns the part of p after its first "generated"
// directory component.
func generatedDependency(p string) (string, bool) {
	parts := strings.Split(path.Clean(filepath.ToSlash(p)), "/")
	for i, part := range parts {
		if part == "generated" && i+1 < len(parts) {
			return strings.Join(parts[i+1:], "/"), true
		}
	}
	return "", false
}
