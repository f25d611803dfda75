package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/tabulensis/fixturegen/internal/generators"
)

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+?)\s*\}\}`)

// Interpolator evaluates ${{ expression }} placeholders in scenario
// arguments. Expressions see a single variable, env, holding the process
// environment.
type Interpolator struct {
	vars map[string]any
}

// NewInterpolator builds an interpolator over environ, in os.Environ form.
// A nil environ uses the process environment.
func NewInterpolator(environ []string) *Interpolator {
	if environ == nil {
		environ = os.Environ()
	}
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return &Interpolator{vars: map[string]any{"env": env}}
}

// Args returns a copy of args with every string value interpolated, walking
// nested lists and mappings. A string that is exactly one placeholder takes
// the expression's typed result, so `rows: "${{ 10 * 2 }}"` yields 20.
func (in *Interpolator) Args(s Scenario) (generators.Args, error) {
	if len(s.Args) == 0 {
		return s.Args, nil
	}
	out := make(generators.Args, len(s.Args))
	for k, v := range s.Args {
		resolved, err := in.value(v)
		if err != nil {
			return nil, &generators.ContractError{
				Generator: s.Generator,
				Msg:       fmt.Sprintf("%s generator arg '%s': %v", s.Generator, k, err),
			}
		}
		out[k] = resolved
	}
	return out, nil
}

func (in *Interpolator) value(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return in.String(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			r, err := in.value(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			r, err := in.value(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	}
	return v, nil
}

// String interpolates s. The result is a string unless s is a single
// placeholder.
func (in *Interpolator) String(s string) (any, error) {
	if !strings.Contains(s, "${{") {
		return s, nil
	}
	if m := interpolationPattern.FindStringSubmatchIndex(s); m != nil && m[0] == 0 && m[1] == len(s) {
		return in.eval(s[m[2]:m[3]])
	}

	var evalErr error
	out := interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		v, err := in.eval(inner[1])
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return match
		}
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return out, nil
}

func (in *Interpolator) eval(code string) (any, error) {
	program, err := expr.Compile(code, expr.Env(in.vars))
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", code, err)
	}
	result, err := expr.Run(program, in.vars)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", code, err)
	}
	return result, nil
}
