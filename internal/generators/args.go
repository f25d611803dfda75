package generators

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Args are a scenario's generator arguments as decoded from YAML.
type Args map[string]any

// argReader decodes Args for one generator and keeps the first error, so
// constructors can read every argument and check once.
type argReader struct {
	gen  string
	args Args
	err  error
}

func newArgReader(gen string, args Args) *argReader {
	return &argReader{gen: gen, args: args}
}

// Err returns the first decoding error.
func (a *argReader) Err() error { return a.err }

func (a *argReader) fail(format string, v ...any) {
	if a.err == nil {
		a.err = contractf(a.gen, format, v...)
	}
}

func (a *argReader) has(key string) bool {
	v, ok := a.args[key]
	return ok && v != nil
}

func (a *argReader) Int(key string, def int) int {
	if !a.has(key) {
		return def
	}
	n, ok := toInt(a.args[key])
	if !ok {
		a.fail("%s generator arg '%s' must be an integer, got %v", a.gen, key, a.args[key])
		return def
	}
	return n
}

// Positive is Int with a > 0 check.
func (a *argReader) Positive(key string, def int) int {
	n := a.Int(key, def)
	if n <= 0 {
		a.fail("%s generator arg '%s' must be > 0", a.gen, key)
	}
	return n
}

// OptionalInt returns nil when key is absent.
func (a *argReader) OptionalInt(key string) *int {
	if !a.has(key) {
		return nil
	}
	n := a.Int(key, 0)
	return &n
}

func (a *argReader) Int64(key string, def int64) int64 {
	return int64(a.Int(key, int(def)))
}

func (a *argReader) Bool(key string, def bool) bool {
	if !a.has(key) {
		return def
	}
	switch v := a.args[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
	case int:
		return v != 0
	}
	a.fail("%s generator arg '%s' must be a boolean, got %v", a.gen, key, a.args[key])
	return def
}

// String returns scalars formatted as text.
func (a *argReader) String(key, def string) string {
	if !a.has(key) {
		return def
	}
	switch v := a.args[key].(type) {
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	a.fail("%s generator arg '%s' must be a string", a.gen, key)
	return def
}

// Required is String for arguments without a default.
func (a *argReader) Required(key string) string {
	if !a.has(key) {
		a.fail("%s generator requires '%s' argument", a.gen, key)
		return ""
	}
	s := a.String(key, "")
	if strings.TrimSpace(s) == "" {
		a.fail("%s generator requires '%s' argument", a.gen, key)
	}
	return s
}

// Value returns the raw value, or def when absent.
func (a *argReader) Value(key string, def any) any {
	if !a.has(key) {
		return def
	}
	return a.args[key]
}

// Mode returns the key's value when it is one of allowed.
func (a *argReader) Mode(key, def string, allowed ...string) string {
	m := a.String(key, def)
	for _, s := range allowed {
		if m == s {
			return m
		}
	}
	a.fail("unsupported %s mode: %s (expected one of %s)", a.gen, m, strings.Join(allowed, ", "))
	return m
}

// Decode converts the value at key into out through a YAML round trip, so
// nested lists and mappings decode into typed structs.
func (a *argReader) Decode(key string, out any) {
	if !a.has(key) {
		return
	}
	raw, err := yaml.Marshal(a.args[key])
	if err == nil {
		err = yaml.Unmarshal(raw, out)
	}
	if err != nil {
		a.fail("%s generator arg '%s' is malformed: %v", a.gen, key, err)
	}
}

// Cell validates an A1 reference argument.
func (a *argReader) Cell(key, def string) string {
	ref := strings.ToUpper(strings.TrimSpace(a.String(key, def)))
	if _, _, err := parseRef(ref); err != nil {
		a.fail("%s generator arg '%s' is not a cell reference: %q", a.gen, key, ref)
	}
	return ref
}

// Check records cond as a contract failure.
func (a *argReader) Check(cond bool, format string, v ...any) {
	if !cond {
		a.fail(format, v...)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return i, true
		}
	}
	return 0, false
}
