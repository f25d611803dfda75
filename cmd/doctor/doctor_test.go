package doctor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulensis/fixturegen/internal/config"
	"github.com/tabulensis/fixturegen/internal/generators"
)

func find(checks []Check, name string) []Check {
	var out []Check
	for _, c := range checks {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func TestRunChecksValidManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`scenarios:
  - id: grid
    generator: basic_grid
    args: {rows: 2, cols: 2}
    output: grid.xlsx
`), 0644))

	cfg := &config.Config{Manifest: path, OutputDir: filepath.Join(dir, "out"), FixturesRoot: dir}
	checks := RunChecks(cfg, generators.Default())

	assert.Equal(t, "Go Runtime", checks[0].Name)
	m := find(checks, "Manifest")
	require.Len(t, m, 1)
	assert.Equal(t, "ok", m[0].Status)
	assert.Contains(t, m[0].Message, "(1 scenarios)")

	pre := find(checks, "Preflight")
	require.Len(t, pre, 1)
	assert.Equal(t, "ok", pre[0].Status)

	gen := find(checks, "Generators")
	require.Len(t, gen, 1)
	assert.Contains(t, gen[0].Message, "registered")
}

func TestRunChecksReportsPreflightProblems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`scenarios:
  - id: a
    generator: basic_grid
    output: same.xlsx
  - id: b
    generator: basic_grid
    output: same.xlsx
  - id: c
    generator: no_such_generator
    output: c.xlsx
`), 0644))

	cfg := &config.Config{Manifest: path, OutputDir: filepath.Join(dir, "out"), FixturesRoot: dir}
	pre := find(RunChecks(cfg, generators.Default()), "Preflight")

	var statuses []string
	for _, c := range pre {
		statuses = append(statuses, c.Status)
	}
	assert.Contains(t, statuses, "error")
	assert.Contains(t, statuses, "warning")
}

func TestRunChecksMissingManifest(t *testing.T) {
	cfg := &config.Config{Manifest: filepath.Join(t.TempDir(), "absent.yaml")}
	checks := RunChecks(cfg, generators.Default())

	last := checks[len(checks)-1]
	assert.Equal(t, "Manifest", last.Name)
	assert.Equal(t, "error", last.Status)
	assert.Empty(t, find(checks, "Preflight"))
}

func TestPrintCountsErrors(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	n := Print(&buf, []Check{
		{Name: "Go Runtime", Status: "ok", Message: "go1.22"},
		{Name: "Config File", Status: "warning", Message: "not found"},
		{Name: "Manifest", Status: "error", Message: "bad yaml"},
	})
	assert.Equal(t, 1, n)
	out := buf.String()
	assert.Contains(t, out, "✓ Go Runtime: go1.22")
	assert.Contains(t, out, "! Config File: not found")
	assert.Contains(t, out, "✗ Manifest: bad yaml")
	assert.Contains(t, out, "1 passed, 1 warnings, 1 errors")
}
