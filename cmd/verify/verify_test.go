package verify

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
	"github.com/tabulensis/fixturegen/internal/manifest"
)

func setup(t *testing.T) *config.Config {
	t.Helper()
	color.NoColor = true
	t.Setenv("FIXTUREGEN_NO_PROGRESS", "1")

	dir := t.TempDir()
	p := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
scenarios:
  - {id: grid, generator: basic_grid, output: grid.xlsx}
  - {id: pair, generator: single_cell_diff, output: [a.xlsx, b.xlsx]}
`), 0644))

	out := filepath.Join(dir, "generated")
	reg := generators.Default()
	require.NoError(t, reg.Run("basic_grid", nil, generators.Env{}, out, []string{"grid.xlsx"}))
	require.NoError(t, reg.Run("single_cell_diff", nil, generators.Env{}, out, []string{"a.xlsx", "b.xlsx"}))
	return &config.Config{Manifest: p, OutputDir: out}
}

func TestRunClean(t *testing.T) {
	cfg := setup(t)
	res, err := Run(cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Problems)
	assert.Equal(t, []string{"grid.xlsx", "a.xlsx", "b.xlsx"}, res.Outputs)

	var buf bytes.Buffer
	Print(&buf, res)
	assert.Contains(t, buf.String(), "3 outputs verified")
}

func TestRunWithLock(t *testing.T) {
	cfg := setup(t)
	m, err := manifest.Load(cfg.Manifest)
	require.NoError(t, err)
	cfg.Lock = filepath.Join(t.TempDir(), "fixtures.lock.json")
	require.NoError(t, manifest.WriteLock(m, cfg.OutputDir, cfg.Lock))

	res, err := Run(cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Problems)

	require.NoError(t, os.Remove(filepath.Join(cfg.OutputDir, "b.xlsx")))
	res, err = Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Missing output: b.xlsx", "Missing output: b.xlsx"}, res.Problems)

	var buf bytes.Buffer
	Print(&buf, res)
	assert.Contains(t, buf.String(), "✗ Missing output: b.xlsx")
}

func TestRunMissingManifest(t *testing.T) {
	_, err := Run(&config.Config{Manifest: filepath.Join(t.TempDir(), "none.yaml")})
	assert.Error(t, err)
}
