package generate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulensis/fixturegen/internal/config"
	"github.com/tabulensis/fixturegen/internal/manifest"
)

func testConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	color.NoColor = true
	t.Setenv("FIXTUREGEN_NO_PROGRESS", "1")

	dir := t.TempDir()
	p := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return &config.Config{
		Manifest:     p,
		OutputDir:    filepath.Join(dir, "generated"),
		FixturesRoot: dir,
	}
}

func TestRunSkipsUnknownGenerators(t *testing.T) {
	cfg := testConfig(t, `
scenarios:
  - {id: grid, generator: basic_grid, output: grid.xlsx}
  - {id: odd, generator: no_such_generator, output: odd.xlsx}
`)
	var out bytes.Buffer

	report, err := Run(context.Background(), cfg, Options{Out: &out})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Generated)
	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Len(t, report.Warnings, 1)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "grid.xlsx"))
	assert.Contains(t, out.String(), "1 generated, 1 skipped, 0 failed")

	// The skipped output is missing, so a lock cannot be written.
	lock := filepath.Join(filepath.Dir(cfg.Manifest), "fixtures.lock.json")
	cfg.Force = true
	_, err = Run(context.Background(), cfg, Options{Out: &out, WriteLock: lock})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing output: odd.xlsx")
	assert.NoFileExists(t, lock)
}

func TestRunWritesLockWhenEveryOutputExists(t *testing.T) {
	cfg := testConfig(t, "scenarios:\n  - {id: grid, generator: basic_grid, output: grid.xlsx}\n")
	lock := filepath.Join(filepath.Dir(cfg.Manifest), "fixtures.lock.json")

	report, err := Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}, WriteLock: lock})
	require.NoError(t, err)
	assert.Equal(t, lock, report.Lock)
	assert.FileExists(t, lock)

	m, err := manifest.Load(cfg.Manifest)
	require.NoError(t, err)
	assert.Empty(t, manifest.VerifyLock(m, cfg.OutputDir, lock))
}

func TestRunSecondPassSkipsUnlessForced(t *testing.T) {
	cfg := testConfig(t, "scenarios:\n  - {id: grid, generator: basic_grid, output: grid.xlsx}\n")

	_, err := Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	report, err := Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Skipped)

	cfg.Force = true
	report, err = Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Generated)
}

func TestRunCleanRemovesStaleFiles(t *testing.T) {
	cfg := testConfig(t, "scenarios:\n  - {id: grid, generator: basic_grid, output: grid.xlsx}\n")
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0755))
	stale := filepath.Join(cfg.OutputDir, "stale.xlsx")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))

	_, err := Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}, Clean: true})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "grid.xlsx"))
}

func TestRunPreflightFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t, `
scenarios:
  - {id: a, generator: basic_grid, output: same.xlsx}
  - {id: b, generator: basic_grid, output: same.xlsx}
`)
	_, err := Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, manifest.ErrConfig))
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunMissingManifest(t *testing.T) {
	cfg := &config.Config{Manifest: filepath.Join(t.TempDir(), "absent.yaml"), OutputDir: t.TempDir()}
	_, err := Run(context.Background(), cfg, Options{Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestCommandFlags(t *testing.T) {
	cmd := NewCommand()
	for _, name := range []string{"manifest", "output-dir", "fixtures-root", "force", "clean", "write-lock"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, config.DefaultManifest, cmd.Flags().Lookup("manifest").DefValue)
	assert.Equal(t, config.DefaultOutputDir, cmd.Flags().Lookup("output-dir").DefValue)
}
