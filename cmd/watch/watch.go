// Package watch provides the "fixturegen watch" command.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabulensis/fixturegen/cmd/generate"
	"github.com/tabulensis/fixturegen/internal/config"
	w "github.com/tabulensis/fixturegen/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate fixtures when the manifest or templates change",
		Long: `Runs the manifest once, then watches the manifest file and the templates
directory under the fixtures root. Each burst of changes triggers a full,
sequential regeneration. Outputs are always overwritten while watching.

Example:
  fixturegen watch --manifest fixtures/manifest.yaml --debounce 250`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ForCommand(cmd.Flags())
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			cfg.Force = true

			watcher, err := w.New(Config(cfg))
			if err != nil {
				return err
			}
			watcher.Handler = func(ctx context.Context, changed []string) error {
				_, err := generate.Run(ctx, cfg, generate.Options{Verbose: verbose})
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Handle signals
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Println("\nStopping watcher...")
				cancel()
			}()

			watcher.Trigger(ctx, cfg.Manifest)
			fmt.Printf("Watching %d path(s); press Ctrl+C to stop\n", len(watcher.Config.Paths))
			return watcher.Start(ctx)
		},
	}

	cmd.Flags().String("manifest", config.DefaultManifest, "Path to manifest YAML")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "Directory into which artifacts are written")
	cmd.Flags().String("fixtures-root", config.DefaultFixturesRoot, "Fallback directory for template and base files")
	cmd.Flags().Int("debounce", config.DefaultDebounceMS, "Debounce interval in milliseconds")

	return cmd
}

// Config derives the watched paths from cfg: the manifest file and, when it
// exists, the templates directory under the fixtures root.
func Config(cfg *config.Config) w.WatchConfig {
	paths := []string{cfg.Manifest}
	templates := filepath.Join(cfg.FixturesRoot, "templates")
	if info, err := os.Stat(templates); err == nil && info.IsDir() {
		paths = append(paths, templates)
	}
	return w.WatchConfig{
		Paths:     paths,
		Recursive: true,
		Debounce:  cfg.Watch.DebounceMS,
		Ignore:    []string{cfg.OutputDir},
	}
}
