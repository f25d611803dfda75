// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var installHints = map[string]string{
	"bash":       "fixturegen completion bash > /etc/bash_completion.d/fixturegen",
	"zsh":        "fixturegen completion zsh > ~/.zsh/completions/_fixturegen",
	"fish":       "fixturegen completion fish > ~/.config/fish/completions/fixturegen.fish",
	"powershell": "fixturegen completion powershell >> $PROFILE",
}

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for fixturegen.

Install instructions:
  Bash:       fixturegen completion bash > /etc/bash_completion.d/fixturegen
              echo 'source <(fixturegen completion bash)' >> ~/.bashrc
  Zsh:        fixturegen completion zsh > ~/.zsh/completions/_fixturegen
  Fish:       fixturegen completion fish > ~/.config/fish/completions/fixturegen.fish
  PowerShell: fixturegen completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Write(cmd.OutOrStdout(), rootCmd, args[0])
		},
	}
	return cmd
}

// Write emits the completion script for shell, preceded by an install hint.
func Write(w io.Writer, rootCmd *cobra.Command, shell string) error {
	hint, ok := installHints[shell]
	if !ok {
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", shell)
	}
	fmt.Fprintf(w, "# fixturegen %s completion\n", shell)
	fmt.Fprintf(w, "# Install: %s\n\n", hint)

	switch shell {
	case "bash":
		return rootCmd.GenBashCompletion(w)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	default:
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	}
}
