package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Keys lists every configuration key in display order.
var Keys = []string{"manifest", "output_dir", "fixtures_root", "force", "lock", "watch.debounce_ms"}

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Validate checks that configured paths exist and values are usable.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	manifest := viper.GetString("manifest")
	if _, err := os.Stat(manifest); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "manifest",
			Severity: "error",
			Message:  fmt.Sprintf("manifest file not found: %s", manifest),
			Fix:      "fixturegen config set manifest path/to/manifest.yaml",
		})
	} else {
		issues = append(issues, ConfigIssue{
			Key:      "manifest",
			Severity: "info",
			Message:  fmt.Sprintf("manifest found at %s", manifest),
		})
	}

	root := viper.GetString("fixtures_root")
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		issues = append(issues, ConfigIssue{
			Key:      "fixtures_root",
			Severity: "warning",
			Message:  fmt.Sprintf("fixtures root %s is not a directory; templates resolve only relative to the working directory", root),
			Fix:      "fixturegen config set fixtures_root fixtures",
		})
	}

	out := viper.GetString("output_dir")
	if abs, err := filepath.Abs(out); err == nil && filepath.Dir(abs) == abs {
		issues = append(issues, ConfigIssue{
			Key:      "output_dir",
			Severity: "error",
			Message:  fmt.Sprintf("output directory %s is a filesystem root", abs),
			Fix:      "fixturegen config set output_dir fixtures/generated",
		})
	}

	if ms := viper.GetInt("watch.debounce_ms"); ms <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "watch.debounce_ms",
			Severity: "warning",
			Message:  fmt.Sprintf("watch.debounce_ms is %d; every file event triggers a full run", ms),
			Fix:      "fixturegen config set watch.debounce_ms 500",
		})
	}

	return issues
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys {
		if v := viper.GetString(key); v != "" {
			env[envName(key)] = v
		}
	}
	return env
}

func envName(key string) string {
	return "FIXTUREGEN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q: valid keys are %s", key, strings.Join(Keys, ", "))
	}
	viper.Set(key, value)
	return SaveConfig()
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for _, key := range Keys {
		viper.Set(key, nil)
	}
	SetDefaults()
	return nil
}

// SaveConfig writes the current config to ConfigPath.
func SaveConfig() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// ConfigPath returns the config file in use, or .fixturegen.yaml in the
// working directory when none was read.
func ConfigPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return FileName
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	width := 0
	for _, key := range Keys {
		if len(key) > width {
			width = len(key)
		}
	}
	for _, key := range Keys {
		sb.WriteString(fmt.Sprintf("  %-*s  %s\n", width+1, key+":", viper.GetString(key)))
	}

	env := ToEnv()
	var overridden []string
	for _, key := range Keys {
		if _, ok := os.LookupEnv(envName(key)); ok {
			overridden = append(overridden, envName(key))
		}
	}
	if len(overridden) > 0 {
		sort.Strings(overridden)
		sb.WriteString("\nFrom environment\n")
		for _, name := range overridden {
			sb.WriteString(fmt.Sprintf("  %s=%s\n", name, env[name]))
		}
	}

	return sb.String()
}
