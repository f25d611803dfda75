// Package config manages fixturegen configuration from files, environment
// and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file searched for when none is given explicitly.
const FileName = ".fixturegen.yaml"

// Defaults for every key.
const (
	DefaultManifest     = "fixtures/manifest.yaml"
	DefaultOutputDir    = "fixtures/generated"
	DefaultFixturesRoot = "fixtures"
	DefaultDebounceMS   = 500
)

// Config holds the application configuration.
type Config struct {
	Manifest     string `mapstructure:"manifest"`
	OutputDir    string `mapstructure:"output_dir"`
	FixturesRoot string `mapstructure:"fixtures_root"`
	Force        bool   `mapstructure:"force"`
	Lock         string `mapstructure:"lock"`
	Watch        struct {
		DebounceMS int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("manifest", DefaultManifest)
	viper.SetDefault("output_dir", DefaultOutputDir)
	viper.SetDefault("fixtures_root", DefaultFixturesRoot)
	viper.SetDefault("force", false)
	viper.SetDefault("lock", "")
	viper.SetDefault("watch.debounce_ms", DefaultDebounceMS)
}

// Load reads the configuration. An explicit file must exist; otherwise
// .fixturegen.yaml is looked up in the working directory and then in
// ~/.fixturegen/, and a missing file is not an error. FIXTUREGEN_* variables
// override the file.
func Load(file string) (*Config, error) {
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(configDir())
	}

	SetDefaults()

	viper.SetEnvPrefix("FIXTUREGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case file == "" && os.IsNotExist(err):
		default:
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s: check that the path is correct", file)
			}
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fixturegen"
	}
	return filepath.Join(home, ".fixturegen")
}

// flagNames maps config keys to the command-line flags that override them.
var flagNames = map[string]string{
	"manifest":          "manifest",
	"output_dir":        "output-dir",
	"fixtures_root":     "fixtures-root",
	"force":             "force",
	"lock":              "lock",
	"watch.debounce_ms": "debounce",
}

// BindFlags lets the flags present in flags override their config keys when
// set on the command line.
func BindFlags(flags *pflag.FlagSet) error {
	for key, name := range flagNames {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("could not bind --%s: %w", name, err)
		}
	}
	return nil
}

// ForCommand binds flags and loads configuration from the file named by the
// --config flag, if any.
func ForCommand(flags *pflag.FlagSet) (*Config, error) {
	if err := BindFlags(flags); err != nil {
		return nil, err
	}
	file, _ := flags.GetString("config")
	return Load(file)
}
