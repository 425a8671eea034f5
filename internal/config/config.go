// Package config resolves downsweep configuration. Precedence, lowest
// to highest: built-in defaults, config file, DOWNSWEEP_* environment,
// command-line flags. Everything is fixed at process start.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob a run needs.
type Config struct {
	// Root is the directory whose immediate children are swept.
	Root string `mapstructure:"root"`
	// Snapshot is the CSV history file path.
	Snapshot string `mapstructure:"snapshot"`
	// Archive is the root under which dated archive folders are created.
	Archive string `mapstructure:"archive"`
	// Trash overrides the OS trash location; empty means the
	// freedesktop default.
	Trash string `mapstructure:"trash"`
	// Journal is the SQLite run-journal path.
	Journal string `mapstructure:"journal"`
	// RetentionDays is the staleness window in days.
	RetentionDays int `mapstructure:"retention_days"`
	// Threshold is the importance score at which an entity is valuable.
	Threshold int `mapstructure:"threshold"`
}

// Default returns the built-in configuration. State files live under
// ~/.downsweep; root and archive have no sensible default and must be
// configured.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Snapshot:      filepath.Join(home, ".downsweep", "snapshot.csv"),
		Journal:       filepath.Join(home, ".downsweep", "journal.db"),
		RetentionDays: 30,
		Threshold:     3,
	}
}

// Window returns the retention window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	if c.Root == "" {
		return errors.New("root directory is required (flag --root, env DOWNSWEEP_ROOT, or config file)")
	}
	if c.Archive == "" {
		return errors.New("archive directory is required (flag --archive, env DOWNSWEEP_ARCHIVE, or config file)")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be at least 1, got %d", c.RetentionDays)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	return nil
}

// Load resolves configuration through the given viper instance, which
// may already carry flag bindings. cfgFile, when non-empty, names an
// explicit config file; otherwise ~/.downsweep/config.yaml is read if
// present. Callers that need a sweepable config run Validate
// themselves; read-only commands work without root or archive set.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	def := Default()
	v.SetDefault("snapshot", def.Snapshot)
	v.SetDefault("journal", def.Journal)
	v.SetDefault("retention_days", def.RetentionDays)
	v.SetDefault("threshold", def.Threshold)

	v.SetEnvPrefix("DOWNSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".downsweep"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return Config{}, fmt.Errorf("read config: %w", err)
				}
			}
		}
	}

	// Explicit Gets rather than Unmarshal: AutomaticEnv values are
	// invisible to Unmarshal for keys without defaults.
	cfg := Config{
		Root:          v.GetString("root"),
		Snapshot:      v.GetString("snapshot"),
		Archive:       v.GetString("archive"),
		Trash:         v.GetString("trash"),
		Journal:       v.GetString("journal"),
		RetentionDays: v.GetInt("retention_days"),
		Threshold:     v.GetInt("threshold"),
	}
	return cfg, nil
}
