// Package config loads the curate YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/gesture"
	"datacurator/curate/internal/variant"
)

// FileName is the per-project config file found by walking up from the
// working directory.
const FileName = ".curate.yaml"

// EnvPath names the environment variable holding an explicit config path.
const EnvPath = "CURATE_CONFIG"

// Config is the curate configuration.
type Config struct {
	DB       string             `yaml:"db"`
	Variant  string             `yaml:"variant"`
	PageSize int                `yaml:"page_size"`
	Gesture  GestureConfig      `yaml:"gesture"`
	Banner   BannerConfig       `yaml:"banner"`
	Watch    WatchConfig        `yaml:"watch"`
	Log      LogConfig          `yaml:"log"`
	Variants []*variant.Variant `yaml:"variants,omitempty"`

	// Path is the file the config was read from; empty for defaults.
	Path string `yaml:"-"`
}

// GestureConfig tunes drag recognition on the review screen.
type GestureConfig struct {
	Threshold  float64 `yaml:"threshold"`   // units a drag must exceed
	CellWidth  float64 `yaml:"cell_width"`  // units per terminal column
	CellHeight float64 `yaml:"cell_height"` // units per terminal row
}

// BannerConfig sets how long save banners stay up.
type BannerConfig struct {
	Success time.Duration `yaml:"success"`
	Error   time.Duration `yaml:"error"`
}

// WatchConfig controls the database file watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // defaults to curate.log beside the database
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Variant:  variant.Default,
		PageSize: db.DefaultPageSize,
		Gesture: GestureConfig{
			Threshold:  gesture.DefaultThreshold,
			CellWidth:  gesture.DefaultCellScale.Width,
			CellHeight: gesture.DefaultCellScale.Height,
		},
		Banner: BannerConfig{
			Success: 2 * time.Second,
			Error:   5 * time.Second,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. Relative db and log paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.Path = path
	dir := filepath.Dir(path)
	if cfg.DB != "" && !filepath.IsAbs(cfg.DB) {
		cfg.DB = filepath.Join(dir, cfg.DB)
	}
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(dir, cfg.Log.File)
	}
	return cfg, nil
}

// Validate checks value ranges and the custom variants.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Gesture.Threshold <= 0 {
		return fmt.Errorf("gesture.threshold must be positive, got %v", c.Gesture.Threshold)
	}
	if c.Gesture.CellWidth <= 0 || c.Gesture.CellHeight <= 0 {
		return errors.New("gesture cell sizes must be positive")
	}
	if c.Banner.Success <= 0 || c.Banner.Error <= 0 {
		return errors.New("banner durations must be positive")
	}
	if c.Watch.Debounce < 0 {
		return errors.New("watch.debounce must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	if c.Log.Level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return lvl, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Registry returns the built-in variants plus the configured ones.
func (c *Config) Registry() (*variant.Registry, error) {
	return variant.NewRegistry(c.Variants)
}

// CellScale returns the gesture cell scale.
func (c *Config) CellScale() gesture.CellScale {
	return gesture.CellScale{Width: c.Gesture.CellWidth, Height: c.Gesture.CellHeight}
}

// Discover finds the config file using priority: explicit path > env >
// walk-up > user config dir. It returns "" when no file exists.
func Discover(explicit string) (string, error) {
	// 1. Explicit flag
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config not found at --config path: %s", explicit)
		}
		return explicit, nil
	}

	// 2. Environment variable
	if envPath := os.Getenv(EnvPath); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config not found at %s path: %s", EnvPath, envPath)
		}
		return envPath, nil
	}

	// 3. Walk up from CWD
	if dir, err := os.Getwd(); err == nil {
		if found := walkUp(dir, FileName); found != "" {
			return found, nil
		}
	}

	// 4. User config dir
	if dir, err := ConfigDir(); err == nil {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// LoadDiscovered loads the discovered config, or the defaults when there is
// none.
func LoadDiscovered(explicit string) (*Config, error) {
	path, err := Discover(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func walkUp(dir, name string) string {
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ConfigDir returns the platform-appropriate config directory for curate.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "curate"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "curate"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "curate"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "curate"), nil
	default:
		return filepath.Join(home, ".config", "curate"), nil
	}
}
