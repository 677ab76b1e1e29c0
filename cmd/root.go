package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"datacurator/curate/internal/config"
	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

const (
	dbFileName = ".curate.db"
	dbEnv      = "CURATE_DB"
)

var (
	dbPath      string
	configPath  string
	variantName string
	verbose     bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "curate",
	Short:         "Review and classify records one at a time",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadDiscovered(configPath)
		if err != nil {
			return err
		}
		cfg = c

		l, err := newLogger(cfg, "stderr")
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("configuration loaded", zap.String("path", cfg.Path), zap.String("variant", cfg.Variant))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the records database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .curate.yaml config")
	rootCmd.PersistentFlags().StringVar(&variantName, "variant", "", "Status vocabulary to review with (see 'curate variants')")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger builds a production zap logger writing to path ("stderr" or a
// file). --verbose forces debug level.
func newLogger(c *config.Config, path string) (*zap.Logger, error) {
	lvl, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}

// DiscoverDB finds the database path using priority: env > flag > config >
// walk-up > XDG fallback. With create set, an explicit path from env, flag
// or config is returned even if the file does not exist yet.
func DiscoverDB(create bool) (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv(dbEnv); envPath != "" {
		if _, err := os.Stat(envPath); err == nil || create {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil || create {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Config file
	if cfg.DB != "" {
		if _, err := os.Stat(cfg.DB); err == nil || create {
			return cfg.DB, nil
		}
		return "", fmt.Errorf("database not found at configured path: %s", cfg.DB)
	}

	// 4. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 5. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "curate", "curate.db")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("no %s found (set %s, use --db, or run from a directory containing %s)", dbFileName, dbEnv, dbFileName)
}

// OpenDatabase discovers and opens the database.
func OpenDatabase(create bool) (*db.DB, error) {
	path, err := DiscoverDB(create)
	if err != nil {
		return nil, err
	}
	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	d, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	d.PageSize = cfg.PageSize
	logger.Debug("database opened", zap.String("path", path))
	return d, nil
}

// CurrentVariant resolves --variant, falling back to the configured one.
func CurrentVariant() (*variant.Variant, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	name := variantName
	if name == "" {
		name = cfg.Variant
	}
	return reg.Get(name)
}

// ResolveRecord finds a record by full key or unique key prefix.
func ResolveRecord(ctx context.Context, d *db.DB, reference string) (*db.Record, error) {
	// 1. Exact key match
	r, err := d.GetRecord(ctx, reference)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	// 2. Key prefix match
	matches, err := d.SearchByKeyPrefix(ctx, reference, 10)
	if err != nil {
		return nil, fmt.Errorf("searching keys: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("record not found: %s", reference)
	case 1:
		return &matches[0], nil
	default:
		lines := make([]string, len(matches))
		for i, m := range matches {
			lines[i] = fmt.Sprintf("  %s  [%s]", m.Key, m.Category)
		}
		return nil, fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse a full key instead.",
			reference, len(matches), strings.Join(lines, "\n"))
	}
}
