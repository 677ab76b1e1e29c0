package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"datacurator/curate/internal/review"
	"datacurator/curate/internal/tui"
	"datacurator/curate/internal/watch"
)

var (
	reviewCategory  string
	reviewSecondary string
	reviewNoWatch   bool
	reviewPlain     bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Open the interactive review screen",
	Long: `Shows one record at a time. Classify with the variant's keys, by dragging
the card (right, left, up, down), or by clicking the action bar. u undoes the
last classification; tab cycles categories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		v, err := CurrentVariant()
		if err != nil {
			return err
		}
		if reviewSecondary != "" && v.Secondary == nil {
			return fmt.Errorf("variant %s has no secondary filter", v.Name)
		}

		// The screen owns the terminal, so logs go to a file.
		logPath := cfg.Log.File
		if logPath == "" {
			logPath = filepath.Join(filepath.Dir(d.Path), "curate.log")
		}
		log, err := newLogger(cfg, logPath)
		if err != nil {
			return err
		}
		defer log.Sync()

		s := review.New(d, v, review.Options{
			Logger:       log,
			SuccessDelay: cfg.Banner.Success,
			ErrorDelay:   cfg.Banner.Error,
		})
		defer s.Close()
		log.Info("review started", zap.String("session", s.ID()), zap.String("db", d.Path))

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, gctx := errgroup.WithContext(ctx)

		if cfg.Watch.Enabled && !reviewNoWatch {
			w, err := watch.New(d.Path, cfg.Watch.Debounce, log)
			if err != nil {
				log.Warn("database watch disabled", zap.Error(err))
			} else {
				g.Go(func() error { return w.Run(gctx, s.RefreshStatsAsync) })
			}
		}

		g.Go(func() error {
			defer cancel()
			return tui.Run(gctx, s, tui.Options{
				Selection: review.Selection{Category: reviewCategory, Secondary: reviewSecondary},
				Logger:    log,
				Threshold: cfg.Gesture.Threshold,
				CellScale: cfg.CellScale(),
				Markdown:  !reviewPlain,
			})
		})
		if err := g.Wait(); err != nil {
			return err
		}
		log.Info("review finished", zap.String("session", s.ID()))
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewCategory, "category", "", "Start with this category selected")
	reviewCmd.Flags().StringVar(&reviewSecondary, "secondary", "", "Start with this secondary filter value (two-phase variants)")
	reviewCmd.Flags().BoolVar(&reviewNoWatch, "no-watch", false, "Do not refresh stats when another process writes the database")
	reviewCmd.Flags().BoolVar(&reviewPlain, "plain", false, "Show record content as plain text instead of rendered markdown")
	rootCmd.AddCommand(reviewCmd)
}
