package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

var (
	statsJSON     bool
	statsCategory string
	statsBreakout bool
)

// StatsReport is the output of the stats command.
type StatsReport struct {
	Variant     string              `json:"variant"`
	Field       string              `json:"field"`
	Category    string              `json:"category,omitempty"`
	Overall     db.Stats            `json:"overall"`
	Categories  []string            `json:"categories"`
	ByCategory  map[string]db.Stats `json:"by_category,omitempty"`
	ProgressPct float64             `json:"progress_pct"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review progress for the current variant",
	Args:  cobra.NoArgs,
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

		report, err := buildStatsReport(cmd, d, v)
		if err != nil {
			return err
		}

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printStats(report, v)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().StringVar(&statsCategory, "category", "", "Only count records in this category")
	statsCmd.Flags().BoolVar(&statsBreakout, "by-category", false, "Also count each category separately")
	rootCmd.AddCommand(statsCmd)
}

func buildStatsReport(cmd *cobra.Command, d *db.DB, v *variant.Variant) (*StatsReport, error) {
	scope := v.ScopePredicates()
	where := scope
	if statsCategory != "" {
		where = append(append([]db.Predicate{}, scope...), db.Predicate{Field: "category", Value: statsCategory})
	}

	report := &StatsReport{Variant: v.Name, Field: v.StatusField, Category: statsCategory}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		st, err := d.CountStatuses(ctx, where, v.StatusField, v.Pending)
		if err != nil {
			return fmt.Errorf("counting statuses: %w", err)
		}
		report.Overall = st
		return nil
	})
	g.Go(func() error {
		cats, err := d.Categories(ctx, scope)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		report.Categories = cats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.ProgressPct = report.Overall.Progress() * 100

	if !statsBreakout {
		return report, nil
	}

	results := make([]db.Stats, len(report.Categories))
	g, ctx = errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for i, cat := range report.Categories {
		where := append(append([]db.Predicate{}, scope...), db.Predicate{Field: "category", Value: cat})
		g.Go(func() error {
			st, err := d.CountStatuses(ctx, where, v.StatusField, v.Pending)
			if err != nil {
				return fmt.Errorf("counting %s: %w", cat, err)
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.ByCategory = make(map[string]db.Stats, len(results))
	for i, cat := range report.Categories {
		report.ByCategory[cat] = results[i]
	}
	return report, nil
}

func printStats(r *StatsReport, v *variant.Variant) {
	o := r.Overall
	barLen := int(o.Progress() * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)

	scope := "all categories"
	if r.Category != "" {
		scope = r.Category
	}
	fmt.Printf("\n  %s (%s, %s)\n", r.Variant, r.Field, scope)
	fmt.Printf("  Progress: %.0f%%  [%s]  %s / %s reviewed\n\n",
		r.ProgressPct, bar, humanize.Comma(int64(o.Reviewed)), humanize.Comma(int64(o.Total)))

	fmt.Println("  STATUS")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  %-12s %10s\n", v.Pending, humanize.Comma(int64(o.Pending())))
	for _, s := range orderedStatuses(o, v) {
		fmt.Printf("  %-12s %10s\n", s, humanize.Comma(int64(o.ByStatus[s])))
	}

	fmt.Printf("\n  %d categories\n", len(r.Categories))
	if len(r.ByCategory) == 0 {
		return
	}
	fmt.Println("  ────────────────────────────────────────")
	for _, cat := range r.Categories {
		st := r.ByCategory[cat]
		fmt.Printf("  %-24s %8s / %-8s %5.1f%%\n", truncTitle(cat, 24),
			humanize.Comma(int64(st.Reviewed)), humanize.Comma(int64(st.Total)), st.Progress()*100)
	}
}

// orderedStatuses lists the variant's statuses, then any other non-pending
// values found in the data.
func orderedStatuses(st db.Stats, v *variant.Variant) []string {
	out := append([]string{}, v.Statuses...)
	known := map[string]bool{v.Pending: true}
	for _, s := range out {
		known[s] = true
	}
	var extra []string
	for s := range st.ByStatus {
		if !known[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	truncated := s[:max]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
