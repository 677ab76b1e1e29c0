package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"datacurator/curate/internal/db"
)

var (
	showJSON   bool
	showRender bool
)

var showCmd = &cobra.Command{
	Use:   "show <key|prefix>",
	Short: "Print one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		r, err := ResolveRecord(cmd.Context(), d, args[0])
		if err != nil {
			return err
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		fmt.Print(formatRecord(r, time.Now()))
		if r.Content == "" {
			return nil
		}
		fmt.Println()
		if !showRender {
			fmt.Println(r.Content)
			return nil
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		out, err := renderer.Render(r.Content)
		if err != nil {
			return fmt.Errorf("rendering content: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&showRender, "render", false, "Render content as markdown")
	rootCmd.AddCommand(showCmd)
}

// formatRecord renders the record's fields, one per line.
func formatRecord(r *db.Record, now time.Time) string {
	reviewed := "never"
	if r.ReviewedAt != nil {
		t := time.UnixMilli(*r.ReviewedAt)
		reviewed = fmt.Sprintf("%s (%s)", t.UTC().Format(time.RFC3339), humanize.RelTime(t, now, "ago", "from now"))
	}
	s := fmt.Sprintf("  key:           %s\n", r.Key)
	s += fmt.Sprintf("  category:      %s\n", r.Category)
	s += fmt.Sprintf("  status:        %s\n", r.StatusValue("status", "pending"))
	s += fmt.Sprintf("  review_status: %s\n", r.StatusValue("review_status", "pending"))
	s += fmt.Sprintf("  reviewed:      %s\n", reviewed)
	if r.Notes != nil {
		s += fmt.Sprintf("  notes:         %s\n", *r.Notes)
	}
	return s
}
