package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

var (
	setNote string
	setJSON bool
)

var setCmd = &cobra.Command{
	Use:   "set <key|prefix> <status>",
	Short: "Classify one record without the review screen",
	Long: `Writes status to the current variant's status field and stamps the review
time. Setting the pending value resets the record: review time and notes are
cleared, the same as undo.`,
	Args: cobra.ExactArgs(2),
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

		r, err := ResolveRecord(cmd.Context(), d, args[0])
		if err != nil {
			return err
		}

		updated, err := setStatus(cmd.Context(), d, v, r, args[1], setNote, time.Now())
		if err != nil {
			return err
		}
		logger.Info("status set",
			zap.String("key", r.Key),
			zap.String("field", v.StatusField),
			zap.String("from", r.StatusValue(v.StatusField, v.Pending)),
			zap.String("to", args[1]))

		if setJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(updated)
		}
		fmt.Printf("%s: %s -> %s\n", r.Key, r.StatusValue(v.StatusField, v.Pending), args[1])
		return nil
	},
}

func init() {
	setCmd.Flags().StringVar(&setNote, "note", "", "Attach a note")
	setCmd.Flags().BoolVar(&setJSON, "json", false, "Output the updated record as JSON")
	rootCmd.AddCommand(setCmd)
}

// setStatus writes status to r and returns the record as stored.
func setStatus(ctx context.Context, d *db.DB, v *variant.Variant, r *db.Record, status, note string, now time.Time) (*db.Record, error) {
	patch := db.Patch{StatusField: v.StatusField, Status: status}
	switch {
	case status == v.Pending:
		if note != "" {
			return nil, fmt.Errorf("cannot attach a note while resetting to %s", v.Pending)
		}
		patch.ClearReviewedAt = true
		patch.ClearNotes = true
	case v.IsStatus(status):
		at := now.UnixMilli()
		patch.ReviewedAt = &at
		if note != "" {
			patch.Notes = &note
		}
	default:
		return nil, fmt.Errorf("unknown status %q for variant %s (have: %v)", status, v.Name, v.Statuses)
	}

	if err := d.UpdateRecord(ctx, r.Key, patch); err != nil {
		return nil, err
	}
	return d.GetRecord(ctx, r.Key)
}
