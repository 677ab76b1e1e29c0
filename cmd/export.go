package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

var (
	exportJSON     bool
	exportStatus   string
	exportCategory string
	exportOutput   string
)

var exportColumns = []string{"key", "category", "content", "status", "review_status", "notes", "reviewed_at"}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write records in the current variant's scope as CSV or JSON",
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

		records, err := d.FetchRecords(cmd.Context(), db.Query{Where: exportWhere(v, exportStatus, exportCategory)})
		if err != nil {
			return fmt.Errorf("fetching records: %w", err)
		}

		var out io.Writer = os.Stdout
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOutput, err)
			}
			defer f.Close()
			out = f
		}

		if exportJSON {
			if records == nil {
				records = []db.Record{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		return writeCSV(out, records)
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportJSON, "json", false, "Output as JSON instead of CSV")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only records with this value in the variant's status field")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "Only records in this category")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func exportWhere(v *variant.Variant, status, category string) []db.Predicate {
	where := v.ScopePredicates()
	if status != "" {
		where = append(where, db.Predicate{Field: v.StatusField, Value: status})
	}
	if category != "" {
		where = append(where, db.Predicate{Field: "category", Value: category})
	}
	return where
}

func writeCSV(w io.Writer, records []db.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		notes, reviewed := "", ""
		if r.Notes != nil {
			notes = *r.Notes
		}
		if r.ReviewedAt != nil {
			reviewed = strconv.FormatInt(*r.ReviewedAt, 10)
		}
		row := []string{r.Key, r.Category, r.Content,
			r.StatusValue("status", "pending"), r.StatusValue("review_status", "pending"),
			notes, reviewed}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", r.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
