package cmd

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

var (
	importFormat  string
	importReplace bool
	importJSON    bool
)

// ImportResult is the output of the import command.
type ImportResult struct {
	Path     string `json:"path"`
	Database string `json:"database"`
	Read     int    `json:"read"`
	Added    int    `json:"added"`
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Load records from CSV or JSON into the database",
	Long: `Reads records from a CSV file with a header row, or a JSON array of objects,
and inserts them into the database, creating it if needed.

Recognised columns: key, category, content, status, review_status, notes,
reviewed_at. Rows without a key get a generated one. Existing keys are left
alone unless --replace is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		var in io.Reader = os.Stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()
			in = f
		}

		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		records, err := readRecords(in, detectFormat(importFormat, path), reg)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		d, err := OpenDatabase(true)
		if err != nil {
			return err
		}
		defer d.Close()

		added, err := d.InsertRecords(cmd.Context(), records, importReplace)
		if err != nil {
			return err
		}
		logger.Info("import finished",
			zap.String("source", path),
			zap.String("db", d.Path),
			zap.Int("read", len(records)),
			zap.Int("added", added))

		if importJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ImportResult{Path: path, Database: d.Path, Read: len(records), Added: added})
		}
		fmt.Printf("imported %d of %d records into %s\n", added, len(records), d.Path)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format: csv or json (default: from extension)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Overwrite records whose key already exists")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(importCmd)
}

// detectFormat picks csv or json from the flag, then the file extension.
// An empty result means sniff the content.
func detectFormat(flag, path string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	}
	return ""
}

// readRecords parses records in the given format. Keys left empty are
// filled with random UUIDs. Non-empty status values must belong to some
// variant in reg that classifies that column.
func readRecords(r io.Reader, format string, reg *variant.Registry) ([]db.Record, error) {
	br := bufio.NewReader(r)
	if format == "" {
		format = sniffFormat(br)
	}

	var (
		records []db.Record
		err     error
	)
	switch format {
	case "json":
		records, err = readJSONRecords(br)
	case "csv":
		records, err = readCSVRecords(br)
	default:
		return nil, fmt.Errorf("unknown format %q (want csv or json)", format)
	}
	if err != nil {
		return nil, err
	}
	vocab, err := statusVocabulary(reg)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if err := checkStatuses(records[i], vocab); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if records[i].Key == "" {
			records[i].Key = uuid.NewString()
		}
	}
	return records, nil
}

// statusVocabulary collects, per status column, the pending and terminal
// values of every registered variant.
func statusVocabulary(reg *variant.Registry) (map[string]map[string]bool, error) {
	vocab := map[string]map[string]bool{
		"status":        {"pending": true},
		"review_status": {"pending": true},
	}
	for _, name := range reg.Names() {
		v, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		allowed := vocab[v.StatusField]
		allowed[v.Pending] = true
		for _, st := range v.Statuses {
			allowed[st] = true
		}
	}
	return vocab, nil
}

func checkStatuses(r db.Record, vocab map[string]map[string]bool) error {
	for _, field := range []string{"status", "review_status"} {
		value := r.Status
		if field == "review_status" {
			value = r.ReviewStatus
		}
		if value != "" && !vocab[field][value] {
			return fmt.Errorf("%s %q is not a known value for that column", field, value)
		}
	}
	return nil
}

func sniffFormat(br *bufio.Reader) string {
	peek, _ := br.Peek(512)
	if bytes.HasPrefix(bytes.TrimLeft(peek, " \t\r\n\ufeff"), []byte("[")) {
		return "json"
	}
	return "csv"
}

func readJSONRecords(r io.Reader) ([]db.Record, error) {
	var records []db.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return records, nil
}

func readCSVRecords(r io.Reader) ([]db.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["content"]; !ok {
		return nil, errors.New("csv header has no content column")
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []db.Record
	for n := 1; ; n++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		rec := db.Record{
			Key:          strings.TrimSpace(get(row, "key")),
			Category:     get(row, "category"),
			Content:      get(row, "content"),
			Status:       strings.TrimSpace(get(row, "status")),
			ReviewStatus: strings.TrimSpace(get(row, "review_status")),
		}
		if note := get(row, "notes"); note != "" {
			rec.Notes = &note
		}
		if at := strings.TrimSpace(get(row, "reviewed_at")); at != "" {
			ms, err := strconv.ParseInt(at, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: reviewed_at %q is not unix millis", n, at)
			}
			rec.ReviewedAt = &ms
		}
		records = append(records, rec)
	}
	return records, nil
}
