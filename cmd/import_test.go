package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacurator/curate/internal/db"
	"datacurator/curate/internal/variant"
)

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }

func testRegistry(t *testing.T) *variant.Registry {
	t.Helper()
	reg, err := variant.NewRegistry(nil)
	require.NoError(t, err)
	return reg
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		flag, path, want string
	}{
		{"", "records.json", "json"},
		{"", "records.CSV", "csv"},
		{"JSON", "records.csv", "json"},
		{"", "-", ""},
		{"", "records.txt", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectFormat(tt.flag, tt.path), "flag=%q path=%q", tt.flag, tt.path)
	}
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		input   string
		want    []db.Record
		wantErr string
	}{
		{
			name:   "csv with all columns",
			format: "csv",
			input: "key,category,content,status,review_status,notes,reviewed_at\n" +
				"A,loans,\"rate is 4%, fixed\",keep,pending,check source,1700000000000\n" +
				"B,rates,plain,,,,\n",
			want: []db.Record{
				{Key: "A", Category: "loans", Content: "rate is 4%, fixed", Status: "keep", ReviewStatus: "pending",
					Notes: strPtr("check source"), ReviewedAt: int64Ptr(1700000000000)},
				{Key: "B", Category: "rates", Content: "plain"},
			},
		},
		{
			name:   "csv header in any order and case",
			format: "csv",
			input:  "Content, Key\nhello,K1\n",
			want:   []db.Record{{Key: "K1", Content: "hello"}},
		},
		{
			name:   "csv with byte order mark",
			format: "csv",
			input:  "\ufeffkey,content\nK1,hello\n",
			want:   []db.Record{{Key: "K1", Content: "hello"}},
		},
		{
			name:   "csv multiline content",
			format: "csv",
			input:  "key,content\nK1,\"line one\nline two\"\n",
			want:   []db.Record{{Key: "K1", Content: "line one\nline two"}},
		},
		{
			name:   "empty csv",
			format: "csv",
			input:  "",
		},
		{
			name:    "csv without content column",
			format:  "csv",
			input:   "key,category\nA,loans\n",
			wantErr: "no content column",
		},
		{
			name:    "csv bad reviewed_at",
			format:  "csv",
			input:   "key,content,reviewed_at\nA,x,yesterday\n",
			wantErr: `row 1: reviewed_at "yesterday"`,
		},
		{
			name:    "csv mis-cased status",
			format:  "csv",
			input:   "key,content,status\nA,hello,Keep \nB,x,bogus\n",
			wantErr: `row 1: status "Keep" is not a known value`,
		},
		{
			name:    "csv unknown status on a later row",
			format:  "csv",
			input:   "key,content,status\nA,hello,keep\nB,x,bogus\n",
			wantErr: `row 2: status "bogus"`,
		},
		{
			name:    "status value in the wrong column",
			format:  "csv",
			input:   "key,content,review_status\nA,hello,keep\n",
			wantErr: `row 1: review_status "keep"`,
		},
		{
			name:   "statuses from any builtin variant",
			format: "json",
			input:  `[{"key":"A","content":"x","status":"unsure","review_status":"flagged"}]`,
			want:   []db.Record{{Key: "A", Content: "x", Status: "unsure", ReviewStatus: "flagged"}},
		},
		{
			name:    "json unknown status",
			format:  "json",
			input:   `[{"key":"A","content":"x","status":"archived"}]`,
			wantErr: `row 1: status "archived"`,
		},
		{
			name:   "json array",
			format: "json",
			input:  `[{"key":"A","category":"loans","content":"x","status":"favorite","notes":"n"}]`,
			want:   []db.Record{{Key: "A", Category: "loans", Content: "x", Status: "favorite", Notes: strPtr("n")}},
		},
		{
			name:   "sniffed json",
			input:  "  \n[{\"key\":\"A\",\"content\":\"x\"}]",
			want:   []db.Record{{Key: "A", Content: "x"}},
		},
		{
			name:  "sniffed csv",
			input: "key,content\nA,x\n",
			want:  []db.Record{{Key: "A", Content: "x"}},
		},
		{
			name:    "malformed json",
			format:  "json",
			input:   `{"key":"A"}`,
			wantErr: "decoding json",
		},
		{
			name:    "unknown format",
			format:  "xml",
			input:   "<records/>",
			wantErr: `unknown format "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readRecords(strings.NewReader(tt.input), tt.format, testRegistry(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadRecordsGeneratesMissingKeys(t *testing.T) {
	got, err := readRecords(strings.NewReader("category,content\nloans,a\nloans,b\n"), "csv", testRegistry(t))
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		_, err := uuid.Parse(r.Key)
		assert.NoError(t, err, "key %q", r.Key)
	}
	assert.NotEqual(t, got[0].Key, got[1].Key)
}

func TestExportRoundTrip(t *testing.T) {
	d := setupCmdDB(t,
		db.Record{Key: "A", Category: "loans", Content: "a, with comma", Status: "keep",
			Notes: strPtr("note"), ReviewedAt: int64Ptr(1700000000000)},
		db.Record{Key: "B", Category: "rates", Content: "b"},
	)
	records, err := d.FetchRecords(context.Background(), db.Query{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, records))

	back, err := readRecords(&buf, "csv", testRegistry(t))
	require.NoError(t, err)
	if diff := cmp.Diff(records, back); diff != "" {
		t.Errorf("round trip mismatch (-exported +imported):\n%s", diff)
	}
}

func TestExportWhere(t *testing.T) {
	resetGlobals(t)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	v, err := reg.Get("curate")
	require.NoError(t, err)
	assert.Equal(t,
		[]db.Predicate{{Field: "status", Value: "keep"}, {Field: "category", Value: "loans"}},
		exportWhere(v, "keep", "loans"))

	triage, err := reg.Get("triage")
	require.NoError(t, err)
	assert.Equal(t,
		[]db.Predicate{{Field: "review_status", Value: "flagged"}},
		exportWhere(triage, "flagged", ""))
	assert.Empty(t, exportWhere(triage, "", ""))
}
