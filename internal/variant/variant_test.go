package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"datacurator/curate/internal/db"
)

func TestBuiltinsValidate(t *testing.T) {
	for _, v := range Builtins() {
		t.Run(v.Name, func(t *testing.T) {
			require.NoError(t, v.Validate())
		})
	}
}

func TestCurateMapping(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	v, err := r.Get("")
	require.NoError(t, err)

	assert.Equal(t, "curate", v.Name)
	assert.Equal(t, "keep", v.SwipeAction(Right))
	assert.Equal(t, "delete", v.SwipeAction(Left))
	assert.Equal(t, "favorite", v.SwipeAction(Up))
	assert.Equal(t, NotesAction, v.SwipeAction(Down))

	a, ok := v.KeyAction("K")
	assert.True(t, ok)
	assert.Equal(t, "keep", a)
	_, ok = v.KeyAction("z")
	assert.False(t, ok)

	assert.Equal(t, "f", v.KeyFor("favorite"))
	assert.Equal(t, []string{"keep", "delete", "favorite", NotesAction}, v.Actions())
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"curate", "triage", "verify"}, r.Names())

	_, err = r.Get("nope")
	assert.ErrorContains(t, err, "unknown variant")
}

func TestRegistry_CustomOverridesBuiltin(t *testing.T) {
	custom := &Variant{
		Name:        "curate",
		StatusField: "status",
		Pending:     "todo",
		Statuses:    []string{"yes", "no"},
		Keys:        map[string]string{"y": "yes", "o": "no"},
	}
	r, err := NewRegistry([]*Variant{custom})
	require.NoError(t, err)
	v, err := r.Get("curate")
	require.NoError(t, err)
	assert.Equal(t, "todo", v.Pending)
}

func TestValidate(t *testing.T) {
	base := func() *Variant {
		return &Variant{
			Name:        "x",
			StatusField: "status",
			Pending:     "pending",
			Statuses:    []string{"keep", "delete"},
			Swipes:      map[Direction]string{Right: "keep"},
			Keys:        map[string]string{"k": "keep"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(v *Variant)
		wantErr string
	}{
		{"valid", func(v *Variant) {}, ""},
		{"no name", func(v *Variant) { v.Name = "" }, "no name"},
		{"bad field", func(v *Variant) { v.StatusField = "content" }, "status_field"},
		{"no statuses", func(v *Variant) { v.Statuses = nil }, "no statuses"},
		{"duplicate status", func(v *Variant) { v.Statuses = []string{"keep", "keep"} }, "duplicate"},
		{"pending as status", func(v *Variant) { v.Statuses = []string{"pending"} }, "duplicate"},
		{"unknown action", func(v *Variant) { v.Keys["z"] = "archive" }, "unknown action"},
		{"bad direction", func(v *Variant) { v.Swipes["diagonal"] = "keep" }, "swipe direction"},
		{"reserved key", func(v *Variant) { v.Keys["u"] = "keep" }, "reserved"},
		{"multi-char key", func(v *Variant) { v.Keys["kk"] = "keep" }, "single lowercase"},
		{"uppercase key", func(v *Variant) { v.Keys["K"] = "keep" }, "single lowercase"},
		{"notes without status", func(v *Variant) { v.Keys["n"] = NotesAction }, "notes_status"},
		{"bad notes status", func(v *Variant) { v.NotesStatus = "archive" }, "notes_status"},
		{"scope own field", func(v *Variant) { v.Scope = map[string]string{"status": "keep"} }, "own status field"},
		{"scope bad column", func(v *Variant) { v.Scope = map[string]string{"notes": "x"} }, "cannot scope"},
		{"secondary same field", func(v *Variant) {
			v.Secondary = &SecondaryFilter{Field: "status", Values: []string{"keep"}}
		}, "secondary"},
		{"secondary empty", func(v *Variant) {
			v.Secondary = &SecondaryFilter{Field: "review_status"}
		}, "no values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base()
			tt.mutate(v)
			err := v.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestScopePredicates(t *testing.T) {
	v := &Variant{Scope: map[string]string{"status": "keep", "category": "loans"}}
	assert.Equal(t, []db.Predicate{
		{Field: "category", Value: "loans"},
		{Field: "status", Value: "keep"},
	}, v.ScopePredicates())
}

func TestVariantFromYAML(t *testing.T) {
	src := `
name: labels
status_field: review_status
pending: open
statuses: [good, bad]
scope:
  status: keep
swipes:
  right: good
  left: bad
keys:
  g: good
  b: bad
`
	var v Variant
	require.NoError(t, yaml.Unmarshal([]byte(src), &v))
	require.NoError(t, v.Validate())
	assert.Equal(t, "good", v.SwipeAction(Right))
	assert.Equal(t, "", v.SwipeAction(Up))
}
