package variant

import (
	"fmt"
	"sort"
)

// Default is the variant used when none is configured.
const Default = "curate"

// Builtins returns fresh copies of the built-in variants.
func Builtins() []*Variant {
	return []*Variant{
		{
			Name:        "curate",
			Description: "keep, delete or favorite each record",
			StatusField: "status",
			Pending:     "pending",
			Statuses:    []string{"keep", "delete", "favorite"},
			Swipes: map[Direction]string{
				Right: "keep",
				Left:  "delete",
				Up:    "favorite",
				Down:  NotesAction,
			},
			Keys: map[string]string{
				"k": "keep",
				"d": "delete",
				"f": "favorite",
				"n": NotesAction,
			},
			NotesStatus: "keep",
		},
		{
			Name:        "triage",
			Description: "second pass over curated records",
			StatusField: "review_status",
			Pending:     "pending",
			Statuses:    []string{"approved", "rejected", "flagged"},
			Secondary: &SecondaryFilter{
				Field:  "status",
				Values: []string{"keep", "favorite"},
			},
			Swipes: map[Direction]string{
				Right: "approved",
				Left:  "rejected",
				Up:    "flagged",
				Down:  NotesAction,
			},
			Keys: map[string]string{
				"a": "approved",
				"x": "rejected",
				"g": "flagged",
				"n": NotesAction,
			},
			NotesStatus: "approved",
		},
		{
			Name:        "verify",
			Description: "mark each record correct or incorrect",
			StatusField: "status",
			Pending:     "pending",
			Statuses:    []string{"correct", "incorrect", "unsure"},
			Swipes: map[Direction]string{
				Right: "correct",
				Left:  "incorrect",
				Up:    "unsure",
				Down:  NotesAction,
			},
			Keys: map[string]string{
				"c": "correct",
				"w": "incorrect",
				"m": "unsure",
				"n": NotesAction,
			},
			NotesStatus: "unsure",
		},
	}
}

// Registry resolves variants by name.
type Registry struct {
	byName map[string]*Variant
}

// NewRegistry builds a registry of the built-ins plus custom variants.
// A custom variant with a built-in's name replaces it.
func NewRegistry(custom []*Variant) (*Registry, error) {
	r := &Registry{byName: map[string]*Variant{}}
	for _, v := range Builtins() {
		r.byName[v.Name] = v
	}
	for _, v := range custom {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		r.byName[v.Name] = v
	}
	return r, nil
}

// Get returns the named variant.
func (r *Registry) Get(name string) (*Variant, error) {
	if name == "" {
		name = Default
	}
	v, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (have: %v)", name, r.Names())
	}
	return v, nil
}

// Names returns all variant names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
