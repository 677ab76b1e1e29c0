// Package variant defines the status vocabularies a review session can run
// with and how gestures and keys map onto them.
package variant

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"datacurator/curate/internal/db"
)

// Direction is the dominant axis and sign of a completed swipe.
type Direction string

const (
	Right Direction = "right"
	Left  Direction = "left"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Directions lists every swipe direction in display order.
var Directions = []Direction{Left, Right, Up, Down}

// NotesAction opens the notes editor instead of classifying directly.
const NotesAction = "notes"

// Reserved keys are handled by the review screen itself and may not be
// bound to actions.
var Reserved = map[string]bool{
	"u": true, "s": true, "r": true, "q": true, "?": true,
	"[": true, "]": true,
}

// Variant is a status vocabulary with its action mapping.
type Variant struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`

	// StatusField is the column this variant classifies: status or review_status.
	StatusField string   `yaml:"status_field" json:"status_field"`
	Pending     string   `yaml:"pending" json:"pending"`
	Statuses    []string `yaml:"statuses" json:"statuses"` // terminal values

	// Scope restricts every query of this variant, e.g. {status: keep}.
	Scope map[string]string `yaml:"scope" json:"scope,omitempty"`

	// Secondary is an optional user-selectable filter on another column.
	Secondary *SecondaryFilter `yaml:"secondary" json:"secondary,omitempty"`

	Swipes      map[Direction]string `yaml:"swipes" json:"swipes"`
	Keys        map[string]string    `yaml:"keys" json:"keys"`
	NotesStatus string               `yaml:"notes_status" json:"notes_status"`
}

// SecondaryFilter lets the reviewer narrow the view by a second status column.
type SecondaryFilter struct {
	Field  string   `yaml:"field" json:"field"`
	Values []string `yaml:"values" json:"values"`
}

// IsStatus reports whether s is one of the variant's terminal statuses.
func (v *Variant) IsStatus(s string) bool {
	for _, st := range v.Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// SwipeAction returns the action bound to d, or "" if none.
func (v *Variant) SwipeAction(d Direction) string {
	return v.Swipes[d]
}

// KeyAction returns the action bound to a key press, matching case-insensitively.
func (v *Variant) KeyAction(key string) (string, bool) {
	a, ok := v.Keys[strings.ToLower(key)]
	return a, ok
}

// KeyFor returns the key bound to action, or "" if none.
func (v *Variant) KeyFor(action string) string {
	var found []string
	for k, a := range v.Keys {
		if a == action {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Strings(found)
	return found[0]
}

// Actions returns the variant's actions in stable order: statuses first,
// then notes if bound.
func (v *Variant) Actions() []string {
	out := append([]string{}, v.Statuses...)
	for _, a := range v.Keys {
		if a == NotesAction {
			return append(out, NotesAction)
		}
	}
	for _, a := range v.Swipes {
		if a == NotesAction {
			return append(out, NotesAction)
		}
	}
	return out
}

// ScopePredicates returns the variant's fixed scope as sorted predicates.
func (v *Variant) ScopePredicates() []db.Predicate {
	fields := make([]string, 0, len(v.Scope))
	for f := range v.Scope {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	preds := make([]db.Predicate, 0, len(fields))
	for _, f := range fields {
		preds = append(preds, db.Predicate{Field: f, Value: v.Scope[f]})
	}
	return preds
}

// Validate checks the vocabulary and mappings are self-consistent.
func (v *Variant) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("variant has no name")
	}
	if !db.IsStatusField(v.StatusField) {
		return fmt.Errorf("variant %s: status_field must be status or review_status, got %q", v.Name, v.StatusField)
	}
	if v.Pending == "" {
		return fmt.Errorf("variant %s: pending value is empty", v.Name)
	}
	if len(v.Statuses) == 0 {
		return fmt.Errorf("variant %s: no statuses", v.Name)
	}
	seen := map[string]bool{v.Pending: true}
	for _, s := range v.Statuses {
		if s == "" || s == NotesAction {
			return fmt.Errorf("variant %s: invalid status %q", v.Name, s)
		}
		if seen[s] {
			return fmt.Errorf("variant %s: duplicate status %q", v.Name, s)
		}
		seen[s] = true
	}

	checkAction := func(where, a string) error {
		if a == NotesAction || v.IsStatus(a) {
			return nil
		}
		return fmt.Errorf("variant %s: %s maps to unknown action %q", v.Name, where, a)
	}
	for d, a := range v.Swipes {
		switch d {
		case Right, Left, Up, Down:
		default:
			return fmt.Errorf("variant %s: unknown swipe direction %q", v.Name, d)
		}
		if err := checkAction("swipe "+string(d), a); err != nil {
			return err
		}
	}
	for k, a := range v.Keys {
		if utf8.RuneCountInString(k) != 1 || k != strings.ToLower(k) {
			return fmt.Errorf("variant %s: key %q must be a single lowercase character", v.Name, k)
		}
		if Reserved[k] {
			return fmt.Errorf("variant %s: key %q is reserved", v.Name, k)
		}
		if err := checkAction("key "+k, a); err != nil {
			return err
		}
	}
	if v.NotesStatus != "" && !v.IsStatus(v.NotesStatus) {
		return fmt.Errorf("variant %s: notes_status %q is not a status", v.Name, v.NotesStatus)
	}
	for _, a := range v.Actions() {
		if a == NotesAction && v.NotesStatus == "" {
			return fmt.Errorf("variant %s: notes action bound but notes_status unset", v.Name)
		}
	}

	for f := range v.Scope {
		if f != "category" && !db.IsStatusField(f) {
			return fmt.Errorf("variant %s: cannot scope on %q", v.Name, f)
		}
		if f == v.StatusField {
			return fmt.Errorf("variant %s: scope may not restrict its own status field", v.Name)
		}
	}
	if v.Secondary != nil {
		if !db.IsStatusField(v.Secondary.Field) || v.Secondary.Field == v.StatusField {
			return fmt.Errorf("variant %s: secondary filter must use the other status column", v.Name)
		}
		if len(v.Secondary.Values) == 0 {
			return fmt.Errorf("variant %s: secondary filter has no values", v.Name)
		}
	}
	return nil
}
