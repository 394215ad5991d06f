// Package catalog holds the table of notable entity categories (boss roles)
// and their display names.
package catalog

import (
	"sort"
	"strings"
)

// Entry maps a category key (as reported by the host for an entity's role)
// to a human-readable name.
type Entry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Table is an immutable set of known categories. The zero value matches nothing.
type Table struct {
	order []string
	names map[string]string
}

var defaultEntries = []Entry{
	{Key: "bossBully", Name: "Reshala"},
	{Key: "bossKilla", Name: "Killa"},
	{Key: "bossKojaniy", Name: "Shturman"},
	{Key: "bossSanitar", Name: "Sanitar"},
	{Key: "bossGluhar", Name: "Glukhar"},
	{Key: "bossTagilla", Name: "Tagilla"},
	{Key: "bossKnight", Name: "Knight"},
	{Key: "followerBigPipe", Name: "Big Pipe"},
	{Key: "followerBirdEye", Name: "Birdeye"},
	{Key: "sectantPriest", Name: "Cultist Priest"},
	{Key: "bossZryachiy", Name: "Zryachiy"},
	{Key: "bossBoar", Name: "Kaban"},
	{Key: "bossBoarSniper", Name: "Kaban Sniper"},
}

// Default returns the built-in boss table.
func Default() *Table { return New(defaultEntries...) }

// New builds a table from entries. Blank keys are ignored; a later entry for
// the same key replaces the earlier name. An entry with an empty name is still
// a known category (Name falls back to the key).
func New(entries ...Entry) *Table {
	t := &Table{names: make(map[string]string, len(entries))}
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			continue
		}
		if _, ok := t.names[key]; !ok {
			t.order = append(t.order, key)
		}
		t.names[key] = strings.TrimSpace(e.Name)
	}
	return t
}

// Extend returns a new table holding t's entries followed by extra.
func (t *Table) Extend(extra ...Entry) *Table {
	return New(append(t.Entries(), extra...)...)
}

// Known reports whether key is a notable category. Matching is exact.
func (t *Table) Known(key string) bool {
	if t == nil || key == "" {
		return false
	}
	_, ok := t.names[key]
	return ok
}

// Name returns the display name for key, or the key itself when no name is mapped.
func (t *Table) Name(key string) string {
	if t == nil {
		return key
	}
	if n := t.names[key]; n != "" {
		return n
	}
	return key
}

// Len returns the number of categories.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Entries returns a copy of the table in insertion order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, Entry{Key: k, Name: t.names[k]})
	}
	return out
}

// Keys returns the category keys sorted alphabetically.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	keys := append([]string(nil), t.order...)
	sort.Strings(keys)
	return keys
}
