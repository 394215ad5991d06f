package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	t.Parallel()
	tbl := Default()
	require.Equal(t, 13, tbl.Len())

	tests := []struct {
		key  string
		name string
	}{
		{key: "bossBully", name: "Reshala"},
		{key: "bossKilla", name: "Killa"},
		{key: "followerBigPipe", name: "Big Pipe"},
		{key: "sectantPriest", name: "Cultist Priest"},
		{key: "bossBoarSniper", name: "Kaban Sniper"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tbl.Known(tt.key))
			assert.Equal(t, tt.name, tbl.Name(tt.key))
		})
	}
}

func TestUnknownKeysNeverMatch(t *testing.T) {
	t.Parallel()
	tbl := Default()
	for _, key := range []string{"", "assault", "pmcBot", "BOSSKILLA", "bossKilla "} {
		assert.Falsef(t, tbl.Known(key), "key %q", key)
	}
}

func TestNameFallsBackToKey(t *testing.T) {
	t.Parallel()
	tbl := New(Entry{Key: "bossPartisan"})
	assert.True(t, tbl.Known("bossPartisan"))
	assert.Equal(t, "bossPartisan", tbl.Name("bossPartisan"))
	assert.Equal(t, "whatever", tbl.Name("whatever"))
}

func TestExtendKeepsOrderAndOverrides(t *testing.T) {
	t.Parallel()
	base := New(Entry{Key: "a", Name: "A"}, Entry{Key: "b", Name: "B"})
	ext := base.Extend(Entry{Key: "c", Name: "C"}, Entry{Key: "a", Name: "Alpha"}, Entry{Key: "  "})

	assert.Equal(t, []Entry{{Key: "a", Name: "Alpha"}, {Key: "b", Name: "B"}, {Key: "c", Name: "C"}}, ext.Entries())
	assert.Equal(t, "A", base.Name("a"), "base table must not change")
	assert.Equal(t, []string{"a", "b", "c"}, ext.Keys())
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()
	tbl := Default()
	es := tbl.Entries()
	es[0].Name = "changed"
	assert.Equal(t, "Reshala", tbl.Name("bossBully"))
}

func TestNilTable(t *testing.T) {
	t.Parallel()
	var tbl *Table
	assert.False(t, tbl.Known("bossKilla"))
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, "bossKilla", tbl.Name("bossKilla"))
	assert.Nil(t, tbl.Entries())
}
