package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestCategoriesCommand(t *testing.T) {
	t.Parallel()
	out, err := execute(t, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "bossKilla")
	assert.Contains(t, out, "Cultist Priest")
	assert.Contains(t, out, "╭")
}

func TestCategoriesCommandWithConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "notifier.toml", `
[[categories]]
key = "bossPartisan"
name = "Partisan"
`)
	out, err := execute(t, "--config", cfg, "categories", "--json")
	require.NoError(t, err)

	var entries []struct{ Key, Name string }
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 14)
	assert.Equal(t, "bossPartisan", entries[13].Key)
	assert.Equal(t, "Partisan", entries[13].Name)
}

func TestScanCommand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raid := writeFile(t, dir, "raid.json", `{"session": "r1", "entities": [
		{"id": "a", "role": "bossGluhar", "position": {"x": -150, "y": 0, "z": 40}},
		{"id": "b", "role": "pmcUsec", "position": {"x": 1, "y": 0, "z": 1}}
	]}`)

	out, err := execute(t, "scan", "--feed", raid)
	require.NoError(t, err)
	assert.Contains(t, out, "Glukhar")
	assert.Contains(t, out, "Grid: -2, 0")

	out, err = execute(t, "scan", "--feed", raid, "--json")
	require.NoError(t, err)
	var alerts []scanAlert
	require.NoError(t, json.Unmarshal([]byte(out), &alerts))
	assert.Equal(t, []scanAlert{{Title: "Glukhar", Detail: "Grid: -2, 0"}}, alerts)
}

func TestScanCommandEmptyRaid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raid := writeFile(t, dir, "raid.yaml", "session: r2\nentities: []\n")
	out, err := execute(t, "scan", "--feed", raid, "--json")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "No bosses detected"), out)
}

func TestScanCommandNoRaid(t *testing.T) {
	t.Parallel()
	_, err := execute(t, "scan", "--feed", filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raid in progress")
}

func TestBadConfigFails(t *testing.T) {
	t.Parallel()
	cfg := writeFile(t, t.TempDir(), "notifier.json", `{"overlay": {"mode": "hologram"}}`)
	_, err := execute(t, "--config", cfg, "categories")
	assert.Error(t, err)
}
