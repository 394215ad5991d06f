// Package feed reads the raid population from a snapshot file that the game
// host rewrites while a raid is running.
//
// Snapshot format (JSON; .yaml/.yml files are accepted too):
//
//	{
//	  "session": "raid-7f3c",
//	  "entities": [
//	    {"id": "5f1e", "role": "bossKilla", "position": {"x": 312.4, "y": 4, "z": 215.9}, "local": false}
//	  ]
//	}
//
// A missing file means no raid is running. A change of the session field
// means the previous raid ended. Entities are decoded one by one, so a single
// malformed entry does not hide the rest of the population.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yaml "go.yaml.in/yaml/v3"

	"bossnotifier/internal/location"
	"bossnotifier/internal/scanner"
)

// Snapshot is the decoded file. Entities stay raw until inspected.
type Snapshot struct {
	Session  string            `json:"session"`
	Entities []json.RawMessage `json:"entities"`
}

// File is a scanner.Host backed by a snapshot file.
//
// The file is read on every call; the last parse is reused while the bytes
// hash the same.
type File struct {
	path string

	mu   sync.Mutex
	sum  uint64
	snap *Snapshot
}

// NewFile returns a host reading path.
func NewFile(path string) *File { return &File{path: path} }

func (f *File) Path() string { return f.path }

// World implements scanner.Host.
func (f *File) World() (scanner.World, error) {
	snap, err := f.load()
	if err != nil {
		return nil, err
	}
	return &world{file: f, session: snap.Session}, nil
}

// Load returns the current snapshot.
func (f *File) Load() (*Snapshot, error) { return f.load() }

func (f *File) load() (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if err != nil {
		f.snap = nil
		if errors.Is(err, fs.ErrNotExist) {
			return nil, scanner.ErrNoSession
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	sum := hashBytes(b)
	if f.snap != nil && sum == f.sum {
		return f.snap, nil
	}
	snap, err := Parse(f.path, b)
	if err != nil {
		f.snap = nil
		return nil, err
	}
	f.snap, f.sum = snap, sum
	return snap, nil
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// Parse decodes a snapshot. Files ending in .yaml/.yml are read as YAML.
// An empty document is treated as "no raid".
func Parse(path string, b []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, scanner.ErrNoSession
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var v any
		if err := yaml.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("snapshot yaml: %w", err)
		}
		jb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("snapshot yaml->json: %w", err)
		}
		b = jb
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if strings.TrimSpace(snap.Session) == "" {
		return nil, scanner.ErrNoSession
	}
	return &snap, nil
}

// Population wraps the raw entries as scanner entities.
func (s *Snapshot) Population() []scanner.Entity {
	out := make([]scanner.Entity, 0, len(s.Entities))
	for _, raw := range s.Entities {
		out = append(out, newEntity(raw))
	}
	return out
}

type world struct {
	file    *File
	session string
}

func (w *world) Population() ([]scanner.Entity, error) {
	snap, err := w.file.load()
	if err != nil {
		return nil, err
	}
	if snap.Session != w.session {
		return nil, fmt.Errorf("session changed from %q to %q: %w", w.session, snap.Session, scanner.ErrNoSession)
	}
	return snap.Population(), nil
}

type record struct {
	ID       *string        `json:"id"`
	Role     *string        `json:"role"`
	Position *location.Vec3 `json:"position"`
	Local    bool           `json:"local"`
}

type entity struct {
	rec *record
	err error
}

func newEntity(raw json.RawMessage) *entity {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return &entity{err: err}
	}
	return &entity{rec: &r}
}

func (e *entity) Identity() (string, error) {
	if e.err != nil {
		return "", e.err
	}
	if e.rec.ID == nil {
		return "", errors.New("id missing")
	}
	return *e.rec.ID, nil
}

func (e *entity) Category() (string, error) {
	if e.err != nil {
		return "", e.err
	}
	if e.rec.Role == nil {
		return "", nil
	}
	return *e.rec.Role, nil
}

func (e *entity) Position() (location.Vec3, error) {
	if e.err != nil {
		return location.Vec3{}, e.err
	}
	if e.rec.Position == nil {
		return location.Vec3{}, errors.New("position missing")
	}
	return *e.rec.Position, nil
}

func (e *entity) IsObserver() bool { return e.err == nil && e.rec.Local }
