// Package location turns world positions into short, human-readable labels.
//
// Labels are best-effort: the grid namer does not know real zone names, it
// only buckets the horizontal plane into square cells.
package location

import (
	"errors"
	"fmt"
	"math"
)

// DefaultCellSize is the grid cell edge length in world units.
const DefaultCellSize = 100.0

var ErrUnresolvable = errors.New("location unresolvable")

// Vec3 is a world position. X and Z span the horizontal plane, Y is height.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Namer produces a label for a position.
type Namer interface {
	Name(pos Vec3) (string, error)
}

// NamerFunc adapts a plain function to Namer.
type NamerFunc func(pos Vec3) (string, error)

func (f NamerFunc) Name(pos Vec3) (string, error) { return f(pos) }

// Grid labels a position with its cell on the X/Z plane, e.g. "Grid: 3, 2".
type Grid struct {
	CellSize float64
}

func (g Grid) Name(pos Vec3) (string, error) {
	x, z, err := g.Cell(pos)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Grid: %d, %d", x, z), nil
}

// Cell returns the floor-rounded cell indices for pos.
func (g Grid) Cell(pos Vec3) (int, int, error) {
	size := g.CellSize
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return 0, 0, fmt.Errorf("grid cell size %v: %w", size, ErrUnresolvable)
	}
	if !finite(pos.X) || !finite(pos.Z) {
		return 0, 0, fmt.Errorf("position (%v, %v): %w", pos.X, pos.Z, ErrUnresolvable)
	}
	cx := math.Floor(pos.X / size)
	cz := math.Floor(pos.Z / size)
	if cx > math.MaxInt32 || cx < math.MinInt32 || cz > math.MaxInt32 || cz < math.MinInt32 {
		return 0, 0, fmt.Errorf("position (%v, %v) out of grid range: %w", pos.X, pos.Z, ErrUnresolvable)
	}
	return int(cx), int(cz), nil
}

// Coordinates is the fallback label: raw X/Z rounded to whole units.
func Coordinates(pos Vec3) string {
	return fmt.Sprintf("(%.0f, %.0f)", pos.X, pos.Z)
}

// Resolve asks n for a label and falls back to Coordinates on failure (or
// when n is nil). The returned error is the namer's, for logging only.
func Resolve(n Namer, pos Vec3) (label string, err error) {
	if n == nil {
		return Coordinates(pos), nil
	}
	defer func() {
		if r := recover(); r != nil {
			label = Coordinates(pos)
			err = fmt.Errorf("namer panic: %v: %w", r, ErrUnresolvable)
		}
	}()
	label, err = n.Name(pos)
	if err != nil || label == "" {
		if err == nil {
			err = ErrUnresolvable
		}
		return Coordinates(pos), err
	}
	return label, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
