package location

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		pos  Vec3
		want string
	}{
		{name: "positive", pos: Vec3{X: 312.4, Y: 4, Z: 215.9}, want: "Grid: 3, 2"},
		{name: "origin", pos: Vec3{}, want: "Grid: 0, 0"},
		{name: "negative floors down", pos: Vec3{X: -0.5, Z: -150}, want: "Grid: -1, -2"},
		{name: "cell edge", pos: Vec3{X: 100, Z: 199.999}, want: "Grid: 1, 1"},
		{name: "height ignored", pos: Vec3{X: 50, Y: 9000, Z: 50}, want: "Grid: 0, 0"},
	}
	g := Grid{CellSize: DefaultCellSize}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := g.Name(tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGridFailures(t *testing.T) {
	t.Parallel()
	_, err := Grid{}.Name(Vec3{X: 1, Z: 1})
	assert.ErrorIs(t, err, ErrUnresolvable)

	_, err = Grid{CellSize: 100}.Name(Vec3{X: math.NaN(), Z: 1})
	assert.ErrorIs(t, err, ErrUnresolvable)

	_, err = Grid{CellSize: 100}.Name(Vec3{X: 1, Z: math.Inf(1)})
	assert.ErrorIs(t, err, ErrUnresolvable)

	_, err = Grid{CellSize: 1e-300}.Name(Vec3{X: 1e10, Z: 1})
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestCoordinates(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "(312, 216)", Coordinates(Vec3{X: 312.4, Y: 7, Z: 215.9}))
	assert.Equal(t, "(-3, 0)", Coordinates(Vec3{X: -3.2, Z: 0.1}))
}

func TestResolveFallsBack(t *testing.T) {
	t.Parallel()
	pos := Vec3{X: 12.6, Z: 40.2}

	label, err := Resolve(Grid{CellSize: 100}, pos)
	require.NoError(t, err)
	assert.Equal(t, "Grid: 0, 0", label)

	boom := errors.New("boom")
	label, err = Resolve(NamerFunc(func(Vec3) (string, error) { return "", boom }), pos)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "(13, 40)", label)

	label, err = Resolve(NamerFunc(func(Vec3) (string, error) { return "", nil }), pos)
	assert.ErrorIs(t, err, ErrUnresolvable)
	assert.Equal(t, "(13, 40)", label)

	label, err = Resolve(NamerFunc(func(Vec3) (string, error) { panic("nope") }), pos)
	assert.ErrorIs(t, err, ErrUnresolvable)
	assert.Equal(t, "(13, 40)", label)

	label, err = Resolve(nil, pos)
	require.NoError(t, err)
	assert.Equal(t, "(13, 40)", label)
}
