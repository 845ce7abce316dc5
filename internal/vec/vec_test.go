package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, size, want int
	}{
		{0, 16, 0},
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorDiv(tt.a, tt.size), "FloorDiv(%d, %d)", tt.a, tt.size)
	}
}

func TestFloorMod(t *testing.T) {
	assert.Equal(t, 15, FloorMod(-1, 16))
	assert.Equal(t, 0, FloorMod(-16, 16))
	assert.Equal(t, 3, FloorMod(19, 16))
}

func TestDistances(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	b := Vec2{X: 3, Y: -5}

	assert.Equal(t, 5, a.Chebyshev(b))
	assert.Equal(t, 8, a.Manhattan(b))
	assert.InDelta(t, 5.830, a.DistanceTo(b), 0.001)
}

func TestVec3FloatFloor(t *testing.T) {
	p := Vec3Float{X: -0.5, Y: 10.9, Z: 31.2}
	assert.Equal(t, Vec3{X: -1, Y: 10, Z: 31}, p.Floor())
	assert.Equal(t, Vec2{X: -1, Y: 31}, p.Floor().Horizontal())
}
