package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoise2D(7)
	b := NewNoise2D(7)

	for i := 0; i < 50; i++ {
		x, y := float64(i)*0.37, float64(i)*-0.11
		assert.Equal(t, a.At(x, y), b.At(x, y))
	}
}

func TestNoiseRange(t *testing.T) {
	n := NewNoise2D(99)
	for i := 0; i < 200; i++ {
		v := n.At(float64(i)*0.05, float64(i)*0.07)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
