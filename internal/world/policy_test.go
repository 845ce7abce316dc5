package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	p := DistancePolicy{Metric: Chebyshev}
	r := Radii{Render: 2, Cleanup: 8}
	o := CellKey{}

	tests := []struct {
		key  CellKey
		want Class
	}{
		{CellKey{0, 0}, MustRender},
		{CellKey{2, -2}, MustRender},
		{CellKey{3, 0}, KeepCached},
		{CellKey{5, 0}, KeepCached},
		{CellKey{-8, 8}, KeepCached},
		{CellKey{9, 0}, MustEvict},
		{CellKey{0, -9}, MustEvict},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Classify(o, tt.key, r), "key %s", tt.key)
	}
}

func TestMetrics(t *testing.T) {
	a, b := CellKey{0, 0}, CellKey{3, 4}
	assert.Equal(t, 4.0, Chebyshev.Distance(a, b))
	assert.Equal(t, 7.0, Manhattan.Distance(a, b))
	assert.InDelta(t, 5.0, Euclidean.Distance(a, b), 1e-9)

	for _, name := range []string{"chebyshev", "manhattan", "euclidean"} {
		m, err := ParseMetric(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.String())
	}
	_, err := ParseMetric("taxicab")
	assert.Error(t, err)
}

func TestRenderSetNearestFirst(t *testing.T) {
	p := DistancePolicy{Metric: Chebyshev}
	o := CellKey{X: 10, Z: -4}

	keys := p.RenderSet(o, Radii{Render: 2, Cleanup: 8})
	require.Len(t, keys, 25)
	assert.Equal(t, o, keys[0])
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, p.Metric.Distance(o, keys[i-1]), p.Metric.Distance(o, keys[i]))
	}

	manhattan := DistancePolicy{Metric: Manhattan}.RenderSet(CellKey{}, Radii{Render: 2, Cleanup: 2})
	assert.Len(t, manhattan, 13)

	assert.Equal(t, []CellKey{o}, p.RenderSet(o, Radii{}))
}

func TestEffectiveRadiiClampsRender(t *testing.T) {
	assert.Equal(t, Radii{Render: 2, Cleanup: 8}, EffectiveRadii(2, 8))
	assert.Equal(t, Radii{Render: 2, Cleanup: 2}, EffectiveRadii(2, 2))
	assert.Equal(t, Radii{Render: 0, Cleanup: 0}, EffectiveRadii(2, 0))
	assert.Equal(t, Radii{Render: 1, Cleanup: 1}, EffectiveRadii(2, 1))
	assert.Equal(t, Radii{Render: 0, Cleanup: 0}, EffectiveRadii(2, -3))
}
