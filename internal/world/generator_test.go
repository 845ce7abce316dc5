package world

import (
	"context"
	"testing"

	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerlinGeneratorDeterministic(t *testing.T) {
	gen := NewPerlinGenerator(DefaultGeometry())
	key := CellKey{X: 3, Z: -7}

	a, err := gen.Generate(context.Background(), key, 42)
	require.NoError(t, err)
	b, err := NewPerlinGenerator(DefaultGeometry()).Generate(context.Background(), key, 42)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Blocks)

	c, err := gen.Generate(context.Background(), key, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a.Blocks, c.Blocks)
}

func TestPerlinGeneratorStaysInsideCell(t *testing.T) {
	g := DefaultGeometry()
	gen := NewPerlinGenerator(g)

	for _, key := range []CellKey{{0, 0}, {-1, -1}, {5, -3}, {100, 100}} {
		batch, err := gen.Generate(context.Background(), key, 12345)
		require.NoError(t, err)
		assert.Equal(t, key, batch.Key)

		seen := make(map[[3]int]bool, len(batch.Blocks))
		decorated := 0
		for _, b := range batch.Blocks {
			require.Equal(t, key, g.CellOf(b.Pos), "block %s", b.Pos)
			require.True(t, g.InHeight(b.Pos.Y))
			require.True(t, block.IsValidBlockID(b.Material))
			require.False(t, b.PlayerPlaced)
			p := [3]int{b.Pos.X, b.Pos.Y, b.Pos.Z}
			require.False(t, seen[p], "duplicate %s", b.Pos)
			seen[p] = true
			if block.HasDecoration(b.Material) {
				decorated++
			}
		}
		assert.Equal(t, decorated, len(batch.Decorations))
		for _, d := range batch.Decorations {
			assert.True(t, seen[[3]int{d.Anchor.X, d.Anchor.Y, d.Anchor.Z}])
		}
	}
}

func TestPerlinGeneratorRejectsInvalidKey(t *testing.T) {
	gen := NewPerlinGenerator(DefaultGeometry())
	_, err := gen.Generate(context.Background(), CellKey{X: MaxCellCoord}, 1)
	assert.ErrorIs(t, err, ErrInvalidCellKey)
}

func TestPerlinGeneratorHonorsContext(t *testing.T) {
	gen := NewPerlinGenerator(DefaultGeometry())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, CellKey{}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPerlinGeneratorWithStreamer(t *testing.T) {
	opts := testOptions()
	opts.Geometry = DefaultGeometry()
	opts.RenderRadius = 1
	s, sc := newTestStreamer(t, opts, NewPerlinGenerator(opts.Geometry), nil)

	moveTo(s, CellKey{})
	passAndSettle(t, s)
	_, _, resident := s.registry.CountByState()
	require.Equal(t, 9, resident)
	assert.Positive(t, s.content.Count())
	assert.Positive(t, sc.Live())

	moveTo(s, CellKey{X: 50})
	s.Pass(ctx)
	require.NoError(t, s.Stop())
	assert.Zero(t, s.content.Count())
	assert.Zero(t, s.decorations.Count())
	assert.Zero(t, sc.Live())
}
