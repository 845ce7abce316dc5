package world

import (
	"testing"

	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictAbsentKeyIsNoop(t *testing.T) {
	s, _ := newTestStreamer(t, testOptions(), nil, nil)

	report := s.eviction.Evict(CellKey{X: 5, Z: 5}, ReasonDistance)
	assert.True(t, report.Absent)
	assert.Zero(t, report.Blocks)
	assert.Zero(t, s.Stats().TotalEvictions())
}

func TestEvictIsIdempotent(t *testing.T) {
	s, sc := newTestStreamer(t, testOptions(), nil, nil)
	key := CellKey{X: 1}

	moveTo(s, CellKey{})
	passAndSettle(t, s)

	first := s.eviction.Evict(key, ReasonInvalidate)
	assert.False(t, first.Absent)
	assert.True(t, first.HadRegistry)
	assert.Equal(t, StateResident, first.PrevState)
	assert.Equal(t, cellBlocks, first.Blocks)
	assert.Equal(t, cellDecorations, first.Decorations)
	assert.Equal(t, 1, first.ResourceNodes)
	assert.Zero(t, first.DisposeFailures)

	second := s.eviction.Evict(key, ReasonInvalidate)
	assert.True(t, second.Absent)
	assert.Equal(t, 24*cellDrawables, sc.Live())
	requireConsistent(t, s)
}

func TestEvictCoversFullHeight(t *testing.T) {
	s, _ := newTestStreamer(t, testOptions(), nil, nil)
	key := CellKey{}

	moveTo(s, key)
	passAndSettle(t, s)

	// Блоки у самого верха и самого низа мира
	require.NoError(t, s.PlaceBlock(vec.Vec3{X: 7, Y: testGeometry.MaxY - 1, Z: 7}, block.GlassBlockID))
	require.NoError(t, s.PlaceBlock(vec.Vec3{X: 7, Y: testGeometry.MinY, Z: 7}, block.GlassBlockID))
	require.Equal(t, cellBlocks+2, s.content.ColumnScan(key, testGeometry))

	report := s.eviction.Evict(key, ReasonDistance)
	assert.Equal(t, cellBlocks+2, report.Blocks)
	assert.Zero(t, s.content.ColumnScan(key, testGeometry))
	assert.Equal(t, 24*cellBlocks, s.content.Count())
}

func TestEvictContinuesOnDisposeFailure(t *testing.T) {
	s, sc := newTestStreamer(t, testOptions(), nil, nil)
	key := CellKey{}

	moveTo(s, key)
	passAndSettle(t, s)

	// Ресурс освобождён кем-то ещё: eviction всё равно удаляет запись
	rec, ok := s.content.Get(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	d, ok := rec.Drawable.(WithDrawable)
	require.True(t, ok)
	sc.ForceRelease(d.Handle)

	report := s.eviction.Evict(key, ReasonPressure)
	assert.Equal(t, 1, report.DisposeFailures)
	assert.Equal(t, cellBlocks, report.Blocks)
	assert.False(t, s.registry.Has(key))
	assert.Equal(t, 24*cellDrawables, sc.Live())
	requireConsistent(t, s)
}

func TestEvictReclaimsPartialKey(t *testing.T) {
	s, _ := newTestStreamer(t, testOptions(), nil, nil)
	key := CellKey{X: 3}

	s.decorations.OpenCell(key)
	s.aux.AddResourceNode(key, vec.Vec3{X: 24, Y: 2, Z: 0}, block.CoalOreBlockID)

	report := s.eviction.Evict(key, ReasonReclaim)
	assert.False(t, report.Absent)
	assert.False(t, report.HadRegistry)
	assert.Equal(t, 1, report.ResourceNodes)
	assert.False(t, s.decorations.HasCell(key))
	assert.False(t, s.aux.Has(key))
}

func TestEvictGeneratingCellCancelsTicket(t *testing.T) {
	opts := testOptions()
	opts.RenderRadius = 0
	opts.Workers = 1
	gen := newGatedGenerator(columnGenerator{geom: testGeometry}, CellKey{})
	s, _ := newTestStreamer(t, opts, gen, nil)

	moveTo(s, CellKey{})
	s.Pass(ctx)
	gen.waitStarted(t, CellKey{})
	meta, _ := s.Cell(CellKey{})

	report := s.eviction.Evict(CellKey{}, ReasonDistance)
	assert.Equal(t, StateGenerating, report.PrevState)
	assert.True(t, s.pool.isCancelled(meta.Ticket))
}
