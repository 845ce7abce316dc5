package world

import (
	"testing"
	"time"

	"github.com/annel0/chunk-streamer/internal/scene"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentStore(t *testing.T) {
	s := NewContentStore()
	key := CellKey{X: 1}
	pos := vec.Vec3{X: 9, Y: 3, Z: 2}

	err := s.Put(&BlockRecord{Pos: pos, Material: block.StoneBlockID, Cell: key, Drawable: Plain{}})
	assert.ErrorIs(t, err, ErrCellNotResident)

	s.OpenCell(key)
	require.NoError(t, s.Put(&BlockRecord{Pos: pos, Material: block.StoneBlockID, Cell: key, Drawable: Plain{}}))
	require.NoError(t, s.Put(&BlockRecord{Pos: vec.Vec3{X: 9, Y: 1, Z: 2}, Material: block.DirtBlockID, Cell: key, Drawable: Plain{}}))
	assert.Error(t, s.Put(&BlockRecord{Pos: pos, Material: block.SandBlockID, Cell: key}))

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 2, s.CellBlockCount(key))
	assert.Equal(t, 2, s.ColumnScan(key, testGeometry))

	blocks := s.CellBlocks(key)
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Pos.Y, "sorted bottom-up")

	rec, ok := s.Remove(pos)
	require.True(t, ok)
	assert.Equal(t, block.StoneBlockID, rec.Material)
	_, ok = s.Remove(pos)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Count())

	assert.Equal(t, 1, s.CloseCell(key))
	assert.False(t, s.HasCell(key))
}

func TestDecorationTracker(t *testing.T) {
	tr := NewDecorationTracker()
	key := CellKey{Z: -1}
	anchor := vec.Vec3{X: 1, Y: 2, Z: -3}
	d := &Decoration{Anchor: anchor, Cell: key, Handle: scene.Handle(7)}

	assert.ErrorIs(t, tr.Add(d), ErrCellNotResident)

	tr.OpenCell(key)
	require.NoError(t, tr.Add(d))
	assert.Error(t, tr.Add(d))
	assert.Equal(t, 1, tr.Count())

	got, ok := tr.At(key, anchor)
	require.True(t, ok)
	assert.Equal(t, scene.Handle(7), got.Handle)
	assert.Len(t, tr.CellDecorations(key), 1)

	_, ok = tr.Remove(key, anchor)
	assert.True(t, ok)
	_, ok = tr.Remove(key, anchor)
	assert.False(t, ok)
	assert.Zero(t, tr.Count())
	assert.Zero(t, tr.CloseCell(key))
	assert.Empty(t, tr.Cells())
}

func TestAuxIndexForget(t *testing.T) {
	a := NewAuxIndex()
	key := CellKey{X: 2, Z: 2}
	now := time.Now()

	a.MarkVisited(key, now)
	a.SetSpawnTime(key, now)
	a.AddResourceNode(key, vec.Vec3{X: 16, Y: 1, Z: 17}, block.IronOreBlockID)
	a.AddResourceNode(key, vec.Vec3{X: 17, Y: 1, Z: 17}, block.CoalOreBlockID)
	a.AddResourceNode(CellKey{}, vec.Vec3{X: 1, Y: 1, Z: 1}, block.GoldOreBlockID)

	assert.True(t, a.Visited(key))
	assert.Equal(t, 3, a.ResourceNodeCount())
	assert.Len(t, a.Keys(), 2)

	assert.Equal(t, 2, a.Forget(key))
	assert.False(t, a.Has(key))
	assert.False(t, a.Visited(key))
	_, ok := a.SpawnTime(key)
	assert.False(t, ok)
	assert.Equal(t, 1, a.ResourceNodeCount())
	assert.Zero(t, a.Forget(key))
}

func TestRegistryTransitions(t *testing.T) {
	r := NewRegistry()
	key := CellKey{X: -3, Z: 4}
	now := time.Now()

	assert.ErrorIs(t, r.MarkGenerating(key, uuid.New()), ErrInconsistentState)

	meta, created := r.Request(key, now)
	require.True(t, created)
	assert.Equal(t, StatePending, meta.State)
	_, created = r.Request(key, now)
	assert.False(t, created)

	assert.ErrorIs(t, r.MarkResident(key, now), ErrInconsistentState)

	ticket := uuid.New()
	require.NoError(t, r.MarkGenerating(key, ticket))
	assert.ErrorIs(t, r.MarkGenerating(key, uuid.New()), ErrInconsistentState)
	require.NoError(t, r.MarkResident(key, now))

	got, ok := r.Get(key)
	require.True(t, ok)
	assert.Equal(t, StateResident, got.State)
	assert.Equal(t, ticket, got.Ticket)
	assert.Equal(t, 1, got.Dispatches)

	_, _, resident := r.CountByState()
	assert.Equal(t, 1, resident)

	_, ok = r.remove(key)
	assert.True(t, ok)
	assert.Zero(t, r.Len())
}
