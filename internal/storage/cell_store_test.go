package storage

import (
	"testing"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world"
	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *CellStore {
	t.Helper()
	store, err := NewCellStore(t.TempDir(), logging.NewConsoleLogger("storage", logging.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLoadCell(t *testing.T) {
	store := setupTestStore(t)
	key := world.CellKey{X: -3, Z: 7}
	blocks := []world.BlockSpec{
		{Pos: vec.Vec3{X: -48, Y: 40, Z: 112}, Material: block.PlanksBlockID, PlayerPlaced: true},
		{Pos: vec.Vec3{X: -47, Y: 127, Z: 113}, Material: block.TorchBlockID, PlayerPlaced: true},
	}

	require.NoError(t, store.SaveCell(key, blocks))

	got, found, err := store.LoadCell(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, blocks, got)

	keys, err := store.Cells()
	require.NoError(t, err)
	assert.Equal(t, []world.CellKey{key}, keys)
}

func TestLoadMissingCell(t *testing.T) {
	store := setupTestStore(t)

	got, found, err := store.LoadCell(world.CellKey{X: 1})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestDeleteCell(t *testing.T) {
	store := setupTestStore(t)
	key := world.CellKey{X: 4, Z: 4}

	require.NoError(t, store.SaveCell(key, []world.BlockSpec{{Pos: vec.Vec3{X: 64, Y: 1, Z: 64}, Material: block.GlassBlockID}}))
	require.NoError(t, store.DeleteCell(key))
	_, found, err := store.LoadCell(key)
	require.NoError(t, err)
	assert.False(t, found)

	// Удаление отсутствующей ячейки не ошибка
	assert.NoError(t, store.DeleteCell(world.CellKey{X: 99}))
}

func TestClosedStore(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.SaveCell(world.CellKey{}, nil), ErrNotReady)
	_, _, err := store.LoadCell(world.CellKey{})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEncodeDecodeCell(t *testing.T) {
	key := world.CellKey{X: 2, Z: -1}
	blocks := []world.BlockSpec{{Pos: vec.Vec3{X: 33, Y: 9, Z: -3}, Material: block.GoldOreBlockID, PlayerPlaced: true}}

	data, err := EncodeCell(key, blocks)
	require.NoError(t, err)

	gotKey, gotBlocks, err := DecodeCell(data)
	require.NoError(t, err)
	assert.Equal(t, key, gotKey)
	assert.Equal(t, blocks, gotBlocks)

	_, _, err = DecodeCell([]byte("not zstd"))
	assert.Error(t, err)
}

func TestStoreBacksStreamerPersistence(t *testing.T) {
	store := setupTestStore(t)
	var p world.Persistence = store

	key := world.CellKey{}
	require.NoError(t, p.SaveCell(key, []world.BlockSpec{{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}, Material: block.PlanksBlockID, PlayerPlaced: true}}))
	blocks, found, err := p.LoadCell(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, blocks, 1)
}
