package implementations

import (
	"testing"

	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialsRegistered(t *testing.T) {
	ids := []block.BlockID{
		block.AirBlockID, block.StoneBlockID, block.DirtBlockID, block.GrassBlockID,
		block.SandBlockID, block.SnowBlockID, block.WaterBlockID, block.TreeBlockID,
		block.LeavesBlockID, block.CactusBlockID, block.FlowerBlockID, block.TallGrassBlockID,
		block.MushroomBlockID, block.CoalOreBlockID, block.IronOreBlockID, block.GoldOreBlockID,
		block.PlanksBlockID, block.GlassBlockID, block.TorchBlockID,
	}
	for _, id := range ids {
		assert.True(t, block.IsValidBlockID(id), "материал %d не зарегистрирован", id)
	}
}

func TestDecoratedMaterials(t *testing.T) {
	assert.True(t, block.HasDecoration(block.FlowerBlockID))
	assert.True(t, block.HasDecoration(block.TorchBlockID))
	assert.False(t, block.HasDecoration(block.StoneBlockID))

	flower, ok := block.Get(block.FlowerBlockID)
	require.True(t, ok)
	assert.False(t, flower.Visible(), "у якоря декорации нет собственного меша")

	torch, _ := block.Get(block.TorchBlockID)
	d, has := torch.Decoration()
	require.True(t, has)
	assert.True(t, d.Particles)
}

func TestResourceNodes(t *testing.T) {
	assert.True(t, block.IsResourceNode(block.IronOreBlockID))
	assert.False(t, block.IsResourceNode(block.DirtBlockID))
	assert.False(t, block.IsResourceNode(block.BlockID(9999)))
}
