package implementations

import "github.com/annel0/chunk-streamer/internal/world/block"

// Регистрируем все материалы при импорте пакета
func init() {
	// Базовые блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, newSolid(block.StoneBlockID, "Stone", "stone"))
	block.Register(block.DirtBlockID, newSolid(block.DirtBlockID, "Dirt", "dirt"))
	block.Register(block.GrassBlockID, newSolid(block.GrassBlockID, "Grass", "grass_top"))
	block.Register(block.SandBlockID, newSolid(block.SandBlockID, "Sand", "sand"))
	block.Register(block.SnowBlockID, newSolid(block.SnowBlockID, "Snow", "snow"))
	block.Register(block.WaterBlockID, &WaterBehavior{})

	// Растительность
	block.Register(block.TreeBlockID, newSolid(block.TreeBlockID, "Log", "oak_log"))
	block.Register(block.LeavesBlockID, newSolid(block.LeavesBlockID, "Leaves", "oak_leaves"))
	block.Register(block.CactusBlockID, newSolid(block.CactusBlockID, "Cactus", "cactus"))
	block.Register(block.FlowerBlockID, newDecorated(block.FlowerBlockID, "Flower", block.Decoration{Texture: "flower_red"}))
	block.Register(block.TallGrassBlockID, newDecorated(block.TallGrassBlockID, "TallGrass", block.Decoration{Texture: "tall_grass", Animated: true}))
	block.Register(block.MushroomBlockID, newDecorated(block.MushroomBlockID, "GlowMushroom", block.Decoration{Texture: "spores", Particles: true}))

	// Руды
	block.Register(block.CoalOreBlockID, &OreBehavior{Base: block.Base{BlockID: block.CoalOreBlockID, BlockName: "CoalOre", Tex: "coal_ore"}})
	block.Register(block.IronOreBlockID, &OreBehavior{Base: block.Base{BlockID: block.IronOreBlockID, BlockName: "IronOre", Tex: "iron_ore"}})
	block.Register(block.GoldOreBlockID, &OreBehavior{Base: block.Base{BlockID: block.GoldOreBlockID, BlockName: "GoldOre", Tex: "gold_ore"}})

	// Блоки игрока
	block.Register(block.PlanksBlockID, newSolid(block.PlanksBlockID, "Planks", "oak_planks"))
	block.Register(block.GlassBlockID, newSolid(block.GlassBlockID, "Glass", "glass"))
	block.Register(block.TorchBlockID, newDecorated(block.TorchBlockID, "Torch", block.Decoration{Texture: "flame", Animated: true, Particles: true}))
}

func newSolid(id block.BlockID, name, texture string) *block.Base {
	return &block.Base{BlockID: id, BlockName: name, Tex: texture}
}
