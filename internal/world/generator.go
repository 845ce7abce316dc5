package world

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/annel0/chunk-streamer/internal/util"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
	_ "github.com/annel0/chunk-streamer/internal/world/block/implementations"
)

// TerrainGenerator строит контент ячейки. Реализация обязана быть
// детерминированной (один ключ и сид дают один и тот же Batch) и не
// иметь побочных эффектов: вызывается из воркеров пула.
type TerrainGenerator interface {
	Generate(ctx context.Context, key CellKey, seed int64) (*Batch, error)
}

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

// Константы высот для генерации (доли высоты мира)
const (
	WaterLevel    = 0.30 // Ниже - вода
	MountainStart = 0.62 // Выше - каменистые горы
	SnowStart     = 0.72 // Выше - снег
)

// MaxCellCoord – предел координат ячейки; дальше ключ считается невалидным
const MaxCellCoord = 1 << 20

// PerlinGenerator генерирует ландшафт ячеек по шуму Перлина
type PerlinGenerator struct {
	Geometry      Geometry
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	ForestDensity float64 // Шанс дерева на равнинах
	SurfaceDepth  int     // Сколько слоёв под поверхностью хранится

	mu     sync.Mutex
	noises map[int64]*noisePair
}

type noisePair struct {
	height *util.Noise2D
	biome  *util.Noise2D
}

// NewPerlinGenerator создаёт генератор для указанной геометрии
func NewPerlinGenerator(g Geometry) *PerlinGenerator {
	return &PerlinGenerator{
		Geometry:      g,
		NoiseScale:    0.02,
		BiomeScale:    0.008,
		ForestDensity: 0.01,
		SurfaceDepth:  3,
		noises:        make(map[int64]*noisePair),
	}
}

func (pg *PerlinGenerator) noiseFor(seed int64) *noisePair {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if n, ok := pg.noises[seed]; ok {
		return n
	}
	n := &noisePair{
		height: util.NewNoise2D(seed),
		biome:  util.NewNoise2D(seed + 42),
	}
	pg.noises[seed] = n
	return n
}

// cellSeed смешивает сид мира и координаты ячейки (splitmix64)
func cellSeed(seed int64, key CellKey) int64 {
	z := uint64(seed) ^ uint64(int64(key.X))*0x9E3779B97F4A7C15 ^ uint64(int64(key.Z))*0xC2B2AE3D27D4EB4F
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// Generate строит блоки и декорации ячейки
func (pg *PerlinGenerator) Generate(ctx context.Context, key CellKey, seed int64) (*Batch, error) {
	if key.X <= -MaxCellCoord || key.X >= MaxCellCoord || key.Z <= -MaxCellCoord || key.Z >= MaxCellCoord {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCellKey, key)
	}

	g := pg.Geometry
	noise := pg.noiseFor(seed)
	rng := rand.New(rand.NewSource(cellSeed(seed, key)))
	origin := g.Origin(key)

	batch := &Batch{
		Key:    key,
		Seed:   seed,
		Blocks: make([]BlockSpec, 0, g.CellSize*g.CellSize*(pg.SurfaceDepth+1)),
	}
	// occupied защищает от наложения листвы соседних деревьев
	occupied := make(map[vec.Vec3]struct{})
	put := func(pos vec.Vec3, id block.BlockID) bool {
		if !g.InHeight(pos.Y) || g.CellOf(pos) != key {
			return false
		}
		if _, taken := occupied[pos]; taken {
			return false
		}
		occupied[pos] = struct{}{}
		batch.Blocks = append(batch.Blocks, BlockSpec{Pos: pos, Material: id})
		if d, ok := decorationFor(pos, id); ok {
			batch.Decorations = append(batch.Decorations, d)
		}
		return true
	}

	height := float64(g.Height())
	waterY := g.MinY + int(WaterLevel*height)

	for lz := 0; lz < g.CellSize; lz++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for lx := 0; lx < g.CellSize; lx++ {
			wx := origin.X + lx
			wz := origin.Z + lz

			h := noise.height.At(float64(wx)*pg.NoiseScale, float64(wz)*pg.NoiseScale)
			bv := noise.biome.At(float64(wx)*pg.BiomeScale, float64(wz)*pg.BiomeScale)
			biome := pg.getBiomeType(h, bv)

			// Оставляем запас сверху под деревья
			surfaceY := g.MinY + int(h*(height-8))
			if surfaceY < g.MinY+pg.SurfaceDepth {
				surfaceY = g.MinY + pg.SurfaceDepth
			}

			surfaceID, fillerID := pg.getBlocksForBiome(biome, h)
			put(vec.Vec3{X: wx, Y: surfaceY, Z: wz}, surfaceID)

			for d := 1; d <= pg.SurfaceDepth; d++ {
				id := fillerID
				if d == pg.SurfaceDepth {
					id = pg.pickStoneOrOre(rng)
				}
				put(vec.Vec3{X: wx, Y: surfaceY - d, Z: wz}, id)
			}

			if biome == BiomeWater {
				if surfaceY < waterY {
					put(vec.Vec3{X: wx, Y: waterY, Z: wz}, block.WaterBlockID)
				}
				continue
			}

			above := vec.Vec3{X: wx, Y: surfaceY + 1, Z: wz}
			switch {
			case biome == BiomeForest && rng.Float64() < 0.06:
				pg.placeTree(put, above, rng)
			case biome == BiomePlains && rng.Float64() < pg.ForestDensity:
				pg.placeTree(put, above, rng)
			case biome == BiomeDesert && rng.Float64() < 0.02:
				for i := 0; i < 1+rng.Intn(3); i++ {
					put(vec.Vec3{X: wx, Y: above.Y + i, Z: wz}, block.CactusBlockID)
				}
			case biome == BiomeForest && rng.Float64() < 0.01:
				put(above, block.MushroomBlockID)
			case (biome == BiomePlains || biome == BiomeForest) && rng.Float64() < 0.05:
				put(above, block.FlowerBlockID)
			case biome == BiomePlains && rng.Float64() < 0.08:
				put(above, block.TallGrassBlockID)
			}
		}
	}

	return batch, nil
}

// placeTree ставит ствол и крону. Крона обрезается границей ячейки,
// так что каждый блок принадлежит ячейке по своей координате.
func (pg *PerlinGenerator) placeTree(put func(vec.Vec3, block.BlockID) bool, base vec.Vec3, rng *rand.Rand) {
	trunk := 4 + rng.Intn(3) // Высота ствола 4-6 блоков
	for i := 0; i < trunk; i++ {
		put(vec.Vec3{X: base.X, Y: base.Y + i, Z: base.Z}, block.TreeBlockID)
	}

	top := base.Y + trunk
	for dy := -1; dy <= 1; dy++ {
		r := 2
		if dy == 1 {
			r = 1
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx == 0 && dz == 0 && dy < 1 {
					continue
				}
				put(vec.Vec3{X: base.X + dx, Y: top + dy, Z: base.Z + dz}, block.LeavesBlockID)
			}
		}
	}
}

// pickStoneOrOre выбирает блок нижнего слоя; руды попадают в индекс ресурсов
func (pg *PerlinGenerator) pickStoneOrOre(rng *rand.Rand) block.BlockID {
	r := rng.Float64()
	switch {
	case r < 0.005:
		return block.GoldOreBlockID
	case r < 0.02:
		return block.IronOreBlockID
	case r < 0.05:
		return block.CoalOreBlockID
	default:
		return block.StoneBlockID
	}
}

// getBlocksForBiome возвращает блок поверхности и заполнитель под ним
func (pg *PerlinGenerator) getBlocksForBiome(biome BiomeType, height float64) (surface, filler block.BlockID) {
	switch biome {
	case BiomeWater:
		return block.SandBlockID, block.SandBlockID
	case BiomeDesert:
		return block.SandBlockID, block.SandBlockID
	case BiomeMountains:
		if height >= SnowStart {
			return block.SnowBlockID, block.StoneBlockID
		}
		return block.StoneBlockID, block.StoneBlockID
	default:
		return block.GrassBlockID, block.DirtBlockID
	}
}

// getBiomeType определяет тип биома на основе значений шума
func (pg *PerlinGenerator) getBiomeType(height, biomeValue float64) BiomeType {
	if height < WaterLevel {
		return BiomeWater
	}
	if height > MountainStart {
		return BiomeMountains
	}

	// Для средних высот выбираем биом на основе biomeValue
	if biomeValue < 0.35 {
		return BiomeDesert
	} else if biomeValue > 0.65 {
		return BiomeForest
	}

	return BiomePlains
}
