package world

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/scene"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/stretchr/testify/require"
)

// testGeometry – маленькие ячейки 8x8, высота 0..31
var testGeometry = Geometry{CellSize: 8, MinY: 0, MaxY: 32}

const (
	// columnGenerator: столб на всю высоту + площадка 4x4 + цветок + руда
	cellBlocks      = 32 + 16 + 1 + 1
	cellDecorations = 1
	// цветок невидим (только билборд), остальные блоки с мешем
	cellDrawables = cellBlocks - 1 + cellDecorations
)

// columnGenerator строит одинаковую по форме ячейку. Столб в углу ячейки
// занимает весь диапазон высот, чтобы проверять вытеснение по полной высоте.
type columnGenerator struct {
	geom Geometry
}

func (g columnGenerator) Generate(ctx context.Context, key CellKey, seed int64) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := g.geom.Origin(key)
	b := &Batch{Key: key, Seed: seed}

	for y := g.geom.MinY; y < g.geom.MaxY; y++ {
		b.Blocks = append(b.Blocks, BlockSpec{Pos: vec.Vec3{X: o.X, Y: y, Z: o.Z}, Material: block.StoneBlockID})
	}
	surface := block.GrassBlockID
	if seed%2 == 1 {
		surface = block.SandBlockID
	}
	for lx := 1; lx <= 4; lx++ {
		for lz := 1; lz <= 4; lz++ {
			b.Blocks = append(b.Blocks, BlockSpec{Pos: vec.Vec3{X: o.X + lx, Y: 10, Z: o.Z + lz}, Material: surface})
		}
	}

	flower := vec.Vec3{X: o.X + 1, Y: 11, Z: o.Z + 1}
	b.Blocks = append(b.Blocks, BlockSpec{Pos: flower, Material: block.FlowerBlockID})
	d, _ := decorationFor(flower, block.FlowerBlockID)
	b.Decorations = append(b.Decorations, d)

	b.Blocks = append(b.Blocks, BlockSpec{Pos: vec.Vec3{X: o.X + 6, Y: 5, Z: o.Z + 6}, Material: block.CoalOreBlockID})
	return b, nil
}

// gatedGenerator задерживает генерацию выбранных ячеек до закрытия release
type gatedGenerator struct {
	inner   TerrainGenerator
	gated   map[CellKey]bool
	started chan CellKey
	release chan struct{}
}

func newGatedGenerator(inner TerrainGenerator, keys ...CellKey) *gatedGenerator {
	g := &gatedGenerator{
		inner:   inner,
		gated:   make(map[CellKey]bool),
		started: make(chan CellKey, 64),
		release: make(chan struct{}),
	}
	for _, k := range keys {
		g.gated[k] = true
	}
	return g
}

func (g *gatedGenerator) Generate(ctx context.Context, key CellKey, seed int64) (*Batch, error) {
	if g.gated[key] {
		g.started <- key
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.inner.Generate(ctx, key, seed)
}

func (g *gatedGenerator) waitStarted(t *testing.T, key CellKey) {
	t.Helper()
	select {
	case k := <-g.started:
		require.Equal(t, key, k)
	case <-time.After(5 * time.Second):
		t.Fatalf("generation of %s did not start", key)
	}
}

// failingGenerator возвращает ошибку для выбранных ячеек
type failingGenerator struct {
	inner TerrainGenerator
	fail  map[CellKey]bool
	panic bool
}

func (g failingGenerator) Generate(ctx context.Context, key CellKey, seed int64) (*Batch, error) {
	if g.fail[key] {
		if g.panic {
			panic("generator exploded")
		}
		return nil, errors.New("out of memory")
	}
	return g.inner.Generate(ctx, key, seed)
}

// memPersistence – Persistence в памяти. LoadCell вызывается из воркеров.
type memPersistence struct {
	mu    sync.Mutex
	cells   map[CellKey][]BlockSpec
	saves   int
	deletes int
}

func (p *memPersistence) writes() (saves, deletes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves, p.deletes
}

func newMemPersistence() *memPersistence {
	return &memPersistence{cells: make(map[CellKey][]BlockSpec)}
}

func (p *memPersistence) SaveCell(key CellKey, blocks []BlockSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cells[key] = append([]BlockSpec(nil), blocks...)
	p.saves++
	return nil
}

func (p *memPersistence) LoadCell(key CellKey) ([]BlockSpec, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	blocks, ok := p.cells[key]
	return append([]BlockSpec(nil), blocks...), ok, nil
}

func (p *memPersistence) DeleteCell(key CellKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cells, key)
	p.deletes++
	return nil
}

func testOptions() Options {
	return Options{
		Geometry:      testGeometry,
		Seed:          7,
		RenderRadius:  2,
		CleanupRadius: 8,
		Metric:        Chebyshev,
		LowThreshold:  1 << 30,
		HighThreshold: 1 << 31,
		Workers:       2,
		QueueSize:     256,
	}
}

func testLogger() *logging.Logger {
	return logging.NewConsoleLogger("test", logging.ERROR)
}

func newTestStreamer(t *testing.T, opts Options, gen TerrainGenerator, persist Persistence) (*Streamer, *scene.MemoryScene) {
	t.Helper()
	if gen == nil {
		gen = columnGenerator{geom: opts.Geometry}
	}
	sc := scene.NewMemoryScene()
	s := NewStreamer(opts, gen, sc, persist, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = s.Stop()
	})
	return s, sc
}

// moveTo ставит наблюдателя в центр ячейки
func moveTo(s *Streamer, key CellKey) {
	size := float64(s.opts.Geometry.CellSize)
	s.SetObserver(vec.Vec3Float{
		X: float64(key.X)*size + size/2,
		Y: 20,
		Z: float64(key.Z)*size + size/2,
	})
}

func settle(t *testing.T, s *Streamer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Settle(ctx))
}

// passAndSettle повторяет проходы, пока не останется pending ячеек
func passAndSettle(t *testing.T, s *Streamer) {
	t.Helper()
	for i := 0; i < 100; i++ {
		s.Pass(context.Background())
		settle(t, s)
		if pending, _, _ := s.registry.CountByState(); pending == 0 {
			return
		}
	}
	t.Fatal("cells stayed pending")
}

func nextResult(t *testing.T, s *Streamer) Result {
	t.Helper()
	select {
	case res := <-s.pool.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no generation result")
		return Result{}
	}
}

func requireConsistent(t *testing.T, s *Streamer) {
	t.Helper()
	require.Empty(t, s.Verify())

	reg := s.registry.Keys()
	content := s.content.Cells()
	decorations := s.decorations.Cells()
	require.ElementsMatch(t, reg, content)
	require.ElementsMatch(t, reg, decorations)
	for _, k := range s.aux.Keys() {
		require.True(t, s.registry.Has(k), "aux key %s outside registry", k)
	}
}
