package world

import "github.com/annel0/chunk-streamer/internal/vec"

// Persistence – внешнее хранилище сохранённого состояния ячеек.
// Сохраняются только блоки, поставленные игроком: процедурный контент
// восстанавливается генератором.
type Persistence interface {
	SaveCell(key CellKey, blocks []BlockSpec) error
	LoadCell(key CellKey) (blocks []BlockSpec, found bool, err error)
	DeleteCell(key CellKey) error
}

// mergeSaved накладывает сохранённые блоки игрока поверх процедурного
// контента: блок игрока вытесняет сгенерированный блок в той же позиции
// вместе с его декорацией.
func mergeSaved(batch *Batch, saved []BlockSpec) {
	if len(saved) == 0 {
		return
	}

	override := make(map[vec.Vec3]struct{}, len(saved))
	for _, s := range saved {
		override[s.Pos] = struct{}{}
	}

	blocks := batch.Blocks[:0]
	for _, b := range batch.Blocks {
		if _, replaced := override[b.Pos]; !replaced {
			blocks = append(blocks, b)
		}
	}
	decorations := batch.Decorations[:0]
	for _, d := range batch.Decorations {
		if _, replaced := override[d.Anchor]; !replaced {
			decorations = append(decorations, d)
		}
	}

	for _, s := range saved {
		s.PlayerPlaced = true
		blocks = append(blocks, s)
		if d, ok := decorationFor(s.Pos, s.Material); ok {
			decorations = append(decorations, d)
		}
	}

	batch.Blocks = blocks
	batch.Decorations = decorations
}
