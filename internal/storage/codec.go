package storage

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/chunk-streamer/internal/world"
	"github.com/klauspost/compress/zstd"
)

// cellFormatVersion – версия формата сохранённой ячейки
const cellFormatVersion = 1

// CellDelta содержит сохранённые блоки игрока одной ячейки
type CellDelta struct {
	Version int               `json:"v"`
	X       int               `json:"x"`
	Z       int               `json:"z"`
	Blocks  []world.BlockSpec `json:"blocks"`
}

// Энкодер и декодер zstd безопасны для параллельного EncodeAll/DecodeAll
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// EncodeCell сериализует блоки ячейки в JSON и сжимает zstd
func EncodeCell(key world.CellKey, blocks []world.BlockSpec) ([]byte, error) {
	delta := CellDelta{
		Version: cellFormatVersion,
		X:       key.X,
		Z:       key.Z,
		Blocks:  blocks,
	}

	data, err := json.Marshal(delta)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации ячейки %s: %w", key, err)
	}
	return encoder.EncodeAll(data, nil), nil
}

// DecodeCell распаковывает и десериализует ячейку
func DecodeCell(data []byte) (world.CellKey, []world.BlockSpec, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return world.CellKey{}, nil, fmt.Errorf("ошибка распаковки ячейки: %w", err)
	}

	var delta CellDelta
	if err := json.Unmarshal(raw, &delta); err != nil {
		return world.CellKey{}, nil, fmt.Errorf("ошибка десериализации ячейки: %w", err)
	}
	if delta.Version != cellFormatVersion {
		return world.CellKey{}, nil, fmt.Errorf("неподдерживаемая версия формата ячейки: %d", delta.Version)
	}

	return world.CellKey{X: delta.X, Z: delta.Z}, delta.Blocks, nil
}
