package world

import (
	"fmt"
	"sort"

	"github.com/annel0/chunk-streamer/internal/vec"
)

// ContentStore – авторитетная "память мира": позиция блока -> запись.
// byCell индексирует записи по ячейке без ограничения по высоте, поэтому
// перечисление блоков ячейки всегда покрывает весь вертикальный диапазон.
//
// Хранилище изменяется только из горутины-владельца стримера.
type ContentStore struct {
	blocks map[vec.Vec3]*BlockRecord
	byCell map[CellKey]map[vec.Vec3]struct{}
	count  int
}

// NewContentStore создаёт пустое хранилище
func NewContentStore() *ContentStore {
	return &ContentStore{
		blocks: make(map[vec.Vec3]*BlockRecord),
		byCell: make(map[CellKey]map[vec.Vec3]struct{}),
	}
}

// OpenCell открывает (пустую) запись индекса для ячейки
func (s *ContentStore) OpenCell(key CellKey) {
	if _, ok := s.byCell[key]; !ok {
		s.byCell[key] = make(map[vec.Vec3]struct{})
	}
}

// HasCell возвращает true, если ячейка присутствует в индексе
func (s *ContentStore) HasCell(key CellKey) bool {
	_, ok := s.byCell[key]
	return ok
}

// CloseCell удаляет запись индекса ячейки. Возвращает количество записей,
// которые оставались в ячейке (должно быть 0).
func (s *ContentStore) CloseCell(key CellKey) int {
	left := len(s.byCell[key])
	delete(s.byCell, key)
	return left
}

// Put добавляет запись. Ячейка должна быть открыта, позиция свободна.
func (s *ContentStore) Put(rec *BlockRecord) error {
	idx, ok := s.byCell[rec.Cell]
	if !ok {
		return fmt.Errorf("put %s: cell %s: %w", rec.Pos, rec.Cell, ErrCellNotResident)
	}
	if _, exists := s.blocks[rec.Pos]; exists {
		return fmt.Errorf("put %s: position already occupied", rec.Pos)
	}

	s.blocks[rec.Pos] = rec
	idx[rec.Pos] = struct{}{}
	s.count++
	return nil
}

// Get возвращает запись по позиции
func (s *ContentStore) Get(pos vec.Vec3) (*BlockRecord, bool) {
	rec, ok := s.blocks[pos]
	return rec, ok
}

// Remove удаляет запись по позиции
func (s *ContentStore) Remove(pos vec.Vec3) (*BlockRecord, bool) {
	rec, ok := s.blocks[pos]
	if !ok {
		return nil, false
	}

	delete(s.blocks, pos)
	if idx, ok := s.byCell[rec.Cell]; ok {
		delete(idx, pos)
	}
	s.count--
	return rec, true
}

// CellBlocks возвращает все записи ячейки, отсортированные по (Y, Z, X)
func (s *ContentStore) CellBlocks(key CellKey) []*BlockRecord {
	idx := s.byCell[key]
	out := make([]*BlockRecord, 0, len(idx))
	for pos := range idx {
		if rec, ok := s.blocks[pos]; ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return out
}

// CellBlockCount возвращает количество записей ячейки
func (s *ContentStore) CellBlockCount(key CellKey) int {
	return len(s.byCell[key])
}

// ColumnScan обходит все столбцы ячейки по полному диапазону высот
// и считает записи напрямую в карте блоков. Используется для сверки
// с индексом byCell.
func (s *ContentStore) ColumnScan(key CellKey, g Geometry) int {
	origin := g.Origin(key)
	n := 0
	for x := 0; x < g.CellSize; x++ {
		for z := 0; z < g.CellSize; z++ {
			for y := g.MinY; y < g.MaxY; y++ {
				if _, ok := s.blocks[vec.Vec3{X: origin.X + x, Y: y, Z: origin.Z + z}]; ok {
					n++
				}
			}
		}
	}
	return n
}

// Count возвращает общее количество записей (счётчик ведётся при Put/Remove)
func (s *ContentStore) Count() int {
	return s.count
}

// Cells возвращает ключи всех открытых ячеек
func (s *ContentStore) Cells() []CellKey {
	keys := make([]CellKey, 0, len(s.byCell))
	for k := range s.byCell {
		keys = append(keys, k)
	}
	return keys
}
