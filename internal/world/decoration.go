package world

import (
	"fmt"

	"github.com/annel0/chunk-streamer/internal/vec"
)

// DecorationTracker хранит живые декорации по ячейкам.
// Изменяется только из горутины-владельца.
type DecorationTracker struct {
	byCell map[CellKey]map[vec.Vec3]*Decoration
	count  int
}

// NewDecorationTracker создаёт пустой трекер
func NewDecorationTracker() *DecorationTracker {
	return &DecorationTracker{
		byCell: make(map[CellKey]map[vec.Vec3]*Decoration),
	}
}

// OpenCell открывает запись ячейки
func (t *DecorationTracker) OpenCell(key CellKey) {
	if _, ok := t.byCell[key]; !ok {
		t.byCell[key] = make(map[vec.Vec3]*Decoration)
	}
}

// HasCell возвращает true, если ячейка есть в трекере
func (t *DecorationTracker) HasCell(key CellKey) bool {
	_, ok := t.byCell[key]
	return ok
}

// CloseCell удаляет запись ячейки, возвращает число оставшихся декораций
func (t *DecorationTracker) CloseCell(key CellKey) int {
	left := len(t.byCell[key])
	t.count -= left
	delete(t.byCell, key)
	return left
}

// Add регистрирует декорацию. На один якорь – одна декорация.
func (t *DecorationTracker) Add(d *Decoration) error {
	set, ok := t.byCell[d.Cell]
	if !ok {
		return fmt.Errorf("decoration at %s: cell %s: %w", d.Anchor, d.Cell, ErrCellNotResident)
	}
	if _, exists := set[d.Anchor]; exists {
		return fmt.Errorf("decoration at %s already tracked", d.Anchor)
	}
	set[d.Anchor] = d
	t.count++
	return nil
}

// At возвращает декорацию якоря
func (t *DecorationTracker) At(key CellKey, anchor vec.Vec3) (*Decoration, bool) {
	d, ok := t.byCell[key][anchor]
	return d, ok
}

// Remove удаляет декорацию якоря из трекера
func (t *DecorationTracker) Remove(key CellKey, anchor vec.Vec3) (*Decoration, bool) {
	set, ok := t.byCell[key]
	if !ok {
		return nil, false
	}
	d, ok := set[anchor]
	if !ok {
		return nil, false
	}
	delete(set, anchor)
	t.count--
	return d, true
}

// CellDecorations возвращает декорации ячейки
func (t *DecorationTracker) CellDecorations(key CellKey) []*Decoration {
	set := t.byCell[key]
	out := make([]*Decoration, 0, len(set))
	for _, d := range set {
		out = append(out, d)
	}
	return out
}

// Count возвращает общее число живых декораций
func (t *DecorationTracker) Count() int {
	return t.count
}

// Cells возвращает ключи всех ячеек трекера
func (t *DecorationTracker) Cells() []CellKey {
	keys := make([]CellKey, 0, len(t.byCell))
	for k := range t.byCell {
		keys = append(keys, k)
	}
	return keys
}
