package world

import (
	"fmt"
	"time"

	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/google/uuid"
)

// CellKey – координаты ячейки (чанка) на горизонтальной плоскости XZ
type CellKey struct {
	X, Z int
}

func (k CellKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.X, k.Z)
}

// Vec2 переводит ключ в 2D вектор для метрик расстояния
func (k CellKey) Vec2() vec.Vec2 {
	return vec.Vec2{X: k.X, Y: k.Z}
}

// CellState – стадия жизненного цикла ячейки в реестре.
// Отсутствие записи в реестре означает "absent".
type CellState uint8

const (
	StatePending    CellState = iota // запрошена, ещё не принята пулом
	StateGenerating                  // задача в пуле генерации
	StateResident                    // контент слит во все хранилища
)

func (s CellState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGenerating:
		return "generating"
	case StateResident:
		return "resident"
	default:
		return "unknown"
	}
}

// CellMeta – запись реестра ячеек
type CellMeta struct {
	Key         CellKey
	State       CellState
	RequestedAt time.Time
	GeneratedAt time.Time
	LastVisited time.Time
	Ticket      uuid.UUID // билет текущей задачи генерации
	Dispatches  int       // сколько раз задача отправлялась в пул
	Edited      bool      // блоки игрока менялись после загрузки, сохранение устарело
}

// Geometry описывает разбиение мира на ячейки и вертикальный диапазон
type Geometry struct {
	CellSize int
	MinY     int
	MaxY     int // не включительно
}

// DefaultGeometry – ячейки 16x16, высота 0..127
func DefaultGeometry() Geometry {
	return Geometry{CellSize: 16, MinY: 0, MaxY: 128}
}

// CellOf возвращает ячейку, которой принадлежит блок
func (g Geometry) CellOf(pos vec.Vec3) CellKey {
	return CellKey{
		X: vec.FloorDiv(pos.X, g.CellSize),
		Z: vec.FloorDiv(pos.Z, g.CellSize),
	}
}

// CellOfPoint возвращает ячейку, в которой находится точка наблюдателя
func (g Geometry) CellOfPoint(p vec.Vec3Float) CellKey {
	return g.CellOf(p.Floor())
}

// Origin возвращает минимальный угол ячейки (Y = MinY)
func (g Geometry) Origin(key CellKey) vec.Vec3 {
	return vec.Vec3{X: key.X * g.CellSize, Y: g.MinY, Z: key.Z * g.CellSize}
}

// InHeight проверяет, что Y внутри поддерживаемого диапазона высот
func (g Geometry) InHeight(y int) bool {
	return y >= g.MinY && y < g.MaxY
}

// Height возвращает полную высоту мира в блоках
func (g Geometry) Height() int {
	return g.MaxY - g.MinY
}
