package vec

import "math"

// Vec2 представляет 2D целочисленные координаты на горизонтальной плоскости
type Vec2 struct {
	X, Y int
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Chebyshev возвращает расстояние Чебышёва (max(|dx|, |dy|))
func (v Vec2) Chebyshev(other Vec2) int {
	return max(abs(v.X-other.X), abs(v.Y-other.Y))
}

// Manhattan возвращает манхэттенское расстояние
func (v Vec2) Manhattan(other Vec2) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y)
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// FloorDiv делит с округлением вниз, в том числе для отрицательных координат.
// size должен быть > 0.
func FloorDiv(a, size int) int {
	q := a / size
	if a%size != 0 && (a < 0) != (size < 0) {
		q--
	}
	return q
}

// FloorMod возвращает неотрицательный остаток от деления
func FloorMod(a, size int) int {
	m := a % size
	if m < 0 {
		m += size
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
