package world

import (
	"fmt"
	"math"
	"sort"
)

// Class – результат классификации ячейки политикой расстояний
type Class uint8

const (
	MustRender Class = iota // d <= R: должна быть загружена
	KeepCached              // R < d <= C: остаётся, если уже загружена
	MustEvict               // d > C: вытесняется
)

func (c Class) String() string {
	switch c {
	case MustRender:
		return "must-render"
	case KeepCached:
		return "keep-cached"
	case MustEvict:
		return "must-evict"
	default:
		return "unknown"
	}
}

// Metric – функция расстояния между ячейками
type Metric uint8

const (
	Chebyshev Metric = iota
	Manhattan
	Euclidean
)

// ParseMetric разбирает метрику из конфигурации
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "chebyshev":
		return Chebyshev, nil
	case "manhattan":
		return Manhattan, nil
	case "euclidean":
		return Euclidean, nil
	default:
		return Chebyshev, fmt.Errorf("unknown distance metric %q", s)
	}
}

func (m Metric) String() string {
	switch m {
	case Manhattan:
		return "manhattan"
	case Euclidean:
		return "euclidean"
	default:
		return "chebyshev"
	}
}

// Distance возвращает расстояние между ячейками в единицах ячеек
func (m Metric) Distance(a, b CellKey) float64 {
	switch m {
	case Manhattan:
		return float64(a.Vec2().Manhattan(b.Vec2()))
	case Euclidean:
		return a.Vec2().DistanceTo(b.Vec2())
	default:
		return float64(a.Vec2().Chebyshev(b.Vec2()))
	}
}

// Radii – эффективные радиусы одного прохода. Cleanup >= Render всегда.
type Radii struct {
	Render  int
	Cleanup int
}

// EffectiveRadii ограничивает радиус отрисовки радиусом очистки, чтобы
// один и тот же проход не генерировал и не вытеснял одну ячейку.
func EffectiveRadii(render, cleanup int) Radii {
	if cleanup < 0 {
		cleanup = 0
	}
	if render > cleanup {
		render = cleanup
	}
	if render < 0 {
		render = 0
	}
	return Radii{Render: render, Cleanup: cleanup}
}

// DistancePolicy – чистая функция классификации ячеек
type DistancePolicy struct {
	Metric Metric
}

// Classify относит ячейку key к одному из классов относительно наблюдателя
func (p DistancePolicy) Classify(observer, key CellKey, r Radii) Class {
	d := p.Metric.Distance(observer, key)
	switch {
	case d <= float64(r.Render):
		return MustRender
	case d <= float64(r.Cleanup):
		return KeepCached
	default:
		return MustEvict
	}
}

// RenderSet возвращает все ячейки в радиусе отрисовки, ближайшие первыми
func (p DistancePolicy) RenderSet(observer CellKey, r Radii) []CellKey {
	side := 2*r.Render + 1
	keys := make([]CellKey, 0, side*side)
	for dx := -r.Render; dx <= r.Render; dx++ {
		for dz := -r.Render; dz <= r.Render; dz++ {
			key := CellKey{X: observer.X + dx, Z: observer.Z + dz}
			if p.Classify(observer, key, r) == MustRender {
				keys = append(keys, key)
			}
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		di := p.Metric.Distance(observer, keys[i])
		dj := p.Metric.Distance(observer, keys[j])
		if math.Abs(di-dj) > 1e-9 {
			return di < dj
		}
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})
	return keys
}
