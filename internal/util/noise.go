package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// Noise2D – детерминированный генератор 2D шума для одного сида.
// Экземпляр только читается после создания, поэтому безопасен для
// одновременного использования из нескольких горутин.
type Noise2D struct {
	p    *perlin.Perlin
	seed int64
}

// NewNoise2D создаёт генератор шума Перлина с указанным сидом
func NewNoise2D(seed int64) *Noise2D {
	return &Noise2D{
		p:    perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		seed: seed,
	}
}

// Seed возвращает сид генератора
func (n *Noise2D) Seed() int64 {
	return n.seed
}

// At возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise2D) At(x, y float64) float64 {
	// Значение шума примерно от -1 до 1
	v := (n.p.Noise2D(x, y) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
