package world

import (
	"time"

	"github.com/annel0/chunk-streamer/internal/config"
)

// Tier – уровень давления памяти
type Tier uint8

const (
	TierNormal     Tier = iota // радиусы без изменений
	TierAggressive             // очистка сжимается до радиуса отрисовки
	TierCritical               // остаётся только ячейка наблюдателя
)

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierAggressive:
		return "aggressive"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// PressureMonitor переводит количество резидентных блоков в уровень давления.
// Пороги: count < low – Normal, low <= count < high – Aggressive, иначе Critical.
type PressureMonitor struct {
	low, high   int
	tier        Tier
	lastCount   int
	lastCheck   time.Time
	transitions int
}

// NewPressureMonitor создаёт монитор с порогами T1=low и T2=high
func NewPressureMonitor(low, high int) *PressureMonitor {
	return &PressureMonitor{low: low, high: high}
}

// Classify возвращает уровень для количества блоков без изменения состояния
func (m *PressureMonitor) Classify(count int) Tier {
	switch {
	case count >= m.high:
		return TierCritical
	case count >= m.low:
		return TierAggressive
	default:
		return TierNormal
	}
}

// Evaluate обновляет текущий уровень. changed=true, если уровень сменился.
func (m *PressureMonitor) Evaluate(count int, now time.Time) (tier Tier, changed bool) {
	tier = m.Classify(count)
	changed = tier != m.tier
	if changed {
		m.transitions++
	}
	m.tier = tier
	m.lastCount = count
	m.lastCheck = now
	return tier, changed
}

// Tier возвращает уровень, вычисленный последней проверкой
func (m *PressureMonitor) Tier() Tier {
	return m.tier
}

// LastCount возвращает количество блоков на момент последней проверки
func (m *PressureMonitor) LastCount() int {
	return m.lastCount
}

// Transitions возвращает число смен уровня
func (m *PressureMonitor) Transitions() int {
	return m.transitions
}

// EffectiveCleanup вычисляет радиус очистки с учётом override и уровня.
// Override с нулём – валидное значение "только текущая ячейка".
func EffectiveCleanup(tier Tier, render, cleanup int, override config.RadiusOverride) int {
	base := override.Or(cleanup)
	switch tier {
	case TierAggressive:
		return min(base, render)
	case TierCritical:
		return 0
	default:
		return base
	}
}
