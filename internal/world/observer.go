package world

import (
	"time"

	"github.com/annel0/chunk-streamer/internal/vec"
)

// ObserverSource – источник позиции камеры, опрашивается каждый кадр
type ObserverSource interface {
	Position() vec.Vec3Float
}

// StaticObserver – неподвижный наблюдатель
type StaticObserver struct {
	Pos vec.Vec3Float
}

func (o StaticObserver) Position() vec.Vec3Float {
	return o.Pos
}

// LinearPath – наблюдатель, движущийся по прямой с постоянной скоростью (блоков/с)
type LinearPath struct {
	Start    vec.Vec3Float
	Velocity vec.Vec3Float

	started time.Time
	clock   func() time.Time
}

// NewLinearPath создаёт путь, отсчёт времени начинается сейчас
func NewLinearPath(start, velocity vec.Vec3Float) *LinearPath {
	return &LinearPath{Start: start, Velocity: velocity, started: time.Now(), clock: time.Now}
}

func (p *LinearPath) Position() vec.Vec3Float {
	elapsed := p.clock().Sub(p.started).Seconds()
	return p.Start.Add(p.Velocity.Mul(elapsed))
}
