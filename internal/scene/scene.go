// Package scene описывает границу с рендер-библиотекой, которая владеет
// отрисовываемыми объектами (меши блоков, билборды декораций).
package scene

import (
	"errors"
	"fmt"

	"github.com/annel0/chunk-streamer/internal/vec"
)

var (
	// ErrUnknownHandle – handle не существует или уже освобождён
	ErrUnknownHandle = errors.New("scene: unknown handle")
	// ErrAttachedHandle – попытка освободить объект, который ещё в сцене
	ErrAttachedHandle = errors.New("scene: handle is still attached")
)

// Handle – непрозрачный идентификатор объекта сцены. Ноль не используется.
type Handle uint64

func (h Handle) String() string {
	return fmt.Sprintf("h#%d", uint64(h))
}

// Kind – тип отрисовываемого объекта
type Kind uint8

const (
	KindBlockMesh Kind = iota
	KindBillboard
	KindParticles
)

func (k Kind) String() string {
	switch k {
	case KindBlockMesh:
		return "mesh"
	case KindBillboard:
		return "billboard"
	case KindParticles:
		return "particles"
	default:
		return "unknown"
	}
}

// DrawableSpec описывает ресурсы, которые сцена должна создать.
// Geometry/Material/Texture – ключи ресурсов рендера.
type DrawableSpec struct {
	Kind     Kind
	Position vec.Vec3
	Geometry string
	Material string
	Texture  string
	Animated bool
}

// Scene – внешняя сцена. Каждый Handle принадлежит ровно одной записи;
// владелец обязан вызвать Detach и Dispose перед удалением записи.
type Scene interface {
	Attach(spec DrawableSpec) (Handle, error)
	Detach(h Handle) error
	Dispose(h Handle) error
}
