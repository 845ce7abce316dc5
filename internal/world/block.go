package world

import (
	"github.com/annel0/chunk-streamer/internal/scene"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
)

// Attachment – внешний ресурс, привязанный к блоку: Plain или WithDrawable.
// Интерфейс закрыт: других реализаций вне пакета нет.
type Attachment interface {
	attachment()
}

// Plain – блок без отрисовываемого объекта (скрытый под поверхностью)
type Plain struct{}

// WithDrawable – блок владеет объектом сцены и обязан его освободить
type WithDrawable struct {
	Handle scene.Handle
}

func (Plain) attachment()        {}
func (WithDrawable) attachment() {}

// BlockRecord – запись хранилища контента
type BlockRecord struct {
	Pos          vec.Vec3
	Material     block.BlockID
	PlayerPlaced bool
	Cell         CellKey
	Drawable     Attachment
}

// BlockSpec – неизменяемое описание блока из генератора или хранилища.
// Не содержит живых ресурсов, поэтому безопасно передаётся между горутинами.
type BlockSpec struct {
	Pos          vec.Vec3      `json:"pos"`
	Material     block.BlockID `json:"material"`
	PlayerPlaced bool          `json:"player_placed,omitempty"`
}

// DecorationSpec – описание декорации, привязанной к блоку-якорю
type DecorationSpec struct {
	Anchor   vec.Vec3
	Kind     scene.Kind
	Texture  string
	Animated bool
}

// Decoration – живая декорация в трекере
type Decoration struct {
	Anchor vec.Vec3
	Cell   CellKey
	Handle scene.Handle
	Spec   scene.DrawableSpec
}

// Batch – результат генерации одной ячейки
type Batch struct {
	Key         CellKey
	Seed        int64
	Blocks      []BlockSpec
	Decorations []DecorationSpec
}

// decorationFor строит описание декорации для материала, если она у него есть
func decorationFor(pos vec.Vec3, id block.BlockID) (DecorationSpec, bool) {
	behavior, ok := block.Get(id)
	if !ok {
		return DecorationSpec{}, false
	}
	d, has := behavior.Decoration()
	if !has {
		return DecorationSpec{}, false
	}

	kind := scene.KindBillboard
	if d.Particles {
		kind = scene.KindParticles
	}
	return DecorationSpec{
		Anchor:   pos,
		Kind:     kind,
		Texture:  d.Texture,
		Animated: d.Animated,
	}, true
}

// meshSpec возвращает описание меша блока, если материал видим
func meshSpec(pos vec.Vec3, id block.BlockID) (scene.DrawableSpec, bool) {
	behavior, ok := block.Get(id)
	if !ok || !behavior.Visible() {
		return scene.DrawableSpec{}, false
	}
	return scene.DrawableSpec{
		Kind:     scene.KindBlockMesh,
		Position: pos,
		Geometry: behavior.Geometry(),
		Material: behavior.Name(),
		Texture:  behavior.Texture(),
	}, true
}

func (d DecorationSpec) drawable() scene.DrawableSpec {
	geometry := "quad"
	if d.Kind == scene.KindParticles {
		geometry = "points"
	}
	return scene.DrawableSpec{
		Kind:     d.Kind,
		Position: d.Anchor,
		Geometry: geometry,
		Material: "sprite",
		Texture:  d.Texture,
		Animated: d.Animated,
	}
}
