package implementations

import "github.com/annel0/chunk-streamer/internal/world/block"

// DecoratedBehavior – блок-якорь, который сопровождается спрайтом.
// Сам блок не имеет меша: видимым является только билборд.
type DecoratedBehavior struct {
	block.Base
	decoration block.Decoration
}

func newDecorated(id block.BlockID, name string, d block.Decoration) *DecoratedBehavior {
	return &DecoratedBehavior{
		Base:       block.Base{BlockID: id, BlockName: name, Tex: d.Texture, Invisible: true},
		decoration: d,
	}
}

func (b *DecoratedBehavior) Decoration() (block.Decoration, bool) { return b.decoration, true }
