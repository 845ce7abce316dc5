package implementations

import "github.com/annel0/chunk-streamer/internal/world/block"

// OreBehavior – руда; попадает в позиционный индекс ресурсных узлов
type OreBehavior struct {
	block.Base
}

func (b *OreBehavior) ResourceNode() bool { return true }
