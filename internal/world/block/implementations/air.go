package implementations

import "github.com/annel0/chunk-streamer/internal/world/block"

// AirBehavior – пустота; генератор никогда не создаёт для неё записей
type AirBehavior struct{}

func (b *AirBehavior) ID() block.BlockID                    { return block.AirBlockID }
func (b *AirBehavior) Name() string                         { return "Air" }
func (b *AirBehavior) Visible() bool                        { return false }
func (b *AirBehavior) Geometry() string                     { return "" }
func (b *AirBehavior) Texture() string                      { return "" }
func (b *AirBehavior) Decoration() (block.Decoration, bool) { return block.Decoration{}, false }
func (b *AirBehavior) ResourceNode() bool                   { return false }
