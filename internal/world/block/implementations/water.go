package implementations

import "github.com/annel0/chunk-streamer/internal/world/block"

// WaterBehavior – прозрачная вода с плоской геометрией поверхности
type WaterBehavior struct{}

func (b *WaterBehavior) ID() block.BlockID                    { return block.WaterBlockID }
func (b *WaterBehavior) Name() string                         { return "Water" }
func (b *WaterBehavior) Visible() bool                        { return true }
func (b *WaterBehavior) Geometry() string                     { return "plane" }
func (b *WaterBehavior) Texture() string                      { return "water_still" }
func (b *WaterBehavior) Decoration() (block.Decoration, bool) { return block.Decoration{}, false }
func (b *WaterBehavior) ResourceNode() bool                   { return false }
