package world

import (
	"fmt"

	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
)

// PlaceBlock ставит блок игрока. Ячейка должна быть загружена, позиция свободна.
func (s *Streamer) PlaceBlock(pos vec.Vec3, id block.BlockID) error {
	defer s.publish()

	key, err := s.editableCell(pos)
	if err != nil {
		return err
	}
	if !block.IsValidBlockID(id) || id == block.AirBlockID {
		return fmt.Errorf("place %s: material %d: %w", pos, id, ErrUnknownMaterial)
	}
	if _, exists := s.content.Get(pos); exists {
		return fmt.Errorf("place %s: position already occupied", pos)
	}

	rec := &BlockRecord{Pos: pos, Material: id, PlayerPlaced: true, Cell: key, Drawable: Plain{}}
	if ds, ok := meshSpec(pos, id); ok {
		h, err := s.scene.Attach(ds)
		if err != nil {
			return fmt.Errorf("place %s: attach: %w", pos, err)
		}
		rec.Drawable = WithDrawable{Handle: h}
	}
	if err := s.content.Put(rec); err != nil {
		s.releaseAttachment(rec.Drawable)
		return fmt.Errorf("place %s: %w", pos, err)
	}

	if d, ok := decorationFor(pos, id); ok {
		if err := s.attachDecoration(key, d); err != nil {
			s.content.Remove(pos)
			s.releaseAttachment(rec.Drawable)
			return fmt.Errorf("place %s: %w", pos, err)
		}
	}
	if block.IsResourceNode(id) {
		s.aux.AddResourceNode(key, pos, id)
	}
	s.registry.markEdited(key)
	return nil
}

// RemoveBlock удаляет блок вместе с его объектом сцены и декорацией
func (s *Streamer) RemoveBlock(pos vec.Vec3) error {
	defer s.publish()

	key, err := s.editableCell(pos)
	if err != nil {
		return err
	}
	rec, ok := s.content.Remove(pos)
	if !ok {
		return fmt.Errorf("remove %s: %w", pos, ErrBlockNotFound)
	}
	s.releaseAttachment(rec.Drawable)

	if d, ok := s.decorations.Remove(key, pos); ok {
		s.releaseAttachment(WithDrawable{Handle: d.Handle})
	}
	s.aux.RemoveResourceNode(key, pos)
	if rec.PlayerPlaced {
		s.registry.markEdited(key)
	}
	return nil
}

func (s *Streamer) editableCell(pos vec.Vec3) (CellKey, error) {
	g := s.opts.Geometry
	if !g.InHeight(pos.Y) {
		return CellKey{}, fmt.Errorf("block %s: %w", pos, ErrOutOfHeight)
	}
	key := g.CellOf(pos)
	meta, ok := s.registry.lookup(key)
	if !ok || meta.State != StateResident {
		return key, fmt.Errorf("block %s in %s: %w", pos, key, ErrCellNotResident)
	}
	return key, nil
}

// Cell возвращает копию записи реестра
func (s *Streamer) Cell(key CellKey) (CellMeta, bool) {
	return s.registry.Get(key)
}

// Block возвращает описание блока в позиции
func (s *Streamer) Block(pos vec.Vec3) (BlockSpec, bool) {
	rec, ok := s.content.Get(pos)
	if !ok {
		return BlockSpec{}, false
	}
	return BlockSpec{Pos: rec.Pos, Material: rec.Material, PlayerPlaced: rec.PlayerPlaced}, true
}

// CellBlocks возвращает описания всех блоков ячейки
func (s *Streamer) CellBlocks(key CellKey) []BlockSpec {
	recs := s.content.CellBlocks(key)
	out := make([]BlockSpec, 0, len(recs))
	for _, rec := range recs {
		out = append(out, BlockSpec{Pos: rec.Pos, Material: rec.Material, PlayerPlaced: rec.PlayerPlaced})
	}
	return out
}

// ResourceNodes возвращает ресурсные узлы ячейки
func (s *Streamer) ResourceNodes(key CellKey) []ResourceNode {
	return s.aux.ResourceNodes(key)
}

// CellKeys возвращает ключи реестра
func (s *Streamer) CellKeys() []CellKey {
	return s.registry.Keys()
}
