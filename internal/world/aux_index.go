package world

import (
	"sort"
	"time"

	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
)

// ResourceNode – ресурсный узел (руда) в позиционном индексе
type ResourceNode struct {
	Pos      vec.Vec3
	Material block.BlockID
}

// AuxIndex – вспомогательные структуры, ссылающиеся на ячейки:
// множество посещённых ячеек, время появления и индекс ресурсных узлов.
// Ключи удаляются только через Forget из движка вытеснения.
type AuxIndex struct {
	visited       map[CellKey]time.Time
	spawnTimes    map[CellKey]time.Time
	resourceNodes map[CellKey]map[vec.Vec3]block.BlockID
}

// NewAuxIndex создаёт пустые индексы
func NewAuxIndex() *AuxIndex {
	return &AuxIndex{
		visited:       make(map[CellKey]time.Time),
		spawnTimes:    make(map[CellKey]time.Time),
		resourceNodes: make(map[CellKey]map[vec.Vec3]block.BlockID),
	}
}

// MarkVisited отмечает первое посещение ячейки наблюдателем
func (a *AuxIndex) MarkVisited(key CellKey, now time.Time) {
	if _, ok := a.visited[key]; !ok {
		a.visited[key] = now
	}
}

// Visited возвращает true, если наблюдатель уже был в ячейке
func (a *AuxIndex) Visited(key CellKey) bool {
	_, ok := a.visited[key]
	return ok
}

// SetSpawnTime запоминает момент, когда контент ячейки появился в мире
func (a *AuxIndex) SetSpawnTime(key CellKey, t time.Time) {
	a.spawnTimes[key] = t
}

// SpawnTime возвращает момент появления контента ячейки
func (a *AuxIndex) SpawnTime(key CellKey) (time.Time, bool) {
	t, ok := a.spawnTimes[key]
	return t, ok
}

// AddResourceNode добавляет узел в индекс
func (a *AuxIndex) AddResourceNode(key CellKey, pos vec.Vec3, id block.BlockID) {
	nodes, ok := a.resourceNodes[key]
	if !ok {
		nodes = make(map[vec.Vec3]block.BlockID)
		a.resourceNodes[key] = nodes
	}
	nodes[pos] = id
}

// RemoveResourceNode убирает узел; пустая ячейка удаляется из индекса
func (a *AuxIndex) RemoveResourceNode(key CellKey, pos vec.Vec3) {
	nodes, ok := a.resourceNodes[key]
	if !ok {
		return
	}
	delete(nodes, pos)
	if len(nodes) == 0 {
		delete(a.resourceNodes, key)
	}
}

// ResourceNodes возвращает узлы ячейки, отсортированные по высоте
func (a *AuxIndex) ResourceNodes(key CellKey) []ResourceNode {
	nodes := a.resourceNodes[key]
	out := make([]ResourceNode, 0, len(nodes))
	for pos, id := range nodes {
		out = append(out, ResourceNode{Pos: pos, Material: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos.Y != out[j].Pos.Y {
			return out[i].Pos.Y < out[j].Pos.Y
		}
		if out[i].Pos.Z != out[j].Pos.Z {
			return out[i].Pos.Z < out[j].Pos.Z
		}
		return out[i].Pos.X < out[j].Pos.X
	})
	return out
}

// ResourceNodeCount возвращает общее число узлов
func (a *AuxIndex) ResourceNodeCount() int {
	n := 0
	for _, nodes := range a.resourceNodes {
		n += len(nodes)
	}
	return n
}

// Forget удаляет ключ из всех вспомогательных структур.
// Возвращает количество удалённых ресурсных узлов.
func (a *AuxIndex) Forget(key CellKey) int {
	n := len(a.resourceNodes[key])
	delete(a.visited, key)
	delete(a.spawnTimes, key)
	delete(a.resourceNodes, key)
	return n
}

// Keys возвращает объединение ключей всех вспомогательных структур
func (a *AuxIndex) Keys() []CellKey {
	seen := make(map[CellKey]struct{}, len(a.visited)+len(a.spawnTimes))
	for k := range a.visited {
		seen[k] = struct{}{}
	}
	for k := range a.spawnTimes {
		seen[k] = struct{}{}
	}
	for k := range a.resourceNodes {
		seen[k] = struct{}{}
	}
	keys := make([]CellKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	return keys
}

// Has возвращает true, если ключ есть хотя бы в одной структуре
func (a *AuxIndex) Has(key CellKey) bool {
	if _, ok := a.visited[key]; ok {
		return true
	}
	if _, ok := a.spawnTimes[key]; ok {
		return true
	}
	_, ok := a.resourceNodes[key]
	return ok
}
