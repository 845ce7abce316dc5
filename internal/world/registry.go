package world

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Registry – реестр ячеек. Записи создаются запросом, переводятся
// pending -> generating -> resident и удаляются только движком вытеснения.
type Registry struct {
	cells map[CellKey]*CellMeta
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		cells: make(map[CellKey]*CellMeta),
	}
}

// Request создаёт запись в состоянии pending. Если запись уже есть,
// возвращает её и created=false.
func (r *Registry) Request(key CellKey, now time.Time) (meta *CellMeta, created bool) {
	if meta, ok := r.cells[key]; ok {
		return meta, false
	}
	meta = &CellMeta{
		Key:         key,
		State:       StatePending,
		RequestedAt: now,
	}
	r.cells[key] = meta
	return meta, true
}

// Get возвращает копию записи
func (r *Registry) Get(key CellKey) (CellMeta, bool) {
	meta, ok := r.cells[key]
	if !ok {
		return CellMeta{}, false
	}
	return *meta, true
}

func (r *Registry) lookup(key CellKey) (*CellMeta, bool) {
	meta, ok := r.cells[key]
	return meta, ok
}

// Has возвращает true, если ключ зарегистрирован
func (r *Registry) Has(key CellKey) bool {
	_, ok := r.cells[key]
	return ok
}

// MarkGenerating фиксирует, что пул принял задачу с билетом ticket
func (r *Registry) MarkGenerating(key CellKey, ticket uuid.UUID) error {
	meta, ok := r.cells[key]
	if !ok {
		return fmt.Errorf("mark generating %s: not registered: %w", key, ErrInconsistentState)
	}
	if meta.State != StatePending {
		return fmt.Errorf("mark generating %s: state is %s: %w", key, meta.State, ErrInconsistentState)
	}
	meta.State = StateGenerating
	meta.Ticket = ticket
	meta.Dispatches++
	return nil
}

func (r *Registry) markEdited(key CellKey) {
	if meta, ok := r.cells[key]; ok {
		meta.Edited = true
	}
}

// MarkResident завершает слияние контента
func (r *Registry) MarkResident(key CellKey, now time.Time) error {
	meta, ok := r.cells[key]
	if !ok {
		return fmt.Errorf("mark resident %s: not registered: %w", key, ErrInconsistentState)
	}
	if meta.State != StateGenerating {
		return fmt.Errorf("mark resident %s: state is %s: %w", key, meta.State, ErrInconsistentState)
	}
	meta.State = StateResident
	meta.GeneratedAt = now
	return nil
}

// Touch обновляет время последнего посещения
func (r *Registry) Touch(key CellKey, now time.Time) {
	if meta, ok := r.cells[key]; ok {
		meta.LastVisited = now
	}
}

// remove вызывается только движком вытеснения
func (r *Registry) remove(key CellKey) (CellMeta, bool) {
	meta, ok := r.cells[key]
	if !ok {
		return CellMeta{}, false
	}
	delete(r.cells, key)
	return *meta, true
}

// Keys возвращает ключи в детерминированном порядке
func (r *Registry) Keys() []CellKey {
	keys := make([]CellKey, 0, len(r.cells))
	for k := range r.cells {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Len возвращает количество записей
func (r *Registry) Len() int {
	return len(r.cells)
}

// CountByState возвращает количество записей в каждом состоянии
func (r *Registry) CountByState() (pending, generating, resident int) {
	for _, meta := range r.cells {
		switch meta.State {
		case StatePending:
			pending++
		case StateGenerating:
			generating++
		case StateResident:
			resident++
		}
	}
	return pending, generating, resident
}

func sortKeys(keys []CellKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})
}
