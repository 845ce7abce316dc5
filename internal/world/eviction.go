package world

import (
	"errors"
	"fmt"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/scene"
	"github.com/google/uuid"
)

// EvictReason – причина вытеснения ячейки
type EvictReason string

const (
	ReasonDistance   EvictReason = "distance"
	ReasonPressure   EvictReason = "pressure"
	ReasonRollback   EvictReason = "rollback"
	ReasonInvalidate EvictReason = "invalidate"
	ReasonReclaim    EvictReason = "reclaim"
	ReasonShutdown   EvictReason = "shutdown"
)

// EvictionReport описывает результат одного вытеснения
type EvictionReport struct {
	Key               CellKey
	Reason            EvictReason
	Absent            bool // ключа не было ни в одной структуре
	HadRegistry       bool
	PrevState         CellState
	Blocks            int
	Decorations       int
	ResourceNodes     int
	PlayerBlocksSaved int
	DisposeFailures   int
}

// ticketCanceller – часть пула, которую видит движок вытеснения
type ticketCanceller interface {
	Cancel(ticket uuid.UUID)
}

// EvictionEngine – единственный путь удаления ячейки. Порядок шагов:
// контент -> декорации -> вспомогательные индексы -> реестр.
type EvictionEngine struct {
	geom        Geometry
	registry    *Registry
	content     *ContentStore
	decorations *DecorationTracker
	aux         *AuxIndex
	scene       scene.Scene
	persist     Persistence
	pool        ticketCanceller
	logger      *logging.Logger
}

// NewEvictionEngine связывает движок со всеми хранилищами
func NewEvictionEngine(geom Geometry, registry *Registry, content *ContentStore, decorations *DecorationTracker,
	aux *AuxIndex, sc scene.Scene, persist Persistence, pool ticketCanceller, logger *logging.Logger) *EvictionEngine {
	return &EvictionEngine{
		geom:        geom,
		registry:    registry,
		content:     content,
		decorations: decorations,
		aux:         aux,
		scene:       sc,
		persist:     persist,
		pool:        pool,
		logger:      logger,
	}
}

// Evict полностью освобождает ячейку. Вытеснение отсутствующего ключа – no-op.
// Ключ, присутствующий лишь в части структур, тоже зачищается целиком.
func (e *EvictionEngine) Evict(key CellKey, reason EvictReason) EvictionReport {
	report := EvictionReport{Key: key, Reason: reason}

	meta, hasMeta := e.registry.lookup(key)
	hasContent := e.content.HasCell(key)
	hasDecorations := e.decorations.HasCell(key)
	hasAux := e.aux.Has(key)

	if !hasMeta && !hasContent && !hasDecorations && !hasAux {
		report.Absent = true
		return report
	}

	report.HadRegistry = hasMeta
	if hasMeta {
		report.PrevState = meta.State
	}

	// 0. Правки игрока сохраняются до удаления. Нетронутые ячейки диск не трогают:
	// их сохранение (если есть) уже совпадает с содержимым.
	if hasMeta && meta.State == StateResident && meta.Edited {
		report.PlayerBlocksSaved = e.persistPlayerBlocks(key)
	}

	// 1-2. Все записи ячейки по индексу (весь диапазон высот)
	for _, rec := range e.content.CellBlocks(key) {
		if d, ok := rec.Drawable.(WithDrawable); ok {
			if err := e.release(d.Handle); err != nil {
				report.DisposeFailures++
				e.logger.Warn("evict %s: block %s: %v", key, rec.Pos, err)
			}
		}
		e.content.Remove(rec.Pos)
		report.Blocks++
	}
	if left := e.content.CloseCell(key); left != 0 {
		e.logger.Error("evict %s: %d block index entries without records", key, left)
	}

	// 3. Декорации ячейки
	for _, d := range e.decorations.CellDecorations(key) {
		if err := e.release(d.Handle); err != nil {
			report.DisposeFailures++
			e.logger.Warn("evict %s: decoration %s: %v", key, d.Anchor, err)
		}
		e.decorations.Remove(key, d.Anchor)
		report.Decorations++
	}
	e.decorations.CloseCell(key)

	// 4. Вспомогательные индексы и незавершённая генерация
	report.ResourceNodes = e.aux.Forget(key)
	if hasMeta && meta.State == StateGenerating && e.pool != nil {
		e.pool.Cancel(meta.Ticket)
	}

	// 5. Реестр – последним
	e.registry.remove(key)

	logging.LogCellEvicted(e.logger, key.X, key.Z, report.Blocks, report.Decorations, string(reason))
	return report
}

// release убирает объект из сцены и освобождает его ресурсы.
// Ошибки не прерывают вытеснение: устаревший handle хуже двойного освобождения.
func (e *EvictionEngine) release(h scene.Handle) error {
	if e.scene == nil {
		return nil
	}
	var errs []error
	if err := e.scene.Detach(h); err != nil {
		errs = append(errs, err)
	}
	if err := e.scene.Dispose(h); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %w", ErrDisposeFailed, h, errors.Join(errs...))
	}
	return nil
}

func (e *EvictionEngine) persistPlayerBlocks(key CellKey) int {
	if e.persist == nil {
		return 0
	}

	var saved []BlockSpec
	for _, rec := range e.content.CellBlocks(key) {
		if rec.PlayerPlaced {
			saved = append(saved, BlockSpec{Pos: rec.Pos, Material: rec.Material, PlayerPlaced: true})
		}
	}

	var err error
	if len(saved) == 0 {
		err = e.persist.DeleteCell(key)
	} else {
		err = e.persist.SaveCell(key, saved)
	}
	if err != nil {
		e.logger.Error("evict %s: save player blocks: %v", key, err)
		return 0
	}
	return len(saved)
}
