package world

import (
	"sync/atomic"
	"time"
)

// Stats – снимок состояния стримера для метрик и логов.
// Публикуется горутиной-владельцем, читается из любой горутины.
type Stats struct {
	At       time.Time
	Observer CellKey
	Tier     Tier
	Radii    Radii

	PendingCells    int
	GeneratingCells int
	ResidentCells   int
	Blocks          int
	Decorations     int
	ResourceNodes   int
	QueuedJobs      int

	Merges             uint64
	StaleResults       uint64
	GenerationFailures uint64
	DisposeFailures    uint64
	PlayerBlocksSaved  uint64
	QueueFull          uint64
	Inconsistencies    uint64
	TierTransitions    int
	Evictions          map[EvictReason]uint64
}

// TotalEvictions возвращает сумму вытеснений по всем причинам
func (s Stats) TotalEvictions() uint64 {
	var total uint64
	for _, n := range s.Evictions {
		total += n
	}
	return total
}

var evictReasons = []EvictReason{
	ReasonDistance, ReasonPressure, ReasonRollback, ReasonInvalidate, ReasonReclaim, ReasonShutdown,
}

type counters struct {
	merges             atomic.Uint64
	staleResults       atomic.Uint64
	generationFailures atomic.Uint64
	disposeFailures    atomic.Uint64
	playerBlocksSaved  atomic.Uint64
	queueFull          atomic.Uint64
	inconsistencies    atomic.Uint64
	evictions          map[EvictReason]*atomic.Uint64
}

func newCounters() *counters {
	c := &counters{evictions: make(map[EvictReason]*atomic.Uint64, len(evictReasons))}
	for _, r := range evictReasons {
		c.evictions[r] = new(atomic.Uint64)
	}
	return c
}

func (c *counters) recordEviction(r EvictionReport) {
	if n, ok := c.evictions[r.Reason]; ok {
		n.Add(1)
	}
	c.disposeFailures.Add(uint64(r.DisposeFailures))
	c.playerBlocksSaved.Add(uint64(r.PlayerBlocksSaved))
}

// Stats возвращает последний опубликованный снимок
func (s *Streamer) Stats() Stats {
	if st := s.stats.Load(); st != nil {
		return *st
	}
	return Stats{}
}

func (s *Streamer) publish() {
	pending, generating, resident := s.registry.CountByState()

	st := &Stats{
		At:                 s.clock(),
		Observer:           s.observer,
		Tier:               s.pressure.Tier(),
		Radii:              s.EffectiveRadii(),
		PendingCells:       pending,
		GeneratingCells:    generating,
		ResidentCells:      resident,
		Blocks:             s.content.Count(),
		Decorations:        s.decorations.Count(),
		ResourceNodes:      s.aux.ResourceNodeCount(),
		QueuedJobs:         s.pool.Pending(),
		Merges:             s.counters.merges.Load(),
		StaleResults:       s.counters.staleResults.Load(),
		GenerationFailures: s.counters.generationFailures.Load(),
		DisposeFailures:    s.counters.disposeFailures.Load(),
		PlayerBlocksSaved:  s.counters.playerBlocksSaved.Load(),
		QueueFull:          s.counters.queueFull.Load(),
		Inconsistencies:    s.counters.inconsistencies.Load(),
		TierTransitions:    s.pressure.Transitions(),
		Evictions:          make(map[EvictReason]uint64, len(s.counters.evictions)),
	}
	for r, n := range s.counters.evictions {
		st.Evictions[r] = n.Load()
	}
	s.stats.Store(st)
}
