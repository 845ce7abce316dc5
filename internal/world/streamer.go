package world

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/annel0/chunk-streamer/internal/config"
	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/scene"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world/block"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options – параметры стримера
type Options struct {
	Geometry         Geometry
	Seed             int64
	RenderRadius     int
	CleanupRadius    int
	Metric           Metric
	LowThreshold     int
	HighThreshold    int
	PressureInterval time.Duration
	FrameInterval    time.Duration
	Workers          int
	QueueSize        int
	Strict           bool
	CleanupOverride  config.RadiusOverride
}

// DefaultOptions соответствует config.Default()
func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.Default())
	return opts
}

// OptionsFromConfig переводит конфигурацию в параметры стримера
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	metric, err := ParseMetric(cfg.Streaming.Metric)
	if err != nil {
		return Options{}, fmt.Errorf("streaming.metric: %w", err)
	}

	frame := time.Second / 60
	if cfg.Streaming.FrameHz > 0 {
		frame = time.Second / time.Duration(cfg.Streaming.FrameHz)
	}

	return Options{
		Geometry: Geometry{
			CellSize: cfg.World.CellSize,
			MinY:     cfg.World.MinY,
			MaxY:     cfg.World.MaxY,
		},
		Seed:             cfg.World.Seed,
		RenderRadius:     cfg.Streaming.RenderRadius,
		CleanupRadius:    cfg.Streaming.CleanupRadius,
		Metric:           metric,
		LowThreshold:     cfg.Pressure.LowThreshold,
		HighThreshold:    cfg.Pressure.HighThreshold,
		PressureInterval: cfg.Pressure.Interval,
		FrameInterval:    frame,
		Workers:          cfg.Streaming.GeneratorWorkers,
		QueueSize:        cfg.Streaming.QueueSize,
		Strict:           cfg.Streaming.Strict,
		CleanupOverride:  cfg.Pressure.CleanupOverrideValue(),
	}, nil
}

// MergeOutcome – что произошло с результатом генерации
type MergeOutcome uint8

const (
	OutcomeMerged     MergeOutcome = iota
	OutcomeStale                   // билет не совпал, результат отброшен
	OutcomeRolledBack              // ошибка генерации или слияния, ячейка снова absent
)

func (o MergeOutcome) String() string {
	switch o {
	case OutcomeMerged:
		return "merged"
	case OutcomeStale:
		return "stale"
	case OutcomeRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// PassReport – итог одного прохода политики расстояний
type PassReport struct {
	Observer   CellKey
	Tier       Tier
	Radii      Radii
	Evicted    int
	Requested  int
	Dispatched int
	Deferred   int // очередь пула заполнена, ячейка осталась pending
}

// Streamer – владелец всех хранилищ ячеек. Все методы, кроме Stats,
// NotifyIdle и InvalidateAsync, вызываются только из горутины-владельца
// (Run или тестов).
type Streamer struct {
	opts   Options
	policy DistancePolicy
	logger *logging.Logger
	tracer trace.Tracer
	clock  func() time.Time

	registry    *Registry
	content     *ContentStore
	decorations *DecorationTracker
	aux         *AuxIndex
	pool        *GeneratorPool
	eviction    *EvictionEngine
	pressure    *PressureMonitor
	scene       scene.Scene
	persist     Persistence

	observer    CellKey
	observerSet bool
	override    config.RadiusOverride

	idle          chan struct{}
	invalidations chan CellKey

	counters *counters
	stats    atomic.Pointer[Stats]
}

// NewStreamer собирает стример. persist может быть nil.
func NewStreamer(opts Options, gen TerrainGenerator, sc scene.Scene, persist Persistence, logger *logging.Logger) *Streamer {
	if opts.Geometry.CellSize <= 0 {
		opts.Geometry = DefaultGeometry()
	}

	s := &Streamer{
		opts:          opts,
		policy:        DistancePolicy{Metric: opts.Metric},
		logger:        logger,
		tracer:        otel.Tracer("chunk-streamer/world"),
		clock:         time.Now,
		registry:      NewRegistry(),
		content:       NewContentStore(),
		decorations:   NewDecorationTracker(),
		aux:           NewAuxIndex(),
		pressure:      NewPressureMonitor(opts.LowThreshold, opts.HighThreshold),
		scene:         sc,
		persist:       persist,
		override:      opts.CleanupOverride,
		idle:          make(chan struct{}, 1),
		invalidations: make(chan CellKey, 256),
		counters:      newCounters(),
	}
	s.pool = NewGeneratorPool(gen, persist, opts.Workers, opts.QueueSize, logger)
	s.eviction = NewEvictionEngine(opts.Geometry, s.registry, s.content, s.decorations, s.aux, sc, persist, s.pool, logger)
	s.publish()
	return s
}

// Start запускает воркеров генерации
func (s *Streamer) Start(ctx context.Context) {
	s.pool.Start(ctx)
	s.logger.Info("🚀 Streamer started: R=%d C=%d metric=%s workers=%d",
		s.opts.RenderRadius, s.opts.CleanupRadius, s.opts.Metric, s.pool.workers)
}

// Stop останавливает пул и вытесняет все ячейки
func (s *Streamer) Stop() error {
	err := s.pool.Stop()

	for _, key := range s.allKeys() {
		s.evict(key, ReasonShutdown)
	}
	s.publish()
	s.logger.Info("🛑 Streamer stopped")
	return err
}

// SetObserver задаёт позицию наблюдателя
func (s *Streamer) SetObserver(pos vec.Vec3Float) {
	s.observer = s.opts.Geometry.CellOfPoint(pos)
	s.observerSet = true
}

// Observer возвращает ячейку наблюдателя
func (s *Streamer) Observer() CellKey {
	return s.observer
}

// SetCleanupOverride задаёт или снимает override радиуса очистки
func (s *Streamer) SetCleanupOverride(o config.RadiusOverride) {
	s.override = o
	s.logger.Info("Cleanup override set to %s", o)
}

// EffectiveRadii возвращает радиусы с учётом уровня давления и override
func (s *Streamer) EffectiveRadii() Radii {
	cleanup := EffectiveCleanup(s.pressure.Tier(), s.opts.RenderRadius, s.opts.CleanupRadius, s.override)
	return EffectiveRadii(s.opts.RenderRadius, cleanup)
}

// Tier возвращает текущий уровень давления
func (s *Streamer) Tier() Tier {
	return s.pressure.Tier()
}

// Pass выполняет один проход: вытеснение must-evict, запрос must-render
// и отправку pending ячеек в пул (ближайшие первыми).
func (s *Streamer) Pass(ctx context.Context) PassReport {
	_, span := s.tracer.Start(ctx, "streamer.pass")
	defer span.End()

	report := PassReport{
		Observer: s.observer,
		Tier:     s.pressure.Tier(),
		Radii:    s.EffectiveRadii(),
	}
	if !s.observerSet {
		return report
	}

	reason := ReasonDistance
	if report.Tier != TierNormal {
		reason = ReasonPressure
	}

	for _, key := range s.registry.Keys() {
		if s.policy.Classify(s.observer, key, report.Radii) == MustEvict {
			s.evict(key, reason)
			report.Evicted++
		}
	}

	now := s.clock()
	for _, key := range s.policy.RenderSet(s.observer, report.Radii) {
		if s.request(key, now) {
			report.Requested++
		}
		s.registry.Touch(key, now)
	}
	if s.registry.Has(s.observer) {
		s.aux.MarkVisited(s.observer, now)
	}

	report.Dispatched, report.Deferred = s.dispatchPending()

	span.SetAttributes(
		attribute.Int("observer.x", s.observer.X),
		attribute.Int("observer.z", s.observer.Z),
		attribute.String("tier", report.Tier.String()),
		attribute.Int("evicted", report.Evicted),
		attribute.Int("requested", report.Requested),
		attribute.Int("dispatched", report.Dispatched),
	)
	if report.Evicted > 0 || report.Requested > 0 {
		s.logger.Debug("Pass at %s (%s, R=%d C=%d): evicted=%d requested=%d dispatched=%d deferred=%d",
			s.observer, report.Tier, report.Radii.Render, report.Radii.Cleanup,
			report.Evicted, report.Requested, report.Dispatched, report.Deferred)
	}

	s.publish()
	return report
}

// request создаёт pending запись и пустые записи хранилищ одновременно
func (s *Streamer) request(key CellKey, now time.Time) bool {
	_, created := s.registry.Request(key, now)
	if created {
		s.content.OpenCell(key)
		s.decorations.OpenCell(key)
	}
	return created
}

func (s *Streamer) dispatchPending() (dispatched, deferred int) {
	var pending []CellKey
	for _, key := range s.registry.Keys() {
		if meta, ok := s.registry.lookup(key); ok && meta.State == StatePending {
			pending = append(pending, key)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return s.policy.Metric.Distance(s.observer, pending[i]) < s.policy.Metric.Distance(s.observer, pending[j])
	})

	for i, key := range pending {
		ticket := uuid.New()
		if !s.pool.Submit(Job{Key: key, Seed: s.opts.Seed, Ticket: ticket}) {
			deferred = len(pending) - i
			s.counters.queueFull.Add(1)
			break
		}
		if err := s.registry.MarkGenerating(key, ticket); err != nil {
			s.pool.Cancel(ticket)
			s.reconcile(key, err)
			continue
		}
		dispatched++
	}
	return dispatched, deferred
}

// Merge сливает результат генерации в хранилища. Результат с чужим
// билетом (ячейка вытеснена или перезапрошена) отбрасывается.
func (s *Streamer) Merge(ctx context.Context, res Result) MergeOutcome {
	_, span := s.tracer.Start(ctx, "streamer.merge", trace.WithAttributes(
		attribute.Int("cell.x", res.Key.X),
		attribute.Int("cell.z", res.Key.Z),
	))
	defer span.End()
	defer s.publish()

	meta, ok := s.registry.lookup(res.Key)
	if !ok || meta.State != StateGenerating || meta.Ticket != res.Ticket {
		s.counters.staleResults.Add(1)
		s.logger.Trace("Dropping stale result for %s", res.Key)
		span.SetAttributes(attribute.String("outcome", OutcomeStale.String()))
		return OutcomeStale
	}

	if res.Err == nil {
		res.Err = s.mergeBatch(res.Key, res.Batch)
	}
	if res.Err != nil {
		s.counters.generationFailures.Add(1)
		s.logger.Warn("⚠️ Cell %s rolled back: %v", res.Key, res.Err)
		s.evict(res.Key, ReasonRollback)
		span.RecordError(res.Err)
		span.SetAttributes(attribute.String("outcome", OutcomeRolledBack.String()))
		return OutcomeRolledBack
	}

	now := s.clock()
	if err := s.registry.MarkResident(res.Key, now); err != nil {
		s.reconcile(res.Key, err)
		return OutcomeRolledBack
	}
	s.aux.SetSpawnTime(res.Key, now)
	s.counters.merges.Add(1)
	logging.LogCellMerged(s.logger, res.Key.X, res.Key.Z, len(res.Batch.Blocks), len(res.Batch.Decorations), res.Took)
	span.SetAttributes(attribute.String("outcome", OutcomeMerged.String()))
	return OutcomeMerged
}

// mergeBatch сначала проверяет весь batch, затем заполняет хранилища.
// При ошибке сцены часть ячейки уже заполнена: её убирает откат через вытеснение.
func (s *Streamer) mergeBatch(key CellKey, batch *Batch) error {
	if batch == nil {
		return fmt.Errorf("%w: %s: empty batch", ErrGenerationFailed, key)
	}
	if err := s.validateBatch(key, batch); err != nil {
		return err
	}

	for _, spec := range batch.Blocks {
		rec := &BlockRecord{
			Pos:          spec.Pos,
			Material:     spec.Material,
			PlayerPlaced: spec.PlayerPlaced,
			Cell:         key,
			Drawable:     Plain{},
		}
		if ds, ok := meshSpec(spec.Pos, spec.Material); ok {
			h, err := s.scene.Attach(ds)
			if err != nil {
				return fmt.Errorf("%w: %s: attach block %s: %v", ErrGenerationFailed, key, spec.Pos, err)
			}
			rec.Drawable = WithDrawable{Handle: h}
		}
		if err := s.content.Put(rec); err != nil {
			s.releaseAttachment(rec.Drawable)
			return fmt.Errorf("%w: %s: %v", ErrGenerationFailed, key, err)
		}
		if block.IsResourceNode(spec.Material) {
			s.aux.AddResourceNode(key, spec.Pos, spec.Material)
		}
	}

	for _, spec := range batch.Decorations {
		if err := s.attachDecoration(key, spec); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrGenerationFailed, key, err)
		}
	}
	return nil
}

func (s *Streamer) validateBatch(key CellKey, batch *Batch) error {
	if batch.Key != key {
		return fmt.Errorf("%w: batch for %s delivered to %s", ErrGenerationFailed, batch.Key, key)
	}

	g := s.opts.Geometry
	seen := make(map[vec.Vec3]struct{}, len(batch.Blocks))
	for _, spec := range batch.Blocks {
		switch {
		case g.CellOf(spec.Pos) != key:
			return fmt.Errorf("%w: %s: block %s belongs to %s", ErrGenerationFailed, key, spec.Pos, g.CellOf(spec.Pos))
		case !g.InHeight(spec.Pos.Y):
			return fmt.Errorf("%w: %s: block %s: %w", ErrGenerationFailed, key, spec.Pos, ErrOutOfHeight)
		case !block.IsValidBlockID(spec.Material):
			return fmt.Errorf("%w: %s: block %s material %d: %w", ErrGenerationFailed, key, spec.Pos, spec.Material, ErrUnknownMaterial)
		}
		if _, dup := seen[spec.Pos]; dup {
			return fmt.Errorf("%w: %s: duplicate block %s", ErrGenerationFailed, key, spec.Pos)
		}
		seen[spec.Pos] = struct{}{}
	}

	anchors := make(map[vec.Vec3]struct{}, len(batch.Decorations))
	for _, d := range batch.Decorations {
		if g.CellOf(d.Anchor) != key {
			return fmt.Errorf("%w: %s: decoration %s outside cell", ErrGenerationFailed, key, d.Anchor)
		}
		if _, dup := anchors[d.Anchor]; dup {
			return fmt.Errorf("%w: %s: duplicate decoration %s", ErrGenerationFailed, key, d.Anchor)
		}
		if _, ok := seen[d.Anchor]; !ok {
			return fmt.Errorf("%w: %s: decoration %s has no anchor block", ErrGenerationFailed, key, d.Anchor)
		}
		anchors[d.Anchor] = struct{}{}
	}
	return nil
}

func (s *Streamer) attachDecoration(key CellKey, spec DecorationSpec) error {
	ds := spec.drawable()
	h, err := s.scene.Attach(ds)
	if err != nil {
		return fmt.Errorf("attach decoration %s: %w", spec.Anchor, err)
	}
	if err := s.decorations.Add(&Decoration{Anchor: spec.Anchor, Cell: key, Handle: h, Spec: ds}); err != nil {
		s.releaseAttachment(WithDrawable{Handle: h})
		return err
	}
	return nil
}

func (s *Streamer) releaseAttachment(a Attachment) {
	d, ok := a.(WithDrawable)
	if !ok {
		return
	}
	if err := s.eviction.release(d.Handle); err != nil {
		s.counters.disposeFailures.Add(1)
		s.logger.Warn("release %s: %v", d.Handle, err)
	}
}

// DrainResults сливает все готовые результаты без блокировки
func (s *Streamer) DrainResults(ctx context.Context) int {
	n := 0
	for {
		select {
		case res := <-s.pool.Results():
			s.Merge(ctx, res)
			n++
		default:
			return n
		}
	}
}

// AwaitResult ждёт один результат пула и сливает его
func (s *Streamer) AwaitResult(ctx context.Context) (MergeOutcome, error) {
	select {
	case res := <-s.pool.Results():
		return s.Merge(ctx, res), nil
	case <-ctx.Done():
		return OutcomeStale, ctx.Err()
	}
}

// Settle сливает результаты, пока в реестре есть ячейки в генерации
func (s *Streamer) Settle(ctx context.Context) error {
	for {
		_, generating, _ := s.registry.CountByState()
		if generating == 0 {
			return nil
		}
		if _, err := s.AwaitResult(ctx); err != nil {
			return err
		}
	}
}

// Invalidate полностью освобождает ячейку; следующий проход сгенерирует её заново
func (s *Streamer) Invalidate(key CellKey) EvictionReport {
	report := s.evict(key, ReasonInvalidate)
	s.publish()
	return report
}

// InvalidateAsync ставит инвалидацию в очередь горутины-владельца.
// Безопасен для вызова из любой горутины.
func (s *Streamer) InvalidateAsync(key CellKey) bool {
	select {
	case s.invalidations <- key:
		return true
	default:
		s.logger.Warn("Invalidation queue full, dropping %s", key)
		return false
	}
}

// NotifyIdle запрашивает дополнительную проверку давления.
// Безопасен для вызова из любой горутины.
func (s *Streamer) NotifyIdle() {
	select {
	case s.idle <- struct{}{}:
	default:
	}
}

func (s *Streamer) evict(key CellKey, reason EvictReason) EvictionReport {
	report := s.eviction.Evict(key, reason)
	if report.Absent {
		return report
	}
	s.counters.recordEviction(report)
	return report
}

// allKeys – объединение ключей всех индексов
func (s *Streamer) allKeys() []CellKey {
	set := make(map[CellKey]struct{})
	for _, k := range s.registry.Keys() {
		set[k] = struct{}{}
	}
	for _, k := range s.content.Cells() {
		set[k] = struct{}{}
	}
	for _, k := range s.decorations.Cells() {
		set[k] = struct{}{}
	}
	for _, k := range s.aux.Keys() {
		set[k] = struct{}{}
	}
	keys := make([]CellKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}
