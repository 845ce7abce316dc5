package world

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job – задача генерации. Содержит только значения, без живых ресурсов.
type Job struct {
	Key    CellKey
	Seed   int64
	Ticket uuid.UUID
}

// Result – готовый Batch или ошибка генерации для задачи
type Result struct {
	Job
	Batch *Batch
	Err   error
	Took  time.Duration
}

// GeneratorPool выполняет генерацию на воркерах вне горутины-владельца.
// Пул не знает о реестре: он получает (ключ, сид, билет) и возвращает
// неизменяемый Batch через канал Results.
type GeneratorPool struct {
	gen     TerrainGenerator
	persist Persistence
	workers int
	logger  *logging.Logger

	jobs    chan Job
	results chan Result

	mu        sync.Mutex
	inflight  map[uuid.UUID]struct{}
	cancelled map[uuid.UUID]struct{}

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewGeneratorPool создаёт пул. persist может быть nil.
func NewGeneratorPool(gen TerrainGenerator, persist Persistence, workers, queueSize int, logger *logging.Logger) *GeneratorPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}

	return &GeneratorPool{
		gen:       gen,
		persist:   persist,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan Job, queueSize),
		results:   make(chan Result, queueSize+workers),
		inflight:  make(map[uuid.UUID]struct{}),
		cancelled: make(map[uuid.UUID]struct{}),
	}
}

// Start запускает воркеров
func (p *GeneratorPool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	group, gctx := errgroup.WithContext(ctx)
	p.group = group
	for i := 0; i < p.workers; i++ {
		id := i
		group.Go(func() error {
			p.worker(gctx, id)
			return nil
		})
	}
}

// Stop останавливает воркеров и ждёт их завершения
func (p *GeneratorPool) Stop() error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return p.group.Wait()
}

// Submit ставит задачу в очередь без блокировки.
// Возвращает false, если очередь заполнена.
func (p *GeneratorPool) Submit(job Job) bool {
	p.mu.Lock()
	p.inflight[job.Ticket] = struct{}{}
	p.mu.Unlock()

	select {
	case p.jobs <- job:
		return true
	default:
		p.mu.Lock()
		delete(p.inflight, job.Ticket)
		p.mu.Unlock()
		return false
	}
}

// Cancel помечает задачу как ненужную. Если воркер ещё не взял её,
// генерация пропускается; уже запущенная генерация доходит до конца,
// а её результат отбрасывает владелец.
func (p *GeneratorPool) Cancel(ticket uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inflight[ticket]; ok {
		p.cancelled[ticket] = struct{}{}
	}
}

// Results возвращает канал готовых результатов
func (p *GeneratorPool) Results() <-chan Result {
	return p.results
}

// Pending возвращает число задач, которые ещё не вернули результат
func (p *GeneratorPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

func (p *GeneratorPool) isCancelled(ticket uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.cancelled[ticket]
	return ok
}

func (p *GeneratorPool) finish(ticket uuid.UUID) {
	p.mu.Lock()
	delete(p.inflight, ticket)
	delete(p.cancelled, ticket)
	p.mu.Unlock()
}

func (p *GeneratorPool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			if p.isCancelled(job.Ticket) {
				p.finish(job.Ticket)
				p.logger.Trace("worker %d: skip cancelled cell %s", id, job.Key)
				continue
			}

			res := p.run(ctx, job)
			p.finish(job.Ticket)

			select {
			case p.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// run выполняет одну задачу; паника генератора превращается в ошибку
func (p *GeneratorPool) run(ctx context.Context, job Job) (res Result) {
	start := time.Now()
	res.Job = job

	defer func() {
		if r := recover(); r != nil {
			res.Batch = nil
			res.Err = fmt.Errorf("%w: %s: panic: %v", ErrGenerationFailed, job.Key, r)
		}
		res.Took = time.Since(start)
	}()

	batch, err := p.gen.Generate(ctx, job.Key, job.Seed)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrGenerationFailed, job.Key, err)
		return res
	}
	if batch == nil {
		res.Err = fmt.Errorf("%w: %s: empty batch", ErrGenerationFailed, job.Key)
		return res
	}

	if p.persist != nil {
		saved, found, err := p.persist.LoadCell(job.Key)
		if err != nil {
			res.Err = fmt.Errorf("%w: %s: load saved state: %v", ErrGenerationFailed, job.Key, err)
			return res
		}
		if found {
			mergeSaved(batch, saved)
		}
	}

	res.Batch = batch
	return res
}
