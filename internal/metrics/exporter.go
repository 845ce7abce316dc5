// Package metrics экспортирует состояние стримера в Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
)

const namespace = "chunkstream"

// StatsProvider – источник снимков состояния. Реализуется world.Streamer.
type StatsProvider interface {
	Stats() world.Stats
}

// Exporter периодически переносит снимок Stats в Gauge/Counter.
// Counter-ы пополняются дельтой между снимками.
type Exporter struct {
	provider StatsProvider
	logger   *logging.Logger
	gatherer prometheus.Gatherer
	proc     *process.Process
	interval time.Duration

	quit   chan struct{}
	done   chan struct{}
	server *http.Server

	cells            *prometheus.GaugeVec
	blocks           prometheus.Gauge
	decorations      prometheus.Gauge
	resourceNodes    prometheus.Gauge
	queuedJobs       prometheus.Gauge
	tier             prometheus.Gauge
	radius           *prometheus.GaugeVec
	rss              prometheus.Gauge
	cpu              prometheus.Gauge
	merges           prometheus.Counter
	staleResults     prometheus.Counter
	generationFailed prometheus.Counter
	disposeFailed    prometheus.Counter
	playerSaved      prometheus.Counter
	queueFull        prometheus.Counter
	inconsistencies  prometheus.Counter
	evictions        *prometheus.CounterVec

	prev world.Stats
}

// NewExporter создаёт экспортер и регистрирует метрики в reg.
// gatherer используется HTTP-эндпоинтом; обычно это тот же реестр.
func NewExporter(provider StatsProvider, reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *logging.Logger) *Exporter {
	e := &Exporter{
		provider: provider,
		logger:   logger,
		gatherer: gatherer,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		cells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cells",
			Help:      "Количество ячеек в реестре по состоянию.",
		}, []string{"state"}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_blocks",
			Help:      "Количество записей блоков в хранилище контента.",
		}),
		decorations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "decorations",
			Help:      "Количество живых декораций.",
		}),
		resourceNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_nodes",
			Help:      "Количество проиндексированных ресурсных узлов.",
		}),
		queuedJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generator_jobs_inflight",
			Help:      "Задачи генерации, ещё не вернувшие результат.",
		}),
		tier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pressure_tier",
			Help:      "Уровень давления памяти: 0 normal, 1 aggressive, 2 critical.",
		}),
		radius: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "effective_radius",
			Help:      "Эффективные радиусы отрисовки и очистки в ячейках.",
		}, []string{"kind"}),
		rss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Резидентная память процесса.",
		}),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом.",
		}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Слитые результаты генерации.",
		}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Результаты генерации, отброшенные из-за устаревшего билета.",
		}),
		generationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Ошибки генерации и слияния, завершившиеся откатом.",
		}),
		disposeFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispose_failures_total",
			Help:      "Ошибки освобождения ресурсов сцены при вытеснении.",
		}),
		playerSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_blocks_saved_total",
			Help:      "Блоки игрока, сохранённые перед вытеснением.",
		}),
		queueFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_queue_full_total",
			Help:      "Проходы, в которых очередь генерации была заполнена.",
		}),
		inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inconsistencies_total",
			Help:      "Обнаруженные рассинхронизации индексов ячеек.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Вытесненные ячейки по причине.",
		}, []string{"reason"}),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		e.proc = proc
	} else {
		logger.Warn("Process metrics unavailable: %v", err)
	}

	reg.MustRegister(
		e.cells, e.blocks, e.decorations, e.resourceNodes, e.queuedJobs, e.tier, e.radius,
		e.rss, e.cpu, e.merges, e.staleResults, e.generationFailed, e.disposeFailed,
		e.playerSaved, e.queueFull, e.inconsistencies, e.evictions,
	)
	return e
}

// StartHTTP запускает HTTP-эндпоинт /metrics и цикл обновления. Неблокирующий.
func (e *Exporter) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		e.logger.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go e.loop()
}

// Stop останавливает цикл обновления и HTTP-сервер
func (e *Exporter) Stop(ctx context.Context) error {
	close(e.quit)
	<-e.done
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Collect()
		case <-e.quit:
			return
		}
	}
}

// Collect переносит текущий снимок в метрики
func (e *Exporter) Collect() {
	st := e.provider.Stats()
	e.observe(st)
	e.observeProcess()
}

func (e *Exporter) observe(st world.Stats) {
	e.cells.WithLabelValues("pending").Set(float64(st.PendingCells))
	e.cells.WithLabelValues("generating").Set(float64(st.GeneratingCells))
	e.cells.WithLabelValues("resident").Set(float64(st.ResidentCells))
	e.blocks.Set(float64(st.Blocks))
	e.decorations.Set(float64(st.Decorations))
	e.resourceNodes.Set(float64(st.ResourceNodes))
	e.queuedJobs.Set(float64(st.QueuedJobs))
	e.tier.Set(float64(st.Tier))
	e.radius.WithLabelValues("render").Set(float64(st.Radii.Render))
	e.radius.WithLabelValues("cleanup").Set(float64(st.Radii.Cleanup))

	addDelta(e.merges, st.Merges, e.prev.Merges)
	addDelta(e.staleResults, st.StaleResults, e.prev.StaleResults)
	addDelta(e.generationFailed, st.GenerationFailures, e.prev.GenerationFailures)
	addDelta(e.disposeFailed, st.DisposeFailures, e.prev.DisposeFailures)
	addDelta(e.playerSaved, st.PlayerBlocksSaved, e.prev.PlayerBlocksSaved)
	addDelta(e.queueFull, st.QueueFull, e.prev.QueueFull)
	addDelta(e.inconsistencies, st.Inconsistencies, e.prev.Inconsistencies)
	for reason, n := range st.Evictions {
		addDelta(e.evictions.WithLabelValues(string(reason)), n, e.prev.Evictions[reason])
	}

	e.prev = st
}

func (e *Exporter) observeProcess() {
	if e.proc == nil {
		return
	}
	if mem, err := e.proc.MemoryInfo(); err == nil {
		e.rss.Set(float64(mem.RSS))
	}
	if pct, err := e.proc.CPUPercent(); err == nil {
		e.cpu.Set(pct)
	}
}

func addDelta(c prometheus.Counter, cur, prev uint64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}
