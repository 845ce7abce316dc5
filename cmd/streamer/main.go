package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/chunk-streamer/internal/config"
	"github.com/annel0/chunk-streamer/internal/invalidation"
	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/metrics"
	"github.com/annel0/chunk-streamer/internal/observability"
	"github.com/annel0/chunk-streamer/internal/scene"
	"github.com/annel0/chunk-streamer/internal/storage"
	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/annel0/chunk-streamer/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

var errInvalidationQueueFull = errors.New("invalidation queue is full")

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (or STREAMER_CONFIG)")
		speed      = flag.Float64("speed", 12, "Observer speed along +X, blocks per second")
		duration   = flag.Duration("duration", 0, "Stop after this long (0 = until signal)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logging.InitDefaultLogger("streamer", cfg.Logging.Dir, level); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🌍 Запуск chunk streamer: seed=%d R=%d C=%d T1=%d T2=%d",
		cfg.World.Seed, cfg.Streaming.RenderRadius, cfg.Streaming.CleanupRadius,
		cfg.Pressure.LowThreshold, cfg.Pressure.HighThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("telemetry shutdown: %v", err)
		}
	}()

	opts, err := world.OptionsFromConfig(cfg)
	if err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}

	var persist world.Persistence
	if cfg.Storage.Enabled {
		store, err := storage.NewCellStore(cfg.Storage.Path, logging.For(logging.ComponentStorage))
		if err != nil {
			logging.Error("❌ Ошибка открытия хранилища: %v", err)
			os.Exit(1)
		}
		defer store.Close()
		persist = store
	}

	sc := scene.NewMemoryScene()
	streamer := world.NewStreamer(opts, world.NewPerlinGenerator(opts.Geometry), sc, persist, logging.For(logging.ComponentStream))

	if cfg.Metrics.Addr != "" {
		exporter := metrics.NewExporter(streamer, prometheus.DefaultRegisterer, prometheus.DefaultGatherer, logging.For(logging.ComponentMetrics))
		exporter.StartHTTP(cfg.Metrics.Addr)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = exporter.Stop(stopCtx)
		}()
	}

	if cfg.Invalidation.NATSURL != "" {
		bus, err := invalidation.Connect(invalidation.Config{
			NATSURL: cfg.Invalidation.NATSURL,
			Subject: cfg.Invalidation.Subject,
		}, logging.For(logging.ComponentInvalidation))
		if err != nil {
			logging.Warn("⚠️ NATS недоступен, удалённая инвалидация отключена: %v", err)
		} else {
			defer bus.Close()
			err = bus.Subscribe(ctx, func(key world.CellKey) error {
				if !streamer.InvalidateAsync(key) {
					return errInvalidationQueueFull
				}
				return nil
			})
			if err != nil {
				logging.Warn("⚠️ %v", err)
			}
		}
	}

	observer := world.NewLinearPath(
		vec.Vec3Float{X: 0.5, Y: float64(cfg.World.MaxY) / 2, Z: 0.5},
		vec.Vec3Float{X: *speed},
	)

	if err := streamer.Run(ctx, observer); err != nil {
		logging.Error("❌ Streamer stopped with error: %v", err)
	}

	st := streamer.Stats()
	attached, disposed := sc.Counters()
	logging.Info("✅ Остановлен: merges=%d evictions=%d stale=%d failures=%d, scene attach=%d dispose=%d live=%d",
		st.Merges, st.TotalEvictions(), st.StaleResults, st.GenerationFailures, attached, disposed, sc.Live())
}
