package world

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// PressureCheck пересчитывает уровень давления, сверяет индексы и при
// ненормальном уровне сразу выполняет проход очистки.
func (s *Streamer) PressureCheck(ctx context.Context) Tier {
	ctx, span := s.tracer.Start(ctx, "streamer.pressure")
	defer span.End()

	count := s.content.Count()
	prev := s.pressure.Tier()
	tier, changed := s.pressure.Evaluate(count, s.clock())
	span.SetAttributes(attribute.Int("blocks", count), attribute.String("tier", tier.String()))

	if changed {
		radii := s.EffectiveRadii()
		if tier == TierNormal {
			s.logger.Info("✅ Pressure %s -> %s (blocks=%d, R=%d C=%d)", prev, tier, count, radii.Render, radii.Cleanup)
		} else {
			s.logger.Warn("⚠️ Pressure %s -> %s (blocks=%d, R=%d C=%d)", prev, tier, count, radii.Render, radii.Cleanup)
		}
	}

	for _, issue := range s.Verify() {
		s.reconcile(issue.Key, issue)
	}

	if tier != TierNormal || changed {
		s.Pass(ctx)
	}
	s.publish()
	return tier
}

// Run – цикл горутины-владельца. Опрашивает наблюдателя каждый кадр,
// сливает результаты пула, проверяет давление по таймеру и по сигналу простоя.
func (s *Streamer) Run(ctx context.Context, src ObserverSource) error {
	s.Start(ctx)
	defer func() {
		if err := s.Stop(); err != nil {
			s.logger.Warn("stop: %v", err)
		}
	}()

	frameInterval := s.opts.FrameInterval
	if frameInterval <= 0 {
		frameInterval = time.Second / 60
	}
	pressureInterval := s.opts.PressureInterval
	if pressureInterval <= 0 {
		pressureInterval = 2 * time.Second
	}

	frames := time.NewTicker(frameInterval)
	defer frames.Stop()
	pressure := time.NewTicker(pressureInterval)
	defer pressure.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-frames.C:
			if src != nil {
				s.SetObserver(src.Position())
			}
			s.Pass(ctx)

		case res := <-s.pool.Results():
			s.Merge(ctx, res)

		case <-pressure.C:
			s.PressureCheck(ctx)

		case <-s.idle:
			s.logger.Trace("Idle signal: running pressure check")
			s.PressureCheck(ctx)

		case key := <-s.invalidations:
			if report := s.Invalidate(key); !report.Absent {
				s.logger.Info("🔄 Cell %s invalidated (%d blocks)", key, report.Blocks)
			}
		}
	}
}
