package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации стримера.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Streaming    StreamingConfig    `yaml:"streaming"`
	Pressure     PressureConfig     `yaml:"pressure"`
	Storage      StorageConfig      `yaml:"storage"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Invalidation InvalidationConfig `yaml:"invalidation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// WorldConfig описывает геометрию мира
type WorldConfig struct {
	Seed     int64 `yaml:"seed"`
	CellSize int   `yaml:"cell_size"`
	MinY     int   `yaml:"min_y"`
	MaxY     int   `yaml:"max_y"` // не включительно
}

// StreamingConfig описывает радиусы и пул генерации
type StreamingConfig struct {
	RenderRadius     int    `yaml:"render_radius"`
	CleanupRadius    int    `yaml:"cleanup_radius"`
	Metric           string `yaml:"metric"` // chebyshev | manhattan | euclidean
	FrameHz          int    `yaml:"frame_hz"`
	GeneratorWorkers int    `yaml:"generator_workers"`
	QueueSize        int    `yaml:"queue_size"`
	Strict           bool   `yaml:"strict"` // панику при рассинхронизации индексов (dev-сборки)
}

// PressureConfig описывает пороги монитора давления.
// CleanupOverride – указатель: nil означает "не задано", 0 – валидное значение.
type PressureConfig struct {
	LowThreshold    int           `yaml:"low_threshold"`
	HighThreshold   int           `yaml:"high_threshold"`
	Interval        time.Duration `yaml:"interval"`
	CleanupOverride *int          `yaml:"cleanup_override"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // пусто – экспортер не запускается
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
}

type InvalidationConfig struct {
	NATSURL string `yaml:"nats_url"` // пусто – подписка отключена
	Subject string `yaml:"subject"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// RadiusOverride – явный опциональный радиус. Ноль не считается "пустым".
type RadiusOverride struct {
	Value int
	Set   bool
}

// NoOverride возвращает незаданный override
func NoOverride() RadiusOverride {
	return RadiusOverride{}
}

// Override возвращает заданный override
func Override(v int) RadiusOverride {
	return RadiusOverride{Value: v, Set: true}
}

// Or возвращает значение override, если он задан, иначе fallback
func (o RadiusOverride) Or(fallback int) int {
	if o.Set {
		return o.Value
	}
	return fallback
}

func (o RadiusOverride) String() string {
	if !o.Set {
		return "unset"
	}
	return fmt.Sprintf("%d", o.Value)
}

// CleanupOverrideValue переводит yaml-указатель в RadiusOverride
func (p PressureConfig) CleanupOverrideValue() RadiusOverride {
	if p.CleanupOverride == nil {
		return NoOverride()
	}
	return Override(*p.CleanupOverride)
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:     12345,
			CellSize: 16,
			MinY:     0,
			MaxY:     128,
		},
		Streaming: StreamingConfig{
			RenderRadius:     2,
			CleanupRadius:    8,
			Metric:           "chebyshev",
			FrameHz:          60,
			GeneratorWorkers: 4,
			QueueSize:        64,
		},
		Pressure: PressureConfig{
			LowThreshold:  150000,
			HighThreshold: 300000,
			Interval:      2 * time.Second,
		},
		Storage: StorageConfig{
			Path: "data",
		},
		Telemetry: TelemetryConfig{
			Service: "chunk-streamer",
		},
		Invalidation: InvalidationConfig{
			Subject: "chunkstream.invalidate",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var errs []error

	if c.World.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("world.cell_size должен быть > 0, получено %d", c.World.CellSize))
	}
	if c.World.MaxY <= c.World.MinY {
		errs = append(errs, fmt.Errorf("world.max_y (%d) должен быть больше min_y (%d)", c.World.MaxY, c.World.MinY))
	}
	if c.Streaming.RenderRadius < 0 {
		errs = append(errs, fmt.Errorf("streaming.render_radius не может быть отрицательным"))
	}
	if c.Streaming.CleanupRadius < c.Streaming.RenderRadius {
		errs = append(errs, fmt.Errorf("streaming.cleanup_radius (%d) должен быть >= render_radius (%d)",
			c.Streaming.CleanupRadius, c.Streaming.RenderRadius))
	}
	switch c.Streaming.Metric {
	case "", "chebyshev", "manhattan", "euclidean":
	default:
		errs = append(errs, fmt.Errorf("streaming.metric: неизвестная метрика %q", c.Streaming.Metric))
	}
	if c.Streaming.GeneratorWorkers <= 0 {
		errs = append(errs, fmt.Errorf("streaming.generator_workers должен быть > 0"))
	}
	if c.Streaming.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("streaming.queue_size должен быть > 0"))
	}
	if c.Pressure.LowThreshold <= 0 || c.Pressure.HighThreshold <= c.Pressure.LowThreshold {
		errs = append(errs, fmt.Errorf("pressure: требуется 0 < low_threshold (%d) < high_threshold (%d)",
			c.Pressure.LowThreshold, c.Pressure.HighThreshold))
	}
	if c.Pressure.Interval <= 0 {
		errs = append(errs, fmt.Errorf("pressure.interval должен быть > 0"))
	}
	if c.Pressure.CleanupOverride != nil && *c.Pressure.CleanupOverride < 0 {
		errs = append(errs, fmt.Errorf("pressure.cleanup_override не может быть отрицательным"))
	}

	return errors.Join(errs...)
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV STREAMER_CONFIG; если и он пуст –
// возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("STREAMER_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфига %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфига %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
