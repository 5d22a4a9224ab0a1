package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/world"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig оборачивает все ошибки проверки конфигурации
var ErrInvalidConfig = errors.New("некорректная конфигурация")

// Config корневая структура конфигурации приложения
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed         int64 `yaml:"seed"`
	Width        int   `yaml:"width_in_chunks"`
	Height       int   `yaml:"height_in_chunks"`
	Depth        int   `yaml:"depth_in_chunks"`
	ActiveRadius int   `yaml:"active_chunks_radius"`
}

// Dimensions возвращает размеры острова в чанках
func (w WorldConfig) Dimensions() world.Dimensions {
	return world.Dimensions{Width: w.Width, Height: w.Height, Depth: w.Depth}
}

type PipelineConfig struct {
	MaxGenerationJobs int    `yaml:"max_generation_jobs"`
	RendersPerTick    int    `yaml:"renders_per_tick"`
	TickIntervalMS    int    `yaml:"tick_interval_ms"`
	ExportDir         string `yaml:"export_dir"` // пусто - дампы мешей не пишутся
}

type ServerConfig struct {
	Enabled    bool `yaml:"enabled"`
	StatusPort int  `yaml:"status_port"`
}

// GetStatusPort возвращает порт API состояния с приоритетом: config -> env -> default
func (s *ServerConfig) GetStatusPort() int {
	return getPortWithEnvFallback(s.StatusPort, "AETHER_STATUS_PORT", 8089)
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	dims := world.DefaultDimensions()
	return &Config{
		World: WorldConfig{
			Seed:         world.DefaultSeed,
			Width:        dims.Width,
			Height:       dims.Height,
			Depth:        dims.Depth,
			ActiveRadius: world.ActiveChunksRadius,
		},
		Pipeline: PipelineConfig{
			MaxGenerationJobs: world.MaxGenJobCount,
			RendersPerTick:    1,
			TickIntervalMS:    16,
		},
		Server: ServerConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "aether",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 || c.World.Depth <= 0 {
		return fmt.Errorf("%w: размеры острова должны быть положительными (%dx%dx%d)",
			ErrInvalidConfig, c.World.Width, c.World.Height, c.World.Depth)
	}
	if c.World.ActiveRadius < 0 {
		return fmt.Errorf("%w: active_chunks_radius = %d", ErrInvalidConfig, c.World.ActiveRadius)
	}
	if c.Pipeline.MaxGenerationJobs <= 0 {
		return fmt.Errorf("%w: max_generation_jobs = %d", ErrInvalidConfig, c.Pipeline.MaxGenerationJobs)
	}
	if c.Pipeline.RendersPerTick <= 0 {
		return fmt.Errorf("%w: renders_per_tick = %d", ErrInvalidConfig, c.Pipeline.RendersPerTick)
	}
	if c.Pipeline.TickIntervalMS <= 0 {
		return fmt.Errorf("%w: tick_interval_ms = %d", ErrInvalidConfig, c.Pipeline.TickIntervalMS)
	}
	if c.Server.StatusPort < 0 || c.Server.StatusPort > 65535 {
		return fmt.Errorf("%w: status_port = %d", ErrInvalidConfig, c.Server.StatusPort)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", используется переменная AETHER_CONFIG; без неё возвращается Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("AETHER_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
