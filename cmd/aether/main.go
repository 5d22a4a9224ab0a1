package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/aether/internal/api"
	"github.com/annel0/aether/internal/config"
	"github.com/annel0/aether/internal/driver"
	"github.com/annel0/aether/internal/eventbus"
	"github.com/annel0/aether/internal/export"
	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/metrics"
	"github.com/annel0/aether/internal/observability"
	"github.com/annel0/aether/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML-конфигурации (по умолчанию AETHER_CONFIG)")
		exportDir  = flag.String("export", "", "Каталог для дампов мешей, перекрывает pipeline.export_dir")
		walkStride = flag.Int("stride", 5, "Шаг маршрута в блоках")
		stepTicks  = flag.Int("step-ticks", 10, "Тиков между шагами маршрута")
		once       = flag.Bool("once", false, "Завершиться после прохождения маршрута")
	)
	flag.Parse()

	if err := run(*configPath, *exportDir, *walkStride, *stepTicks, *once); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(configPath, exportDir string, stride, stepTicks int, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if exportDir != "" {
		cfg.Pipeline.ExportDir = exportDir
	}

	if err := setupLogging(cfg.Logging); err != nil {
		return err
	}
	defer logging.CloseDefaultLogger()
	defer func() {
		if err := logging.GetLoggerManager().CloseAll(); err != nil {
			log.Printf("ошибка закрытия логгеров: %v", err)
		}
	}()

	logging.Info("🌍 Запуск Aether: seed=%d, остров %dx%dx%d чанков, радиус %d",
		cfg.World.Seed, cfg.World.Width, cfg.World.Height, cfg.World.Depth, cfg.World.ActiveRadius)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("⚠️ Остановка телеметрии: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pm := metrics.NewPipelineMetrics(reg)

	bus := eventbus.NewMemoryBus(1024)
	defer bus.Close()
	reg.MustRegister(eventbus.NewCollector("aether", bus))
	if _, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("events")); err != nil {
		return fmt.Errorf("журнал событий: %w", err)
	}
	recorder := eventbus.NewRecorder(256)
	if _, err := recorder.Attach(bus, eventbus.Filter{}); err != nil {
		return fmt.Errorf("журнал событий: %w", err)
	}

	var sink pipeline.MeshSink
	if cfg.Pipeline.ExportDir != "" {
		w, err := export.NewOBJWriter(cfg.Pipeline.ExportDir, nil)
		if err != nil {
			return err
		}
		sink = w
		logging.Info("💾 Меши сохраняются в %s", cfg.Pipeline.ExportDir)
	}

	session, err := driver.NewSession(cfg, driver.Options{
		Renderer: driver.NewLogRenderer(logging.GetComponentLogger("renderer")),
		Metrics:  pm,
		Sink:     sink,
		Events:   bus,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	walk := driver.Walk{
		Positions:    driver.ScriptedWalk(session.Player().Position(), driver.DefaultLegs, stride),
		TicksPerStep: stepTicks,
		ExitWhenDone: once,
	}

	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return session.Run(gctx, 0, walk)
	})
	if cfg.Server.Enabled {
		status := api.NewStatusServer(api.Config{
			Addr:     fmt.Sprintf(":%d", cfg.Server.GetStatusPort()),
			World:    session.World(),
			Stats:    session,
			Registry: reg,
		})
		g.Go(func() error {
			return status.Run(gctx)
		})
	}

	err = g.Wait()
	for _, s := range session.PipelineStats() {
		logging.Info("📊 Остров %d: колонок %d, чанков %d, центр %s",
			s.IslandID, s.GeneratedColumns, s.Chunks, s.Center)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("👋 Aether остановлен: %d тиков за %s", session.Ticks(), time.Since(started).Round(time.Millisecond))
	return nil
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("уровень логирования %q: %w", cfg.Level, err)
	}
	logging.SetLogDir(cfg.Dir)
	if err := logging.InitDefaultLogger("aether"); err != nil {
		return fmt.Errorf("инициализация логирования: %w", err)
	}
	logging.Default().SetLevels(level, logging.TRACE)
	logging.GetLoggerManager().SetConsoleLevel(level)
	return nil
}
