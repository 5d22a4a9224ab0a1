package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/aether/internal/eventbus"
	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/middleware"
	"github.com/annel0/aether/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const shutdownTimeout = 10 * time.Second

// Config содержит зависимости сервера состояния
type Config struct {
	Addr     string // адрес прослушивания, например ":8089"
	World    *world.World
	Stats    StatsSource
	Events   *eventbus.Recorder
	Registry *prometheus.Registry // nil - регистр по умолчанию
	Logger   *logging.Logger
}

// StatusServer отдаёт состояние мира и конвейера по HTTP
type StatusServer struct {
	router  *gin.Engine
	addr    string
	world   *world.World
	stats   StatsSource
	events  *eventbus.Recorder
	metrics *ServerMetrics
	logger  *logging.Logger
}

// NewStatusServer создаёт сервер и настраивает маршруты
func NewStatusServer(cfg Config) *StatusServer {
	if cfg.Addr == "" {
		cfg.Addr = ":8089"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aether_status"))
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if cfg.Registry != nil {
		reg, gatherer = cfg.Registry, cfg.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("aether_status", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	s := &StatusServer{
		router:  router,
		addr:    cfg.Addr,
		world:   cfg.World,
		stats:   cfg.Stats,
		events:  cfg.Events,
		metrics: NewServerMetrics(),
		logger:  cfg.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *StatusServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/pipeline", s.handlePipeline)
		api.GET("/islands", s.handleIslands)
		api.GET("/islands/:id", s.handleIsland)
		api.GET("/events", s.handleEvents)
		api.GET("/server", s.handleServerInfo)
	}
}

// Handler возвращает http.Handler сервера
func (s *StatusServer) Handler() http.Handler { return s.router }

// Run слушает addr до отмены ctx, затем корректно останавливается
func (s *StatusServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("прослушивание %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx
func (s *StatusServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("✅ API состояния запущено на http://%s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API состояния: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("🛑 Остановка API состояния...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка API состояния: %w", err)
	}
	return nil
}

func (s *StatusServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": s.metrics.GetUptime(),
	})
}

func (s *StatusServer) handlePipeline(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "конвейер не запущен"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Data:    s.stats.PipelineStats(),
	})
}

func (s *StatusServer) handleIslands(c *gin.Context) {
	if s.world == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "мир не создан"})
		return
	}
	islands := s.world.Islands()
	out := make([]IslandInfo, 0, len(islands))
	for _, island := range islands {
		out = append(out, islandInfo(island))
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: out})
}

func (s *StatusServer) handleIsland(c *gin.Context) {
	if s.world == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "мир не создан"})
		return
	}
	var uri struct {
		ID int `uri:"id" binding:"min=0"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "некорректный id острова"})
		return
	}
	for _, island := range s.world.Islands() {
		if island.ID() == uri.ID {
			c.JSON(http.StatusOK, GenericResponse{Success: true, Data: islandInfo(island)})
			return
		}
	}
	c.JSON(http.StatusNotFound, GenericResponse{Message: fmt.Sprintf("остров %d не найден", uri.ID)})
}

// handleEvents отдаёт последние события конвейера, ?limit=N ограничивает количество
func (s *StatusServer) handleEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: "журнал событий выключен"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "некорректный limit"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Data: s.events.Recent(limit)})
}

func (s *StatusServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Data:    s.metrics.Snapshot(),
	})
}

func islandInfo(island *world.Island) IslandInfo {
	dims := island.Dimensions()
	return IslandInfo{
		ID:               island.ID(),
		Nexus:            island.Nexus().String(),
		Seed:             island.Seed(),
		Width:            dims.Width,
		Height:           dims.Height,
		Depth:            dims.Depth,
		Chunks:           island.ChunkCount(),
		GeneratedColumns: island.GeneratedColumnCount(),
	}
}
