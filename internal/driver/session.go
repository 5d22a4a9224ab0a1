package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/aether/internal/config"
	"github.com/annel0/aether/internal/eventbus"
	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/metrics"
	"github.com/annel0/aether/internal/pipeline"
	"github.com/annel0/aether/internal/terrain"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// StartPosition - мировая позиция первого игрока
var StartPosition = mgl32.Vec3{200, 70, 200}

// StartNexus - нексус стартового острова
var StartNexus = vec.New(0, 0, 0)

// Options - зависимости сессии. Пустые поля заполняются значениями по умолчанию.
type Options struct {
	Terrain  pipeline.Terrain
	Renderer pipeline.Renderer
	Metrics  *metrics.PipelineMetrics
	Sink     pipeline.MeshSink
	Events   eventbus.EventBus
	Logger   *logging.Logger
	Start    *mgl32.Vec3
}

// Session владеет миром, первым игроком и конвейерами островов.
// Tick и MovePlayer вызываются одной управляющей горутиной,
// PipelineStats безопасен из любой.
type Session struct {
	cfg    *config.Config
	opts   Options
	world  *world.World
	player *world.Player
	logger *logging.Logger

	mu        sync.Mutex
	pipelines map[int]*pipeline.IslandRenderer
	current   *pipeline.IslandRenderer
	ticks     uint64
}

// NewSession создаёт стартовый остров, ставит игрока и запускает отрисовку вокруг него
func NewSession(cfg *config.Config, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = logging.GetWorldLogger()
	}
	if opts.Terrain == nil {
		opts.Terrain = terrain.NewGenerator()
	}
	if opts.Renderer == nil {
		opts.Renderer = NewLogRenderer(opts.Logger)
	}
	start := StartPosition
	if opts.Start != nil {
		start = *opts.Start
	}

	w := world.NewWorld(cfg.World.Seed, cfg.World.Dimensions())
	island, err := w.CreateNewIsland(StartNexus)
	if err != nil {
		return nil, fmt.Errorf("создание стартового острова: %w", err)
	}
	player, err := w.AddPlayer(start)
	if err != nil {
		return nil, fmt.Errorf("добавление игрока: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		opts:      opts,
		world:     w,
		player:    player,
		logger:    opts.Logger,
		pipelines: make(map[int]*pipeline.IslandRenderer),
	}
	s.logger.Info("🏝️ Создан %v, %v в чанке %v", island, player, player.ChunkLocation())

	s.mu.Lock()
	s.enterLocked(player.Level())
	s.mu.Unlock()
	return s, nil
}

// World возвращает мир сессии
func (s *Session) World() *world.World { return s.world }

// Player возвращает первого игрока
func (s *Session) Player() *world.Player { return s.player }

func (s *Session) pipelineForLocked(island *world.Island) *pipeline.IslandRenderer {
	if p, ok := s.pipelines[island.ID()]; ok {
		return p
	}
	p := pipeline.NewIslandRenderer(island, s.opts.Terrain, s.opts.Renderer, pipeline.Options{
		Radius:            s.cfg.World.ActiveRadius,
		MaxGenerationJobs: s.cfg.Pipeline.MaxGenerationJobs,
		RendersPerTick:    s.cfg.Pipeline.RendersPerTick,
		Metrics:           s.opts.Metrics,
		Logger:            logging.GetPipelineLogger(),
		Sink:              s.opts.Sink,
		Events:            s.opts.Events,
	})
	s.pipelines[island.ID()] = p
	return p
}

// enterLocked переключает активный конвейер на остров island (nil - пустота)
func (s *Session) enterLocked(island *world.Island) {
	if s.current != nil {
		if w, ok := s.current.Window(); ok {
			for _, col := range w.Columns() {
				s.current.DeRenderChunkColumn(col)
			}
		}
		s.current = nil
	}
	if island == nil {
		s.logger.Warn("🌌 %v в пустоте", s.player)
		return
	}
	s.current = s.pipelineForLocked(island)
	s.current.RenderAroundPlayer(s.player)
}

// MovePlayer перемещает игрока и сдвигает окно активных колонок
func (s *Session) MovePlayer(position mgl32.Vec3) {
	oldChunk, newChunk, changed := s.player.MoveTo(position)
	if !changed {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	island := s.player.Level()
	if s.current != nil && island != nil && s.current.Island() == island {
		shift := s.current.RenderPositionChange(newChunk, oldChunk)
		s.logger.Debug("🚶 %v → %v: +%d/-%d колонок", oldChunk, newChunk, len(shift.Entered), len(shift.Exited))
		return
	}
	s.enterLocked(island)
}

// DestroyBlock убирает блок в мировых координатах и перестраивает меши
func (s *Session) DestroyBlock(location vec.Coordinate) bool {
	island, ok := s.world.LevelAtWorldLocation(location)
	if !ok {
		return false
	}
	s.mu.Lock()
	p := s.pipelineForLocked(island)
	s.mu.Unlock()
	return p.DestroyBlock(location)
}

// Tick продвигает конвейеры всех островов
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	for _, p := range s.pipelines {
		p.Tick()
	}
}

// Ticks возвращает число выполненных тиков
func (s *Session) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Idle возвращает true, когда у всех конвейеров нет работы
func (s *Session) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pipelines {
		if !p.Idle() {
			return false
		}
	}
	return true
}

// PipelineStats возвращает состояние конвейеров по возрастанию id острова
func (s *Session) PipelineStats() []pipeline.Stats {
	s.mu.Lock()
	list := make([]*pipeline.IslandRenderer, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		list = append(list, p)
	}
	s.mu.Unlock()

	out := make([]pipeline.Stats, 0, len(list))
	for _, p := range list {
		out = append(out, p.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IslandID < out[j].IslandID })
	return out
}

// Walk - сценарий движения игрока
type Walk struct {
	Positions    []mgl32.Vec3
	TicksPerStep int  // тиков между шагами
	ExitWhenDone bool // завершить Run, когда маршрут пройден и конвейеры пусты
}

// Run тикает конвейеры с интервалом interval и ведёт игрока по маршруту walk.
// Возвращает nil при отмене ctx или завершении маршрута с ExitWhenDone.
func (s *Session) Run(ctx context.Context, interval time.Duration, walk Walk) error {
	if interval <= 0 {
		interval = time.Duration(s.cfg.Pipeline.TickIntervalMS) * time.Millisecond
	}
	if walk.TicksPerStep <= 0 {
		walk.TicksPerStep = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	next := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("⏹️ Сессия остановлена после %d тиков", s.Ticks())
			return nil
		case <-ticker.C:
		}

		s.Tick()
		if next < len(walk.Positions) && s.Ticks()%uint64(walk.TicksPerStep) == 0 {
			s.MovePlayer(walk.Positions[next])
			next++
			if next == len(walk.Positions) {
				s.logger.Info("🏁 Маршрут пройден, %v", s.player)
			}
		}
		if walk.ExitWhenDone && next == len(walk.Positions) && s.Idle() {
			return nil
		}
	}
}

// Close прерывает задания всех конвейеров
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pipelines {
		p.Close()
	}
}
