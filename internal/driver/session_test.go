package driver

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/aether/internal/config"
	"github.com/annel0/aether/internal/eventbus"
	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/pipeline"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/annel0/aether/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatTerrain(ctx context.Context, island *world.Island, column vec.Coordinate) error {
	chunks := island.ColumnChunks(column)
	for x := 0; x < world.ChunkDiameter; x++ {
		for z := 0; z < world.ChunkDiameter; z++ {
			chunks[0].UpdateBlock(world.NewBlock(block.Grass, vec.New(x, 0, z)))
		}
	}
	for _, c := range chunks {
		c.MarkGenerated()
	}
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height, cfg.World.Depth = 5, 1, 5
	cfg.World.ActiveRadius = 1
	cfg.Pipeline.MaxGenerationJobs = 2
	cfg.Pipeline.RendersPerTick = 4
	return cfg
}

func newTestSession(t *testing.T, start mgl32.Vec3) (*Session, *LogRenderer) {
	t.Helper()
	quiet := logging.NewWriterLogger("driver", nil, nil)
	renderer := NewLogRenderer(quiet)
	s, err := NewSession(testConfig(), Options{
		Terrain:  pipeline.TerrainFunc(flatTerrain),
		Renderer: renderer,
		Logger:   quiet,
		Start:    &start,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, renderer
}

func tickUntilIdle(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		s.Tick()
		return s.Idle()
	}, 10*time.Second, time.Millisecond)
}

func TestSession_RendersAroundStart(t *testing.T) {
	s, renderer := newTestSession(t, mgl32.Vec3{60, 5, 60})
	tickUntilIdle(t, s)

	assert.Equal(t, int64(9), renderer.Rendered())
	assert.Equal(t, 9, renderer.VisibleCount())

	stats := s.PipelineStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "{2, 2}", stats[0].Center)
	assert.Equal(t, 9, stats[0].GeneratedColumns)
}

func TestSession_MovePlayerShiftsWindow(t *testing.T) {
	s, renderer := newTestSession(t, mgl32.Vec3{60, 5, 60})
	tickUntilIdle(t, s)

	s.MovePlayer(mgl32.Vec3{61, 5, 60})
	tickUntilIdle(t, s)
	assert.Equal(t, int64(9), renderer.Rendered(), "движение внутри чанка ничего не меняет")

	s.MovePlayer(mgl32.Vec3{85, 5, 60})
	tickUntilIdle(t, s)
	assert.Equal(t, int64(12), renderer.Rendered())
	assert.Equal(t, 9, renderer.VisibleCount())
	assert.Equal(t, "{3, 2}", s.PipelineStats()[0].Center)
}

func TestSession_LeavingIslandHidesWindow(t *testing.T) {
	s, renderer := newTestSession(t, mgl32.Vec3{60, 5, 60})
	tickUntilIdle(t, s)

	s.MovePlayer(mgl32.Vec3{-10, 5, 60})
	assert.True(t, s.Player().IsInTheVoid())
	tickUntilIdle(t, s)
	assert.Equal(t, 0, renderer.VisibleCount())

	s.MovePlayer(mgl32.Vec3{60, 5, 60})
	tickUntilIdle(t, s)
	assert.Equal(t, 9, renderer.VisibleCount())
	assert.Equal(t, int64(9), renderer.Rendered(), "кэшированные меши показываются без перерисовки")
}

func TestSession_DestroyBlock(t *testing.T) {
	s, renderer := newTestSession(t, mgl32.Vec3{60, 5, 60})
	tickUntilIdle(t, s)

	before := renderer.Rendered()
	assert.True(t, s.DestroyBlock(vec.New(60, 0, 60)))
	assert.Greater(t, renderer.Rendered(), before)
	assert.False(t, s.DestroyBlock(vec.New(60, 0, 60)), "блок уже убран")
	assert.False(t, s.DestroyBlock(vec.New(-6000, 0, 0)), "острова нет")
}

func TestSession_PublishesPipelineEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(128)
	defer bus.Close()
	rec := eventbus.NewRecorder(128)
	_, err := rec.Attach(bus, eventbus.Filter{Types: []string{eventbus.TypeChunkRendered}})
	require.NoError(t, err)

	quiet := logging.NewWriterLogger("driver", nil, nil)
	start := mgl32.Vec3{60, 5, 60}
	s, err := NewSession(testConfig(), Options{
		Terrain: pipeline.TerrainFunc(flatTerrain),
		Events:  bus,
		Logger:  quiet,
		Start:   &start,
	})
	require.NoError(t, err)
	defer s.Close()
	tickUntilIdle(t, s)

	require.Eventually(t, func() bool { return len(rec.Recent(0)) >= 9 }, 5*time.Second, time.Millisecond)
	var payload eventbus.ChunkRendered
	require.NoError(t, rec.Recent(1)[0].Decode(&payload))
	assert.Positive(t, payload.Faces)
}

func TestSession_RunFollowsWalk(t *testing.T) {
	s, _ := newTestSession(t, mgl32.Vec3{60, 5, 60})
	walk := Walk{
		Positions:    ScriptedWalk(mgl32.Vec3{60, 5, 60}, []Leg{{Dir: vec.East, Blocks: 25}}, 5),
		TicksPerStep: 2,
		ExitWhenDone: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx, time.Millisecond, walk))
	require.NoError(t, ctx.Err(), "маршрут должен завершиться до таймаута")

	assert.Equal(t, mgl32.Vec3{85, 5, 60}, s.Player().Position())
	assert.True(t, s.Idle())
	assert.GreaterOrEqual(t, s.Ticks(), uint64(10))
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	s, _ := newTestSession(t, mgl32.Vec3{60, 5, 60})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx, time.Millisecond, Walk{}))
}

func TestScriptedWalk(t *testing.T) {
	path := ScriptedWalk(mgl32.Vec3{0, 0, 0}, []Leg{
		{Dir: vec.East, Blocks: 7},
		{Dir: vec.North, Blocks: 3},
	}, 3)

	require.Len(t, path, 4)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, path[0])
	assert.Equal(t, mgl32.Vec3{6, 0, 0}, path[1])
	assert.Equal(t, mgl32.Vec3{7, 0, 0}, path[2], "последний шаг участка укорачивается")

	dx, _, dz := vec.North.Offset()
	assert.Equal(t, mgl32.Vec3{7 + float32(dx)*3, 0, float32(dz) * 3}, path[3])
}
