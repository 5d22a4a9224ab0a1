package terrain

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/annel0/aether/internal/world/block"
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Константы рельефа в блоках
const (
	SeaLevel    = 40 // базовый уровень воды
	MinSurface  = 28 // высота дна у края острова
	Relief      = 44 // максимальный подъём над MinSurface
	DirtDepth   = 3  // толщина слоя земли под травой
	BeachHeight = 2  // песок на берегу до SeaLevel + BeachHeight
)

// Параметры шума Перлина
const (
	perlinAlpha  = 2.0
	perlinBeta   = 2.0
	perlinOctave = int32(3)
)

// Generator строит ландшафт островов: высоту задаёт шум Перлина,
// песчаные пятна и колебания уровня воды задаёт OpenSimplex.
// Безопасен для одновременного вызова из нескольких заданий.
type Generator struct {
	NoiseScale  float64 // масштаб шума высоты
	DetailScale float64 // масштаб шума материалов
	SandPatch   float64 // порог шума деталей для песка на суше
	// Falloff - доля радиуса острова, после которой рельеф опускается к воде
	Falloff float64

	logger *logging.Logger

	mu     sync.Mutex
	noises map[int64]*noiseSet
}

type noiseSet struct {
	height *perlin.Perlin
	detail opensimplex.Noise
}

// NewGenerator создаёт генератор с настройками по умолчанию
func NewGenerator() *Generator {
	return &Generator{
		NoiseScale:  0.015,
		DetailScale: 0.08,
		SandPatch:   0.82,
		Falloff:     0.6,
		logger:      logging.GetTerrainLogger(),
		noises:      make(map[int64]*noiseSet),
	}
}

// WithLogger заменяет логгер генератора
func (g *Generator) WithLogger(l *logging.Logger) *Generator {
	g.logger = l
	return g
}

func (g *Generator) noiseFor(seed int64) *noiseSet {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n, ok := g.noises[seed]; ok {
		return n
	}
	n := &noiseSet{
		height: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, seed),
		detail: opensimplex.NewNormalized(seed + 42),
	}
	g.noises[seed] = n
	return n
}

// Sample описывает вертикальный разрез ландшафта в одной точке
type Sample struct {
	Surface    int // высота верхнего твёрдого блока
	WaterLevel int // вода заполняет (Surface, WaterLevel]
	Top        block.Type
	Sub        block.Type // материал под верхним блоком
}

// BlockAt возвращает тип блока на высоте y
func (s Sample) BlockAt(y int) block.Type {
	switch {
	case y < 0:
		return block.Air
	case y < s.Surface-DirtDepth:
		return block.Stone
	case y < s.Surface:
		return s.Sub
	case y == s.Surface:
		return s.Top
	case y <= s.WaterLevel:
		return block.Water
	default:
		return block.Air
	}
}

// Sample вычисляет разрез ландшафта острова в точке (x, z)
// в блочных координатах уровня
func (g *Generator) Sample(island *world.Island, x, z int) Sample {
	n := g.noiseFor(island.Seed())
	dims := island.Dimensions()

	fx, fz := float64(x), float64(z)

	// шум Перлина в [-1, 1], переводим в [0, 1]
	h := (n.height.Noise2D(fx*g.NoiseScale, fz*g.NoiseScale) + 1) / 2
	h = math.Max(0, math.Min(1, h))

	surface := MinSurface + int(h*Relief*g.falloff(dims, fx, fz))
	if maxY := dims.Height*world.ChunkDiameter - 1; surface > maxY {
		surface = maxY
	}

	detail := n.detail.Eval2(fx*g.DetailScale, fz*g.DetailScale)
	// колебание уровня воды в пределах одного блока
	water := SeaLevel + int(math.Round(n.detail.Eval2(fx*g.DetailScale/4, fz*g.DetailScale/4)*2-1))

	s := Sample{Surface: surface, WaterLevel: water, Top: block.Grass, Sub: block.Dirt}
	switch {
	case surface < water:
		s.Top = block.Dirt
		if detail > 0.5 {
			s.Top = block.Sand
		}
	case surface <= water+BeachHeight, detail > g.SandPatch:
		s.Top, s.Sub = block.Sand, block.Sand
	}
	return s
}

// falloff опускает рельеф к краю острова: 1 в центре, 0 на границе
func (g *Generator) falloff(dims world.Dimensions, x, z float64) float64 {
	halfW := float64(dims.Width*world.ChunkDiameter) / 2
	halfD := float64(dims.Depth*world.ChunkDiameter) / 2
	dx := (x - halfW) / halfW
	dz := (z - halfD) / halfD
	d := math.Sqrt(dx*dx + dz*dz)

	if d <= g.Falloff {
		return 1
	}
	if d >= 1 {
		return 0
	}
	t := (d - g.Falloff) / (1 - g.Falloff)
	return 1 - t*t*(3-2*t)
}

// GenerateColumn заполняет колонку чанков и помечает их сгенерированными.
// При отмене контекста колонка остаётся несгенерированной.
func (g *Generator) GenerateColumn(ctx context.Context, island *world.Island, column vec.Coordinate) error {
	chunks := island.ColumnChunks(column)
	if chunks == nil {
		return fmt.Errorf("колонка %v вне острова %d", column.Column(), island.ID())
	}

	baseX := column.X * world.ChunkDiameter
	baseZ := column.Z * world.ChunkDiameter
	top := len(chunks)*world.ChunkDiameter - 1
	highest := 0

	for x := 0; x < world.ChunkDiameter; x++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("генерация колонки %v прервана: %w", column.Column(), err)
		}
		for z := 0; z < world.ChunkDiameter; z++ {
			s := g.Sample(island, baseX+x, baseZ+z)
			ceiling := max(s.Surface, s.WaterLevel)
			if ceiling > top {
				ceiling = top
			}
			highest = max(highest, s.Surface)

			for y := 0; y <= ceiling; y++ {
				t := s.BlockAt(y)
				if t == block.Air {
					continue
				}
				chunk := chunks[y/world.ChunkDiameter]
				chunk.UpdateBlock(world.NewBlock(t, vec.New(x, y%world.ChunkDiameter, z)))
			}
		}
	}

	for _, c := range chunks {
		c.MarkGenerated()
	}

	dims := island.Dimensions()
	if column.X == dims.Width/2 && column.Z == dims.Depth/2 {
		spawn := chunks[min(highest/world.ChunkDiameter, len(chunks)-1)]
		spawn.MarkSpawn()
		g.logger.Info("🏝️ Точка появления острова %d: %v", island.ID(), spawn.Location())
	}

	g.logger.Debug("🌍 Колонка %v острова %d сгенерирована, вершина %d", column.Column(), island.ID(), highest)
	return nil
}
