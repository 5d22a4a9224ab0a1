package world

import (
	"sync"
	"testing"

	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunk(t *testing.T) (*Level, *Chunk) {
	t.Helper()
	level := NewLevel(vec.New(0, 0, 0), DefaultDimensions(), nil)
	chunk, ok := level.GetChunk(vec.New(0, 0, 0), true)
	require.True(t, ok, "чанк в границах уровня должен создаваться")
	return level, chunk
}

func TestChunk_NewChunkReadsAir(t *testing.T) {
	_, chunk := newTestChunk(t)

	b, ok := chunk.GetBlock(vec.New(3, 4, 5))
	require.True(t, ok)
	assert.Equal(t, block.Air, b.Type)
	assert.True(t, b.IsEmpty())
	assert.Equal(t, chunk.ID(), b.ChunkID)
	for _, dir := range vec.Directions {
		assert.Equal(t, block.Air, b.Neighbor(dir), "направление %v", dir)
	}
	assert.True(t, chunk.IsEmpty(), "новый чанк должен быть пустым")
	assert.Equal(t, "Empty @ {0, 0, 0}", chunk.String())
}

func TestChunk_UpdateBlockSetsNeighborCaches(t *testing.T) {
	_, chunk := newTestChunk(t)
	center := vec.New(5, 5, 5)

	changed := chunk.UpdateBlock(NewBlock(block.Stone, center))
	require.True(t, changed)
	assert.False(t, chunk.IsEmpty())
	assert.Equal(t, "Land @ {0, 0, 0}", chunk.String())

	for _, dir := range vec.Directions {
		n, ok := chunk.GetBlock(center.Go(dir))
		require.True(t, ok)
		assert.Equal(t, block.Stone, n.Neighbor(dir.Opposite()),
			"сосед в направлении %v должен видеть камень", dir)
	}

	placed, ok := chunk.GetBlock(center)
	require.True(t, ok)
	assert.Equal(t, block.Stone, placed.Type)
	assert.Equal(t, chunk.ID(), placed.ChunkID)
}

func TestChunk_NeighborConsistencyBothWays(t *testing.T) {
	_, chunk := newTestChunk(t)
	a := vec.New(10, 10, 10)
	b := a.Go(vec.Up)

	require.True(t, chunk.UpdateBlock(NewBlock(block.Stone, a)))
	require.True(t, chunk.UpdateBlock(NewBlock(block.Dirt, b)))

	lower, _ := chunk.GetBlock(a)
	upper, _ := chunk.GetBlock(b)
	assert.Equal(t, block.Dirt, lower.Neighbor(vec.Up))
	assert.Equal(t, block.Stone, upper.Neighbor(vec.Down))
}

func TestChunk_UpdateBlockSameTypeIsNoop(t *testing.T) {
	_, chunk := newTestChunk(t)
	loc := vec.New(1, 1, 1)

	require.True(t, chunk.UpdateBlock(NewBlock(block.Grass, loc)))
	before, _ := chunk.GetBlock(loc)

	assert.False(t, chunk.UpdateBlock(NewBlock(block.Grass, loc)), "тот же тип не должен ничего менять")
	after, _ := chunk.GetBlock(loc)
	assert.Equal(t, before, after)
}

func TestChunk_AirIntoFreshChunkKeepsItEmpty(t *testing.T) {
	_, chunk := newTestChunk(t)

	assert.False(t, chunk.UpdateBlock(NewBlock(block.Air, vec.New(2, 2, 2))))
	assert.True(t, chunk.IsEmpty())
}

func TestChunk_UpdateBlockRejectsInvalid(t *testing.T) {
	_, chunk := newTestChunk(t)

	assert.False(t, chunk.UpdateBlock(NewBlock(block.Stone, vec.New(ChunkDiameter, 0, 0))))
	assert.False(t, chunk.UpdateBlock(Block{Type: block.Stone}), "неинициализированная координата")
	assert.False(t, chunk.UpdateBlock(NewBlock(block.Type(200), vec.New(0, 0, 0))))
	assert.True(t, chunk.IsEmpty())
}

func TestChunk_UpdateAcrossChunkBorder(t *testing.T) {
	level, chunk := newTestChunk(t)
	edge := vec.New(ChunkDiameter-1, 5, 5)

	require.True(t, chunk.UpdateBlock(NewBlock(block.Stone, edge)))

	east, ok := level.GetChunk(vec.New(1, 0, 0), false)
	require.True(t, ok, "соседний чанк должен быть создан при записи на границе")

	across, ok := east.GetBlock(vec.New(0, 5, 5))
	require.True(t, ok)
	assert.Equal(t, block.Stone, across.Neighbor(vec.West))

	require.True(t, east.UpdateBlock(NewBlock(block.Dirt, vec.New(0, 5, 5))))

	stone, _ := chunk.GetBlock(edge)
	dirt, _ := east.GetBlock(vec.New(0, 5, 5))
	assert.Equal(t, block.Dirt, stone.Neighbor(vec.East))
	assert.Equal(t, block.Stone, dirt.Neighbor(vec.West))
}

func TestChunk_GetBlockOutOfBounds(t *testing.T) {
	level, chunk := newTestChunk(t)
	beyond := vec.New(ChunkDiameter, 0, 0)

	_, ok := chunk.GetBlock(beyond)
	assert.False(t, ok, "без соседа блок за границей не найден")
	assert.Equal(t, 1, level.ChunkCount())

	b, ok := chunk.GetBlockForced(beyond)
	require.True(t, ok)
	assert.Equal(t, block.Air, b.Type)
	assert.Equal(t, 2, level.ChunkCount())

	_, ok = chunk.GetBlock(beyond)
	assert.True(t, ok, "после создания соседа блок находится")

	_, ok = chunk.GetBlockForced(vec.New(-1, 0, 0))
	assert.False(t, ok, "за границей уровня чанк не создаётся")
}

func TestChunk_GetBlockResolvesThroughNeighbor(t *testing.T) {
	level, chunk := newTestChunk(t)
	north, ok := level.GetChunk(vec.New(0, 0, 1), true)
	require.True(t, ok)
	require.True(t, north.UpdateBlock(NewBlock(block.Sand, vec.New(4, 4, 0))))

	b, ok := chunk.GetBlock(vec.New(4, 4, ChunkDiameter))
	require.True(t, ok)
	assert.Equal(t, block.Sand, b.Type)
	assert.Equal(t, north.ID(), b.ChunkID)
}

func TestChunk_DestroyBlockKeepsNeighborsConsistent(t *testing.T) {
	_, chunk := newTestChunk(t)
	stone := vec.New(5, 5, 5)
	dirt := stone.Go(vec.Up)

	require.True(t, chunk.UpdateBlock(NewBlock(block.Stone, stone)))
	require.True(t, chunk.UpdateBlock(NewBlock(block.Dirt, dirt)))

	assert.True(t, chunk.DestroyBlock(stone))

	destroyed, _ := chunk.GetBlock(stone)
	above, _ := chunk.GetBlock(dirt)
	assert.Equal(t, block.Air, destroyed.Type)
	assert.Equal(t, block.Dirt, destroyed.Neighbor(vec.Up), "кэш соседей воздуха сохраняется")
	assert.Equal(t, block.Air, above.Neighbor(vec.Down))
	assert.False(t, chunk.IsEmpty(), "признак пустоты не возвращается")

	assert.False(t, chunk.DestroyBlock(vec.New(-1, 0, 0)))
}

func TestChunk_SetSelected(t *testing.T) {
	_, chunk := newTestChunk(t)
	loc := vec.New(7, 7, 7)

	assert.True(t, chunk.SetSelected(loc, true))
	b, _ := chunk.GetBlock(loc)
	assert.True(t, b.Selected)

	assert.True(t, chunk.SetSelected(loc, false))
	b, _ = chunk.GetBlock(loc)
	assert.False(t, b.Selected)

	assert.False(t, chunk.SetSelected(vec.New(0, ChunkHeight, 0), true))
}

func TestChunk_ForEachVisitsEveryBlockInOrder(t *testing.T) {
	_, chunk := newTestChunk(t)
	require.True(t, chunk.UpdateBlock(NewBlock(block.Stone, vec.New(0, 0, 1))))

	var visited []vec.Coordinate
	stones := 0
	chunk.ForEach(func(b Block) {
		visited = append(visited, b.Location)
		if b.Type == block.Stone {
			stones++
		}
	})

	require.Len(t, visited, ChunkDiameter*ChunkHeight*ChunkDiameter)
	assert.Equal(t, vec.Key{0, 0, 0}, visited[0].Key())
	assert.Equal(t, vec.Key{0, 0, 1}, visited[1].Key())
	assert.Equal(t, vec.Key{0, 1, 0}, visited[ChunkDiameter].Key())
	assert.Equal(t, 1, stones)
}

func TestChunk_ForEachAllowsMutation(t *testing.T) {
	_, chunk := newTestChunk(t)
	require.True(t, chunk.UpdateBlock(NewBlock(block.Stone, vec.New(1, 1, 1))))

	chunk.ForEach(func(b Block) {
		if b.Type == block.Stone {
			chunk.DestroyBlock(b.Location)
		}
	})

	b, _ := chunk.GetBlock(vec.New(1, 1, 1))
	assert.Equal(t, block.Air, b.Type)
}

func TestChunk_SetNeighborsLinksExisting(t *testing.T) {
	level, chunk := newTestChunk(t)
	up, ok := level.GetChunk(vec.New(0, 1, 0), true)
	require.True(t, ok)

	chunk.SetNeighbors()

	got, ok := chunk.ToThe(vec.Up, false)
	require.True(t, ok)
	assert.Same(t, up, got)

	back, ok := up.ToThe(vec.Down, false)
	require.True(t, ok)
	assert.Same(t, chunk, back)

	_, ok = chunk.ToThe(vec.East, false)
	assert.False(t, ok, "несуществующий сосед не создаётся")
}

func TestChunk_WorldLocation(t *testing.T) {
	level := NewLevel(vec.New(1, 0, 0), DefaultDimensions(), nil)
	chunk, ok := level.GetChunk(vec.New(1, 2, 3), true)
	require.True(t, ok)

	assert.Equal(t, vec.Key{WorldNexusLength + 25, 50, 75}, chunk.WorldLocation().Key())
}

func TestChunk_MeshAndFlags(t *testing.T) {
	_, chunk := newTestChunk(t)
	assert.False(t, chunk.HasBeenRendered())
	assert.Nil(t, chunk.Mesh())

	m := &ChunkMesh{Chunk: chunk.Location().Key()}
	chunk.SetMesh(m)
	assert.True(t, chunk.HasBeenRendered())
	assert.True(t, chunk.IsRendered())
	assert.Same(t, m, chunk.Mesh())

	chunk.SetRendered(false)
	assert.False(t, chunk.IsRendered())
	assert.True(t, chunk.HasBeenRendered(), "признак построения меша не сбрасывается")

	chunk.MarkGenerated()
	chunk.MarkSpawn()
	assert.True(t, chunk.HasBeenGenerated())
	assert.True(t, chunk.IsSpawn())
}

func TestChunk_ConcurrentUpdatesStayConsistent(t *testing.T) {
	_, chunk := newTestChunk(t)

	var wg sync.WaitGroup
	for x := 0; x < ChunkDiameter; x++ {
		wg.Add(2)
		go func(x int) {
			defer wg.Done()
			for z := 0; z < ChunkDiameter; z++ {
				chunk.UpdateBlock(NewBlock(block.Stone, vec.New(x, 0, z)))
			}
		}(x)
		go func(x int) {
			defer wg.Done()
			for z := 0; z < ChunkDiameter; z++ {
				chunk.GetBlock(vec.New(x, 1, z))
			}
		}(x)
	}
	wg.Wait()

	for x := 0; x < ChunkDiameter; x++ {
		for z := 0; z < ChunkDiameter; z++ {
			b, _ := chunk.GetBlock(vec.New(x, 0, z))
			require.Equal(t, block.Stone, b.Type)
			for _, dir := range vec.Cardinals {
				n := vec.New(x, 0, z).Go(dir)
				if !n.IsWithinChunkBounds() {
					continue
				}
				assert.Equal(t, block.Stone, b.Neighbor(dir), "блок %v, направление %v", b.Location, dir)
			}
		}
	}
}
