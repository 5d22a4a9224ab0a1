package world

import (
	"sync"
	"sync/atomic"

	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world/block"
)

// Размеры чанка
const (
	ChunkDiameter = vec.ChunkDiameter
	ChunkHeight   = vec.ChunkHeight

	chunkVolume = ChunkDiameter * ChunkHeight * ChunkDiameter
)

// Controller - представление отрисованного чанка во внешнем рендерере
type Controller interface {
	// SetVisible показывает или скрывает отрисованный чанк
	SetVisible(visible bool)
}

// Chunk представляет участок уровня размером 25x25x25 блоков
type Chunk struct {
	id       int
	location vec.Coordinate // Координаты чанка внутри уровня
	level    *Level

	mu    sync.RWMutex
	cells []cell // nil - все блоки ещё воздух

	linkMu    sync.Mutex
	neighbors [vec.DirectionCount]*Chunk

	nonEmpty  atomic.Bool
	generated atomic.Bool
	rendered  atomic.Bool // меш был построен хотя бы раз
	visible   atomic.Bool // меш сейчас показан
	spawn     atomic.Bool

	presentMu  sync.RWMutex
	mesh       *ChunkMesh
	controller Controller
}

func newChunk(level *Level, location vec.Coordinate, id int) *Chunk {
	return &Chunk{
		id:       id,
		location: vec.New(location.X, location.Y, location.Z),
		level:    level,
	}
}

// ID возвращает уникальный идентификатор чанка
func (c *Chunk) ID() int { return c.id }

// Location возвращает координаты чанка внутри уровня
func (c *Chunk) Location() vec.Coordinate { return c.location }

// Level возвращает уровень, которому принадлежит чанк
func (c *Chunk) Level() *Level { return c.level }

// WorldLocation возвращает мировые координаты блока (0,0,0) этого чанка
func (c *Chunk) WorldLocation() vec.Coordinate {
	return c.level.WorldOrigin().Add(vec.New(
		c.location.X*ChunkDiameter,
		c.location.Y*ChunkHeight,
		c.location.Z*ChunkDiameter,
	))
}

// IsEmpty возвращает true, пока в чанк не поставлен ни один непустой блок
func (c *Chunk) IsEmpty() bool { return !c.nonEmpty.Load() }

// HasBeenGenerated возвращает true после заполнения генератором ландшафта
func (c *Chunk) HasBeenGenerated() bool { return c.generated.Load() }

// MarkGenerated отмечает чанк как сгенерированный
func (c *Chunk) MarkGenerated() { c.generated.Store(true) }

// HasBeenRendered возвращает true, если меш чанка уже строился
func (c *Chunk) HasBeenRendered() bool { return c.rendered.Load() }

// IsRendered возвращает true, если чанк сейчас видим
func (c *Chunk) IsRendered() bool { return c.visible.Load() }

// SetRendered меняет видимость без перестроения меша
func (c *Chunk) SetRendered(visible bool) { c.visible.Store(visible) }

// IsSpawn возвращает true для чанка точки появления
func (c *Chunk) IsSpawn() bool { return c.spawn.Load() }

// MarkSpawn отмечает чанк как точку появления
func (c *Chunk) MarkSpawn() { c.spawn.Store(true) }

// SetMesh кэширует построенный меш и отмечает чанк отрисованным
func (c *Chunk) SetMesh(m *ChunkMesh) {
	c.presentMu.Lock()
	c.mesh = m
	c.presentMu.Unlock()

	c.rendered.Store(true)
	c.visible.Store(true)
}

// Mesh возвращает закэшированный меш или nil
func (c *Chunk) Mesh() *ChunkMesh {
	c.presentMu.RLock()
	defer c.presentMu.RUnlock()
	return c.mesh
}

// SetController сохраняет представление чанка, полученное от рендерера
func (c *Chunk) SetController(ctrl Controller) {
	c.presentMu.Lock()
	c.controller = ctrl
	c.presentMu.Unlock()
}

// Controller возвращает представление чанка или nil
func (c *Chunk) Controller() Controller {
	c.presentMu.RLock()
	defer c.presentMu.RUnlock()
	return c.controller
}

// GetBlock возвращает блок по локальным координатам.
// Координаты за границей чанка по одной оси переадресуются соседнему чанку,
// если он уже существует. Второе значение false означает "не найден".
func (c *Chunk) GetBlock(local vec.Coordinate) (Block, bool) {
	owner, l, ok := c.resolve(local, false)
	if !ok {
		return Block{}, false
	}
	return owner.readBlock(l), true
}

// GetBlockForced работает как GetBlock, но создаёт отсутствующих соседей
// (в пределах уровня)
func (c *Chunk) GetBlockForced(local vec.Coordinate) (Block, bool) {
	owner, l, ok := c.resolve(local, true)
	if !ok {
		return Block{}, false
	}
	return owner.readBlock(l), true
}

// resolve находит чанк-владелец координаты и переводит её в его систему
func (c *Chunk) resolve(local vec.Coordinate, forceLoad bool) (*Chunk, vec.Coordinate, bool) {
	if local.IsWithinChunkBounds() {
		return c, local, true
	}

	var dir vec.Direction
	switch {
	case local.Z >= ChunkDiameter:
		dir = vec.North
		local.Z -= ChunkDiameter
	case local.X >= ChunkDiameter:
		dir = vec.East
		local.X -= ChunkDiameter
	case local.Z < 0:
		dir = vec.South
		local.Z += ChunkDiameter
	case local.X < 0:
		dir = vec.West
		local.X += ChunkDiameter
	case local.Y >= ChunkHeight:
		dir = vec.Up
		local.Y -= ChunkHeight
	case local.Y < 0:
		dir = vec.Down
		local.Y += ChunkHeight
	}

	neighbor, ok := c.ToThe(dir, forceLoad)
	if !ok {
		return nil, local, false
	}
	return neighbor.resolve(local, forceLoad)
}

// ToThe возвращает соседний чанк в направлении dir.
// Связь разрешается через уровень при первом обращении и кэшируется.
func (c *Chunk) ToThe(dir vec.Direction, forceLoad bool) (*Chunk, bool) {
	c.linkMu.Lock()
	defer c.linkMu.Unlock()

	if n := c.neighbors[dir]; n != nil {
		return n, true
	}
	if c.level == nil {
		return nil, false
	}
	n, ok := c.level.GetChunk(c.location.Go(dir), forceLoad)
	if ok {
		c.neighbors[dir] = n
	}
	return n, ok
}

// setNeighbor сохраняет связь с соседним чанком
func (c *Chunk) setNeighbor(dir vec.Direction, n *Chunk) {
	c.linkMu.Lock()
	if c.neighbors[dir] == nil {
		c.neighbors[dir] = n
	}
	c.linkMu.Unlock()
}

// SetNeighbors связывает чанк со всеми уже существующими соседями
// и прописывает обратные связи у них
func (c *Chunk) SetNeighbors() {
	for _, dir := range vec.Directions {
		n, ok := c.ToThe(dir, false)
		if ok {
			n.setNeighbor(dir.Opposite(), c)
		}
	}
}

// UpdateBlock заменяет блок в чанке и поддерживает кэши соседей
// в согласованном состоянии, в том числе через границы чанков.
// Возвращает true, если тип блока в ячейке изменился.
func (c *Chunk) UpdateBlock(newBlock Block) bool {
	if !newBlock.IsValid() {
		return false
	}
	if c.level != nil {
		c.level.writeMu.Lock()
		defer c.level.writeMu.Unlock()
	}
	return c.updateBlockLocked(newBlock)
}

func (c *Chunk) updateBlockLocked(newBlock Block) bool {
	if !newBlock.Type.IsEmpty() {
		c.nonEmpty.Store(true)
	}
	newBlock.ChunkID = c.id

	oldBlock := c.readBlock(newBlock.Location)
	if oldBlock.Type == newBlock.Type {
		return false
	}

	newBlock.Neighbors = oldBlock.Neighbors
	for _, dir := range vec.Directions {
		owner, local, ok := c.resolve(newBlock.Location.Go(dir), true)
		if !ok {
			continue
		}
		neighborType := owner.writeNeighborType(local, dir.Opposite(), newBlock.Type)
		newBlock.Neighbors[dir] = neighborType
	}

	c.writeBlock(newBlock)
	return true
}

// DestroyBlock заменяет блок воздухом через общий протокол UpdateBlock
func (c *Chunk) DestroyBlock(local vec.Coordinate) bool {
	if !local.IsWithinChunkBounds() {
		return false
	}
	return c.UpdateBlock(NewBlock(block.Air, local))
}

// SetSelected включает или выключает подсветку блока
func (c *Chunk) SetSelected(local vec.Coordinate, selected bool) bool {
	if !local.IsWithinChunkBounds() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cells == nil {
		if !selected {
			return true
		}
		c.cells = make([]cell, chunkVolume)
	}
	c.cells[cellIndex(local)].selected = selected
	return true
}

// ForEach вызывает action для каждого блока чанка в порядке x, y, z.
// Обход идёт по снимку ячеек, поэтому action может менять чанк.
func (c *Chunk) ForEach(action func(Block)) {
	c.mu.RLock()
	var snapshot []cell
	if c.cells != nil {
		snapshot = make([]cell, len(c.cells))
		copy(snapshot, c.cells)
	}
	c.mu.RUnlock()

	for x := 0; x < ChunkDiameter; x++ {
		for y := 0; y < ChunkHeight; y++ {
			for z := 0; z < ChunkDiameter; z++ {
				loc := vec.New(x, y, z)
				var cl cell
				if snapshot != nil {
					cl = snapshot[cellIndex(loc)]
				}
				action(c.materialize(cl, loc))
			}
		}
	}
}

// String возвращает краткое описание чанка
func (c *Chunk) String() string {
	if c.IsEmpty() {
		return "Empty @ " + c.location.String()
	}
	return "Land @ " + c.location.String()
}

func (c *Chunk) readBlock(local vec.Coordinate) Block {
	c.mu.RLock()
	var cl cell
	if c.cells != nil {
		cl = c.cells[cellIndex(local)]
	}
	c.mu.RUnlock()
	return c.materialize(cl, local)
}

func (c *Chunk) materialize(cl cell, local vec.Coordinate) Block {
	return Block{
		Type:      cl.typ,
		ChunkID:   c.id,
		Neighbors: cl.neighbors,
		Selected:  cl.selected,
		Location:  local,
	}
}

func (c *Chunk) writeBlock(b Block) {
	cl := cell{typ: b.Type, neighbors: b.Neighbors, selected: b.Selected}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cells == nil {
		if cl.isDefault() {
			return
		}
		c.cells = make([]cell, chunkVolume)
	}
	c.cells[cellIndex(b.Location)] = cl
}

// writeNeighborType обновляет кэш соседа у блока и возвращает тип самого блока
func (c *Chunk) writeNeighborType(local vec.Coordinate, dir vec.Direction, t block.Type) block.Type {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cells == nil {
		if t.IsEmpty() {
			return block.Air
		}
		c.cells = make([]cell, chunkVolume)
	}
	idx := cellIndex(local)
	c.cells[idx].neighbors[dir] = t
	return c.cells[idx].typ
}

func cellIndex(local vec.Coordinate) int {
	return (local.X*ChunkHeight+local.Y)*ChunkDiameter + local.Z
}
