package world

import (
	"sync"

	"github.com/annel0/aether/internal/vec"
)

// Размеры уровня по умолчанию, в чанках
const (
	DefaultWidthInChunks  = 20
	DefaultHeightInChunks = 10
	DefaultDepthInChunks  = 20
)

// ColumnState - состояние генерации колонки чанков
type ColumnState uint8

const (
	ColumnNone ColumnState = iota
	ColumnQueued
	ColumnGenerated
)

// String возвращает имя состояния
func (s ColumnState) String() string {
	switch s {
	case ColumnQueued:
		return "queued"
	case ColumnGenerated:
		return "generated"
	default:
		return "none"
	}
}

// Dimensions - размеры уровня в чанках
type Dimensions struct {
	Width  int // по X
	Height int // по Y
	Depth  int // по Z
}

// DefaultDimensions возвращает размеры уровня по умолчанию
func DefaultDimensions() Dimensions {
	return Dimensions{
		Width:  DefaultWidthInChunks,
		Height: DefaultHeightInChunks,
		Depth:  DefaultDepthInChunks,
	}
}

// Level - разреженная сетка чанков, привязанная к координате нексуса.
// Чанки создаются лениво при первом обращении и никогда не удаляются.
type Level struct {
	nexus vec.Coordinate
	dims  Dimensions
	ids   *IDAllocator

	chunksMu sync.RWMutex
	chunks   map[vec.Key]*Chunk

	columnsMu sync.RWMutex
	columns   map[vec.Key]ColumnState

	// writeMu сериализует все изменения блоков уровня
	writeMu sync.Mutex
}

// NewLevel создаёт пустой уровень. Нулевые размеры заменяются значениями по умолчанию.
func NewLevel(nexus vec.Coordinate, dims Dimensions, ids *IDAllocator) *Level {
	def := DefaultDimensions()
	if dims.Width <= 0 {
		dims.Width = def.Width
	}
	if dims.Height <= 0 {
		dims.Height = def.Height
	}
	if dims.Depth <= 0 {
		dims.Depth = def.Depth
	}
	if ids == nil {
		ids = NewIDAllocator()
	}

	return &Level{
		nexus:   vec.New(nexus.X, nexus.Y, nexus.Z),
		dims:    dims,
		ids:     ids,
		chunks:  make(map[vec.Key]*Chunk),
		columns: make(map[vec.Key]ColumnState),
	}
}

// Nexus возвращает координату нексуса уровня
func (l *Level) Nexus() vec.Coordinate { return l.nexus }

// Dimensions возвращает размеры уровня в чанках
func (l *Level) Dimensions() Dimensions { return l.dims }

// WorldOrigin возвращает мировые координаты блока (0,0,0) уровня
func (l *Level) WorldOrigin() vec.Coordinate {
	return l.nexus.Scale(WorldNexusLength)
}

// ChunkLocationIsInBounds проверяет, лежит ли координата чанка внутри уровня
func (l *Level) ChunkLocationIsInBounds(loc vec.Coordinate) bool {
	return loc.X >= 0 && loc.X < l.dims.Width &&
		loc.Y >= 0 && loc.Y < l.dims.Height &&
		loc.Z >= 0 && loc.Z < l.dims.Depth
}

// GetChunk возвращает чанк по координате внутри уровня.
// При forceLoad отсутствующий чанк создаётся, если координата в границах уровня.
func (l *Level) GetChunk(loc vec.Coordinate, forceLoad bool) (*Chunk, bool) {
	if !loc.IsInitialized() {
		return nil, false
	}
	key := loc.Key()

	l.chunksMu.RLock()
	c, ok := l.chunks[key]
	l.chunksMu.RUnlock()
	if ok {
		return c, true
	}
	if !forceLoad || !l.ChunkLocationIsInBounds(loc) {
		return nil, false
	}

	l.chunksMu.Lock()
	defer l.chunksMu.Unlock()

	if c, ok = l.chunks[key]; ok {
		return c, true
	}
	c = newChunk(l, loc, l.ids.Next())
	l.chunks[key] = c
	return c, true
}

// ChunkAtWorldLocation возвращает чанк, содержащий блок с мировыми координатами
func (l *Level) ChunkAtWorldLocation(world vec.Coordinate) (*Chunk, bool) {
	local := world.Sub(l.WorldOrigin())
	return l.GetChunk(local.ChunkFrame(), true)
}

// ForEach вызывает action для каждого чанка уровня в порядке x, y, z,
// создавая отсутствующие
func (l *Level) ForEach(action func(*Chunk)) {
	for x := 0; x < l.dims.Width; x++ {
		for y := 0; y < l.dims.Height; y++ {
			for z := 0; z < l.dims.Depth; z++ {
				if c, ok := l.GetChunk(vec.New(x, y, z), true); ok {
					action(c)
				}
			}
		}
	}
}

// ChunkCount возвращает число уже созданных чанков
func (l *Level) ChunkCount() int {
	l.chunksMu.RLock()
	defer l.chunksMu.RUnlock()
	return len(l.chunks)
}

// ColumnIsInBounds проверяет, лежит ли колонка внутри уровня
func (l *Level) ColumnIsInBounds(column vec.Coordinate) bool {
	return column.X >= 0 && column.X < l.dims.Width &&
		column.Z >= 0 && column.Z < l.dims.Depth
}

// ColumnChunks возвращает чанки колонки снизу вверх, создавая отсутствующие
func (l *Level) ColumnChunks(column vec.Coordinate) []*Chunk {
	if !l.ColumnIsInBounds(column) {
		return nil
	}
	out := make([]*Chunk, 0, l.dims.Height)
	for y := 0; y < l.dims.Height; y++ {
		if c, ok := l.GetChunk(vec.New(column.X, y, column.Z), true); ok {
			out = append(out, c)
		}
	}
	return out
}

// ColumnState возвращает состояние генерации колонки
func (l *Level) ColumnState(column vec.Coordinate) ColumnState {
	l.columnsMu.RLock()
	defer l.columnsMu.RUnlock()
	return l.columns[column.Column().Key()]
}

// QueueColumn переводит колонку в состояние "в очереди".
// Возвращает false, если колонка уже в очереди или сгенерирована.
func (l *Level) QueueColumn(column vec.Coordinate) bool {
	key := column.Column().Key()

	l.columnsMu.Lock()
	defer l.columnsMu.Unlock()

	if l.columns[key] != ColumnNone {
		return false
	}
	l.columns[key] = ColumnQueued
	return true
}

// MarkColumnGenerated отмечает колонку как сгенерированную
func (l *Level) MarkColumnGenerated(column vec.Coordinate) {
	l.columnsMu.Lock()
	l.columns[column.Column().Key()] = ColumnGenerated
	l.columnsMu.Unlock()
}

// ResetColumn возвращает колонку в исходное состояние (например, после ошибки генерации)
func (l *Level) ResetColumn(column vec.Coordinate) {
	l.columnsMu.Lock()
	delete(l.columns, column.Column().Key())
	l.columnsMu.Unlock()
}

// ColumnHasBeenGenerated возвращает true, если генерация колонки завершена
func (l *Level) ColumnHasBeenGenerated(column vec.Coordinate) bool {
	return l.ColumnState(column) == ColumnGenerated
}

// GeneratedColumnCount возвращает число сгенерированных колонок
func (l *Level) GeneratedColumnCount() int {
	l.columnsMu.RLock()
	defer l.columnsMu.RUnlock()

	n := 0
	for _, s := range l.columns {
		if s == ColumnGenerated {
			n++
		}
	}
	return n
}
