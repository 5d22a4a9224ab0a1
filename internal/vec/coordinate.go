package vec

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Размеры чанка в блоках. Пакет world ссылается на эти значения.
const (
	ChunkDiameter = 25
	ChunkHeight   = ChunkDiameter
)

// BlockSize - размер блока в мировых единицах
const BlockSize float32 = 1

// Coordinate - целочисленная тройка в одной из систем координат
// (мировые блоки, локальные координаты уровня, локальные координаты чанка).
// Система координат определяется вызывающим кодом, а не самим значением.
//
// Координата, созданная через NewColumn, двумерная: Y всегда 0,
// а в строковом представлении выводятся только X и Z.
type Coordinate struct {
	X int // восток/запад
	Y int // верх/низ
	Z int // север/юг

	flat        bool // создана без Y
	initialized bool
}

// Key - ключ координаты для map. Не учитывает признак 2D.
type Key [3]int

// New создаёт трёхмерную координату
func New(x, y, z int) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, initialized: true}
}

// NewColumn создаёт двумерную координату (колонку чанков)
func NewColumn(x, z int) Coordinate {
	return Coordinate{X: x, Z: z, flat: true, initialized: true}
}

// FromWorldPosition переводит мировую позицию в координату блока
func FromWorldPosition(pos mgl32.Vec3) Coordinate {
	return New(
		int(pos.X()/BlockSize),
		int(pos.Y()/BlockSize),
		int(pos.Z()/BlockSize),
	)
}

// IsInitialized возвращает true, если координата была создана конструктором
func (c Coordinate) IsInitialized() bool {
	return c.initialized
}

// Is2D возвращает true для двумерных координат
func (c Coordinate) Is2D() bool {
	return c.flat
}

// Column возвращает колонку (x, z) этой координаты
func (c Coordinate) Column() Coordinate {
	return NewColumn(c.X, c.Z)
}

// WithY возвращает трёхмерную координату с указанной высотой
func (c Coordinate) WithY(y int) Coordinate {
	return New(c.X, y, c.Z)
}

// Key возвращает ключ для использования в map
func (c Coordinate) Key() Key {
	return Key{c.X, c.Y, c.Z}
}

// Equals сравнивает координаты без учёта признака 2D
func (c Coordinate) Equals(other Coordinate) bool {
	return c.X == other.X && c.Y == other.Y && c.Z == other.Z
}

// GoTo возвращает координату, смещённую на magnitude в направлении dir.
// Смещение вверх или вниз всегда даёт трёхмерную координату.
func (c Coordinate) GoTo(dir Direction, magnitude int) Coordinate {
	switch dir {
	case North:
		c.Z += magnitude
	case East:
		c.X += magnitude
	case South:
		c.Z -= magnitude
	case West:
		c.X -= magnitude
	case Up:
		return New(c.X, c.Y+magnitude, c.Z)
	case Down:
		return New(c.X, c.Y-magnitude, c.Z)
	}
	return c
}

// Go возвращает соседнюю координату в направлении dir
func (c Coordinate) Go(dir Direction) Coordinate {
	return c.GoTo(dir, 1)
}

// IsWithinChunkBounds проверяет, лежит ли координата внутри чанка
func (c Coordinate) IsWithinChunkBounds() bool {
	return c.X >= 0 && c.X < ChunkDiameter &&
		c.Y >= 0 && c.Y < ChunkHeight &&
		c.Z >= 0 && c.Z < ChunkDiameter
}

// Trimmed приводит координату к локальным границам чанка (модуль с округлением вниз)
func (c Coordinate) Trimmed() Coordinate {
	if c.IsWithinChunkBounds() {
		return c
	}
	return New(
		floorMod(c.X, ChunkDiameter),
		floorMod(c.Y, ChunkHeight),
		floorMod(c.Z, ChunkDiameter),
	)
}

// ChunkFrame возвращает координату чанка, содержащего этот блок
func (c Coordinate) ChunkFrame() Coordinate {
	c.X = floorDiv(c.X, ChunkDiameter)
	c.Y = floorDiv(c.Y, ChunkHeight)
	c.Z = floorDiv(c.Z, ChunkDiameter)
	c.initialized = true
	return c
}

// FloorDiv делит все оси на n с округлением вниз
func (c Coordinate) FloorDiv(n int) Coordinate {
	c.X = floorDiv(c.X, n)
	c.Y = floorDiv(c.Y, n)
	c.Z = floorDiv(c.Z, n)
	c.initialized = true
	return c
}

// Scale умножает все оси на n
func (c Coordinate) Scale(n int) Coordinate {
	c.X *= n
	c.Y *= n
	c.Z *= n
	return c
}

// Add складывает координаты покомпонентно
func (c Coordinate) Add(other Coordinate) Coordinate {
	c.X += other.X
	c.Y += other.Y
	c.Z += other.Z
	return c
}

// Sub вычитает координаты покомпонентно
func (c Coordinate) Sub(other Coordinate) Coordinate {
	c.X -= other.X
	c.Y -= other.Y
	c.Z -= other.Z
	return c
}

// Vec3 возвращает координату как вектор
func (c Coordinate) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}
}

// Vec2 возвращает (x, z) как вектор
func (c Coordinate) Vec2() mgl32.Vec2 {
	return mgl32.Vec2{float32(c.X), float32(c.Z)}
}

// WorldPosition возвращает мировую позицию угла блока
func (c Coordinate) WorldPosition() mgl32.Vec3 {
	return c.Vec3().Mul(BlockSize)
}

// BlockCenter возвращает мировую позицию центра блока
func (c Coordinate) BlockCenter() mgl32.Vec3 {
	half := BlockSize / 2
	return c.WorldPosition().Add(mgl32.Vec3{half, half, half})
}

// Distance вычисляет евклидово расстояние до другой координаты
func (c Coordinate) Distance(other Coordinate) float64 {
	dx := float64(c.X - other.X)
	dy := float64(c.Y - other.Y)
	dz := float64(c.Z - other.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// String форматирует координату как {x, y, z} или {x, z} для 2D
func (c Coordinate) String() string {
	if c.flat {
		return fmt.Sprintf("{%d, %d}", c.X, c.Z)
	}
	return fmt.Sprintf("{%d, %d, %d}", c.X, c.Y, c.Z)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
