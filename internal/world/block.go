package world

import (
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world/block"
)

// Block представляет собой блок мира. Это значение, а не объект:
// чанк хранит упакованные ячейки и собирает Block при чтении.
type Block struct {
	Type    block.Type // Тип материала
	ChunkID int        // Идентификатор чанка-владельца

	// Neighbors - кэш типов соседних блоков, индексируется vec.Direction.
	// Поддерживается протоколом UpdateBlock, живых ссылок на соседей нет.
	Neighbors [vec.DirectionCount]block.Type

	Selected bool           // Блок подсвечен курсором
	Location vec.Coordinate // Локальные координаты внутри чанка
}

// NewBlock создаёт блок указанного типа в локальных координатах чанка
func NewBlock(t block.Type, location vec.Coordinate) Block {
	return Block{
		Type:     t,
		ChunkID:  -1,
		Location: location,
	}
}

// IsValid проверяет, что блок адресует ячейку чанка
func (b Block) IsValid() bool {
	return b.Location.IsInitialized() &&
		b.Location.IsWithinChunkBounds() &&
		b.Type.IsValid()
}

// IsEmpty возвращает true для невалидного блока или воздуха
func (b Block) IsEmpty() bool {
	return !b.IsValid() || b.Type.IsEmpty()
}

// Neighbor возвращает закэшированный тип соседа в направлении dir
func (b Block) Neighbor(dir vec.Direction) block.Type {
	return b.Neighbors[dir]
}

// Descriptor возвращает описание материала блока
func (b Block) Descriptor() *block.Descriptor {
	return b.Type.Descriptor()
}

// cell - упакованное представление блока внутри чанка
type cell struct {
	typ       block.Type
	neighbors [vec.DirectionCount]block.Type
	selected  bool
}

func (c cell) isDefault() bool {
	return c == cell{}
}
