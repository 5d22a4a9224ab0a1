package world

import (
	"github.com/annel0/aether/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkMesh - видимая поверхность чанка, готовая к передаче рендереру.
// Вершины заданы в локальных координатах чанка.
type ChunkMesh struct {
	Chunk     vec.Key // координата чанка-источника внутри уровня
	Vertices  []mgl32.Vec3
	Triangles []int
	UVs       []mgl32.Vec2
	FaceCount int
}

// IsEmpty возвращает true для меша без граней
func (m *ChunkMesh) IsEmpty() bool {
	return m == nil || m.FaceCount == 0
}
