// Package mesh строит видимую поверхность чанка: для каждого непустого блока
// выводятся только грани, соседствующие с пустым блоком.
package mesh

import (
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Параметры атласа текстур 4x4
const (
	TextureUnit float32 = 0.25
)

// SelectedUV - ячейка атласа для подсвеченного блока
var SelectedUV = vec.NewColumn(2, 2)

// faceVertices - углы грани относительно угла блока, по направлениям
var faceVertices = [vec.DirectionCount][4]mgl32.Vec3{
	vec.North: {{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}},
	vec.East:  {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	vec.South: {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	vec.West:  {{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
	vec.Up:    {{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	vec.Down:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
}

// Generator строит меши чанков. Не хранит состояния между вызовами
// и может использоваться из нескольких горутин.
type Generator struct{}

// NewGenerator создаёт генератор мешей
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate строит меш, кэширует его в чанке и отмечает чанк отрисованным.
// Для nil-чанка возвращается пустой меш.
func (g *Generator) Generate(chunk *world.Chunk) *world.ChunkMesh {
	m := g.Extract(chunk)
	if chunk != nil {
		chunk.SetMesh(m)
	}
	return m
}

// Extract строит меш, не меняя состояние чанка
func (g *Generator) Extract(chunk *world.Chunk) *world.ChunkMesh {
	m := &world.ChunkMesh{}
	if chunk == nil {
		return m
	}
	m.Chunk = chunk.Location().Key()

	chunk.ForEach(func(b world.Block) {
		if b.IsEmpty() {
			return
		}
		for _, dir := range vec.Directions {
			if b.Neighbor(dir).IsEmpty() {
				addFace(m, b, dir)
			}
		}
	})
	return m
}

func addFace(m *world.ChunkMesh, b world.Block, dir vec.Direction) {
	corner := b.Location.WorldPosition()
	for _, v := range faceVertices[dir] {
		m.Vertices = append(m.Vertices, corner.Add(v.Mul(vec.BlockSize)))
	}

	n := m.FaceCount * 4
	m.Triangles = append(m.Triangles, n, n+1, n+2, n, n+2, n+3)

	origin := b.Descriptor().UVBase
	if b.Selected {
		origin = SelectedUV
	}
	m.UVs = append(m.UVs, faceUVs(origin)...)

	m.FaceCount++
}

// faceUVs возвращает текстурные координаты грани для ячейки атласа
func faceUVs(origin vec.Coordinate) []mgl32.Vec2 {
	t := TextureUnit
	u := t * float32(origin.X)
	v := t * float32(origin.Z)
	return []mgl32.Vec2{
		{u + t, v},
		{u + t, v + t},
		{u, v + t},
		{u, v},
	}
}
