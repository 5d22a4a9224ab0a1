package driver

import (
	"github.com/annel0/aether/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Leg - прямой участок маршрута
type Leg struct {
	Dir    vec.Direction
	Blocks int
}

// DefaultLegs обходит квадрат со стороной в три чанка вокруг точки старта
var DefaultLegs = []Leg{
	{Dir: vec.East, Blocks: 75},
	{Dir: vec.North, Blocks: 75},
	{Dir: vec.West, Blocks: 150},
	{Dir: vec.South, Blocks: 150},
	{Dir: vec.East, Blocks: 75},
}

// ScriptedWalk разворачивает участки в последовательность позиций с шагом stride блоков.
// Первая позиция - первый шаг после start.
func ScriptedWalk(start mgl32.Vec3, legs []Leg, stride int) []mgl32.Vec3 {
	if stride <= 0 {
		stride = 1
	}
	var out []mgl32.Vec3
	pos := start
	for _, leg := range legs {
		dx, dy, dz := leg.Dir.Offset()
		step := mgl32.Vec3{float32(dx), float32(dy), float32(dz)}.Mul(vec.BlockSize)
		for moved := 0; moved < leg.Blocks; {
			n := min(stride, leg.Blocks-moved)
			pos = pos.Add(step.Mul(float32(n)))
			out = append(out, pos)
			moved += n
		}
	}
	return out
}
