package pipeline

import (
	"github.com/annel0/aether/internal/vec"
)

// Window - квадрат колонок [center-radius, center+radius] по X и Z
type Window struct {
	Center vec.Coordinate
	Radius int
}

// NewWindow создаёт окно вокруг колонки center
func NewWindow(center vec.Coordinate, radius int) Window {
	return Window{Center: center.Column(), Radius: radius}
}

// Contains проверяет, попадает ли колонка в окно
func (w Window) Contains(column vec.Coordinate) bool {
	return column.X >= w.Center.X-w.Radius && column.X <= w.Center.X+w.Radius &&
		column.Z >= w.Center.Z-w.Radius && column.Z <= w.Center.Z+w.Radius
}

// Columns возвращает все колонки окна в порядке x, z
func (w Window) Columns() []vec.Coordinate {
	side := 2*w.Radius + 1
	out := make([]vec.Coordinate, 0, side*side)
	for x := w.Center.X - w.Radius; x <= w.Center.X+w.Radius; x++ {
		for z := w.Center.Z - w.Radius; z <= w.Center.Z+w.Radius; z++ {
			out = append(out, vec.NewColumn(x, z))
		}
	}
	return out
}

// WindowShift - результат сдвига окна
type WindowShift struct {
	Moved   []vec.Direction  // направления сдвига
	Entered []vec.Coordinate // колонки, вошедшие в окно
	Exited  []vec.Coordinate // колонки, покинувшие окно
}

// IsEmpty возвращает true, если окно не сдвинулось
func (s WindowShift) IsEmpty() bool {
	return len(s.Moved) == 0
}

// ShiftWindow вычисляет колонки, вошедшие в окно и покинувшие его при переходе
// из колонки from в колонку to. Перебираются только полосы разности окон.
func ShiftWindow(from, to vec.Coordinate, radius int) WindowShift {
	oldW := NewWindow(from, radius)
	newW := NewWindow(to, radius)

	var shift WindowShift
	switch dx := newW.Center.X - oldW.Center.X; {
	case dx > 0:
		shift.Moved = append(shift.Moved, vec.East)
	case dx < 0:
		shift.Moved = append(shift.Moved, vec.West)
	}
	switch dz := newW.Center.Z - oldW.Center.Z; {
	case dz > 0:
		shift.Moved = append(shift.Moved, vec.North)
	case dz < 0:
		shift.Moved = append(shift.Moved, vec.South)
	}
	if shift.IsEmpty() {
		return shift
	}

	shift.Entered = difference(newW, oldW)
	shift.Exited = difference(oldW, newW)
	return shift
}

// difference возвращает колонки окна a, не входящие в окно b
func difference(a, b Window) []vec.Coordinate {
	var out []vec.Coordinate

	aMinZ, aMaxZ := a.Center.Z-a.Radius, a.Center.Z+a.Radius
	bMinX, bMaxX := b.Center.X-b.Radius, b.Center.X+b.Radius
	bMinZ, bMaxZ := b.Center.Z-b.Radius, b.Center.Z+b.Radius

	for x := a.Center.X - a.Radius; x <= a.Center.X+a.Radius; x++ {
		if x < bMinX || x > bMaxX {
			for z := aMinZ; z <= aMaxZ; z++ {
				out = append(out, vec.NewColumn(x, z))
			}
			continue
		}
		// Столбец x пересекается с b: берём только полосы по Z вне b
		for z := aMinZ; z <= aMaxZ && z < bMinZ; z++ {
			out = append(out, vec.NewColumn(x, z))
		}
		for z := max(aMinZ, bMaxZ+1); z <= aMaxZ; z++ {
			out = append(out, vec.NewColumn(x, z))
		}
	}
	return out
}
