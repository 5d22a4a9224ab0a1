package vec

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_GoTo(t *testing.T) {
	origin := New(3, 4, 5)

	tests := []struct {
		dir      Direction
		expected Coordinate
	}{
		{North, New(3, 4, 7)},
		{East, New(5, 4, 5)},
		{South, New(3, 4, 3)},
		{West, New(1, 4, 5)},
		{Up, New(3, 6, 5)},
		{Down, New(3, 2, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			got := origin.GoTo(tt.dir, 2)
			assert.True(t, tt.expected.Equals(got), "ожидалось %v, получено %v", tt.expected, got)
		})
	}
}

func TestCoordinate_GoAndBack(t *testing.T) {
	c := New(-2, 7, 11)
	for _, dir := range Directions {
		back := c.Go(dir).Go(dir.Opposite())
		assert.Equal(t, c.Key(), back.Key(), "направление %v", dir)
	}
}

func TestDirection_OppositeIsInvolution(t *testing.T) {
	for _, dir := range Directions {
		assert.NotEqual(t, dir, dir.Opposite())
		assert.Equal(t, dir, dir.Opposite().Opposite())
	}
}

func TestCoordinate_ColumnVerticalMoveBecomes3D(t *testing.T) {
	col := NewColumn(1, 2)
	require.True(t, col.Is2D())

	assert.True(t, col.Go(North).Is2D(), "горизонтальный шаг сохраняет 2D")
	assert.False(t, col.Go(Up).Is2D(), "вертикальный шаг даёт 3D")
}

func TestCoordinate_EqualityIgnores2DTag(t *testing.T) {
	col := NewColumn(4, 9)
	flat := New(4, 0, 9)

	assert.True(t, col.Equals(flat))
	assert.Equal(t, col.Key(), flat.Key())

	m := map[Key]string{col.Key(): "колонка"}
	assert.Equal(t, "колонка", m[flat.Key()])
}

func TestCoordinate_String(t *testing.T) {
	assert.Equal(t, "{1, 2}", NewColumn(1, 2).String())
	assert.Equal(t, "{1, 5, 2}", New(1, 5, 2).String())
}

func TestCoordinate_Trimmed(t *testing.T) {
	tests := []struct {
		name     string
		in       Coordinate
		expected Coordinate
	}{
		{"внутри", New(3, 4, 5), New(3, 4, 5)},
		{"за северной границей", New(3, 4, ChunkDiameter+2), New(3, 4, 2)},
		{"отрицательная", New(-1, -ChunkHeight, -26), New(ChunkDiameter-1, 0, ChunkDiameter-1)},
		{"большая", New(3*ChunkDiameter+7, 0, 0), New(7, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Trimmed()
			assert.Equal(t, tt.expected.Key(), got.Key())
			assert.True(t, got.IsWithinChunkBounds())
		})
	}
}

func TestCoordinate_ChunkFrame(t *testing.T) {
	assert.Equal(t, Key{0, 0, 0}, New(24, 24, 24).ChunkFrame().Key())
	assert.Equal(t, Key{1, 2, 3}, New(25, 50, 75+24).ChunkFrame().Key())
	assert.Equal(t, Key{-1, 0, -1}, New(-1, 0, -25).ChunkFrame().Key())

	col := NewColumn(60, 30).ChunkFrame()
	assert.True(t, col.Is2D(), "колонка остаётся колонкой")
	assert.Equal(t, Key{2, 0, 1}, col.Key())
}

func TestCoordinate_FloorDiv(t *testing.T) {
	var zero Coordinate
	assert.False(t, zero.IsInitialized())

	n := zero.FloorDiv(5000)
	assert.True(t, n.IsInitialized(), "результат деления - действительная координата, как у ChunkFrame")
	assert.Equal(t, zero.ChunkFrame().IsInitialized(), n.IsInitialized())

	assert.Equal(t, Key{-1, 0, 1}, New(-1, 4999, 5000).FloorDiv(5000).Key())
	assert.True(t, NewColumn(-7, 3).FloorDiv(5).Is2D(), "признак колонки сохраняется")
}

func TestCoordinate_ChunkFrameAndTrimmedRecompose(t *testing.T) {
	for _, c := range []Coordinate{New(0, 0, 0), New(37, 99, -13), New(-51, -1, 250)} {
		chunk := c.ChunkFrame()
		local := c.Trimmed()
		recomposed := New(
			chunk.X*ChunkDiameter+local.X,
			chunk.Y*ChunkHeight+local.Y,
			chunk.Z*ChunkDiameter+local.Z,
		)
		assert.Equal(t, c.Key(), recomposed.Key(), "координата %v", c)
	}
}

func TestFromWorldPosition_RoundTrip(t *testing.T) {
	positions := []mgl32.Vec3{
		{0, 0, 0},
		{200, 70, 200},
		{12.75, 3.2, 0.999},
		{-4.5, 10.1, -0.25},
		{1234.5, 0.5, 88.9},
	}

	for _, pos := range positions {
		c := FromWorldPosition(pos)
		back := c.WorldPosition()
		for axis := 0; axis < 3; axis++ {
			diff := math.Abs(float64(back[axis] - pos[axis]))
			assert.Less(t, diff, float64(BlockSize), "позиция %v, ось %d", pos, axis)
		}
	}
}

func TestCoordinate_Distance(t *testing.T) {
	assert.InDelta(t, 5.0, New(0, 0, 0).Distance(New(3, 4, 0)), 1e-9)
	assert.InDelta(t, 0.0, New(1, 1, 1).Distance(New(1, 1, 1)), 1e-9)
}

func TestCoordinate_BlockCenter(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{2.5, 3.5, 4.5}, New(2, 3, 4).BlockCenter())
}
