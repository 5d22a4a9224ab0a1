package vec

// Direction задаёт одно из шести осевых направлений.
// Порядок значений важен: он совпадает с индексами кэша соседей блока.
type Direction uint8

const (
	North Direction = iota // +Z
	East                   // +X
	South                  // -Z
	West                   // -X
	Up                     // +Y
	Down                   // -Y

	DirectionCount = 6
)

// Directions перечисляет все направления в каноническом порядке
var Directions = [DirectionCount]Direction{North, East, South, West, Up, Down}

// Cardinals перечисляет горизонтальные направления
var Cardinals = [4]Direction{North, East, South, West}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	default:
		return d
	}
}

// IsHorizontal возвращает true для сторон света
func (d Direction) IsHorizontal() bool {
	return d <= West
}

// Offset возвращает единичное смещение по осям для направления
func (d Direction) Offset() (dx, dy, dz int) {
	switch d {
	case North:
		return 0, 0, 1
	case East:
		return 1, 0, 0
	case South:
		return 0, 0, -1
	case West:
		return -1, 0, 0
	case Up:
		return 0, 1, 0
	case Down:
		return 0, -1, 0
	default:
		return 0, 0, 0
	}
}

// String возвращает имя направления
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}
