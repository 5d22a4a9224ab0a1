package world

import (
	"fmt"

	"github.com/annel0/aether/internal/vec"
)

// DefaultSeed - сид ландшафта по умолчанию
const DefaultSeed int64 = 8675309

// Island - уровень с собственным идентификатором и сидом ландшафта
type Island struct {
	*Level

	id   int
	seed int64
}

// NewIsland создаёт остров в указанном нексусе
func NewIsland(id int, nexus vec.Coordinate, dims Dimensions, seed int64, ids *IDAllocator) *Island {
	return &Island{
		Level: NewLevel(nexus, dims, ids),
		id:    id,
		seed:  seed,
	}
}

// ID возвращает идентификатор острова
func (i *Island) ID() int { return i.id }

// Seed возвращает сид ландшафта
func (i *Island) Seed() int64 { return i.seed }

func (i *Island) String() string {
	return fmt.Sprintf("Island#%d @ %s", i.id, i.Nexus())
}
