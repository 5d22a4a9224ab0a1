package world

import (
	"fmt"
	"sync"

	"github.com/annel0/aether/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Player - наблюдатель, вокруг которого активируются чанки
type Player struct {
	number int
	world  *World

	mu       sync.RWMutex
	position mgl32.Vec3
	level    *Island
}

func newPlayer(number int, w *World, position mgl32.Vec3) *Player {
	p := &Player{number: number, world: w, position: position}
	p.UpdateLevel()
	return p
}

// Number возвращает номер игрока (1..PlayerLimit)
func (p *Player) Number() int { return p.number }

// Position возвращает мировую позицию игрока
func (p *Player) Position() mgl32.Vec3 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position
}

// Location возвращает мировую координату блока, в котором стоит игрок
func (p *Player) Location() vec.Coordinate {
	return vec.FromWorldPosition(p.Position())
}

// Level возвращает остров игрока или nil, если игрок в пустоте
func (p *Player) Level() *Island {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

// IsInTheVoid возвращает true, если под игроком нет острова
func (p *Player) IsInTheVoid() bool {
	return p.Level() == nil
}

// ChunkLocation возвращает координату чанка игрока внутри его острова.
// Для игрока в пустоте координата считается от нулевого нексуса.
func (p *Player) ChunkLocation() vec.Coordinate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chunkLocationLocked()
}

func (p *Player) chunkLocationLocked() vec.Coordinate {
	loc := vec.FromWorldPosition(p.position)
	if p.level != nil {
		loc = loc.Sub(p.level.WorldOrigin())
	}
	return loc.ChunkFrame()
}

// UpdateLevel заново определяет остров по текущей позиции.
// Возвращает true, если остров сменился.
func (p *Player) UpdateLevel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateLevelLocked()
}

func (p *Player) updateLevelLocked() bool {
	var island *Island
	if p.world != nil {
		island, _ = p.world.LevelAtWorldLocation(vec.FromWorldPosition(p.position))
	}
	changed := island != p.level
	p.level = island
	return changed
}

// MoveTo перемещает игрока. Возвращает прежний и новый чанк
// и признак смены чанка (или острова).
func (p *Player) MoveTo(position mgl32.Vec3) (oldChunk, newChunk vec.Coordinate, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	oldChunk = p.chunkLocationLocked()
	p.position = position
	levelChanged := p.updateLevelLocked()
	newChunk = p.chunkLocationLocked()

	return oldChunk, newChunk, levelChanged || !oldChunk.Equals(newChunk)
}

func (p *Player) String() string {
	return fmt.Sprintf("Player%d @ %v", p.number, p.Position())
}
