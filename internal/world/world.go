package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/aether/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Константы мира
const (
	// WorldNexusLength - расстояние между нексусами соседних островов, в блоках
	WorldNexusLength = 5000
	// ActiveChunksRadius - радиус окна активных колонок вокруг игрока
	ActiveChunksRadius = 5
	// PlayerLimit - максимальное число игроков
	PlayerLimit = 4
	// MaxGenJobCount - число одновременно выполняемых заданий генерации
	MaxGenJobCount = 8
)

var (
	// ErrLevelExists возвращается при повторном создании острова в занятом нексусе
	ErrLevelExists = errors.New("остров в этом нексусе уже существует")
	// ErrPlayerLimit возвращается, когда все слоты игроков заняты
	ErrPlayerLimit = errors.New("достигнут лимит игроков")
)

// World владеет островами, счётчиком идентификаторов и списком игроков
type World struct {
	ids  *IDAllocator
	seed int64
	dims Dimensions

	mu     sync.RWMutex
	levels map[vec.Key]*Island

	playersMu sync.RWMutex
	players   [PlayerLimit]*Player
}

// NewWorld создаёт пустой мир. Новые острова получают указанные сид и размеры.
func NewWorld(seed int64, dims Dimensions) *World {
	return &World{
		ids:    NewIDAllocator(),
		seed:   seed,
		dims:   dims,
		levels: make(map[vec.Key]*Island),
	}
}

// IDs возвращает общий счётчик идентификаторов мира
func (w *World) IDs() *IDAllocator { return w.ids }

// Seed возвращает сид мира
func (w *World) Seed() int64 { return w.seed }

// CreateNewIsland создаёт остров в указанном нексусе
func (w *World) CreateNewIsland(nexus vec.Coordinate) (*Island, error) {
	key := nexus.Key()

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.levels[key]; exists {
		return nil, fmt.Errorf("нексус %s: %w", nexus, ErrLevelExists)
	}
	island := NewIsland(w.ids.Next(), nexus, w.dims, w.seed, w.ids)
	w.levels[key] = island
	return island, nil
}

// GetLevel возвращает остров по координате нексуса
func (w *World) GetLevel(nexus vec.Coordinate) (*Island, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	island, ok := w.levels[nexus.Key()]
	return island, ok
}

// LevelAtWorldLocation возвращает остров, в пределах нексуса которого лежит блок
func (w *World) LevelAtWorldLocation(location vec.Coordinate) (*Island, bool) {
	return w.GetLevel(NexusOf(location))
}

// Islands возвращает все острова в порядке создания
func (w *World) Islands() []*Island {
	w.mu.RLock()
	out := make([]*Island, 0, len(w.levels))
	for _, island := range w.levels {
		out = append(out, island)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AddPlayer занимает первый свободный слот игрока
func (w *World) AddPlayer(position mgl32.Vec3) (*Player, error) {
	w.playersMu.Lock()
	defer w.playersMu.Unlock()

	for i := range w.players {
		if w.players[i] == nil {
			p := newPlayer(i+1, w, position)
			w.players[i] = p
			return p, nil
		}
	}
	return nil, ErrPlayerLimit
}

// Player возвращает игрока по номеру (начиная с 1)
func (w *World) Player(number int) (*Player, bool) {
	if number < 1 || number > PlayerLimit {
		return nil, false
	}
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	p := w.players[number-1]
	return p, p != nil
}

// RemovePlayer освобождает слот игрока
func (w *World) RemovePlayer(number int) {
	if number < 1 || number > PlayerLimit {
		return
	}
	w.playersMu.Lock()
	w.players[number-1] = nil
	w.playersMu.Unlock()
}

// NexusOf возвращает нексус, которому принадлежат мировые координаты блока
func NexusOf(location vec.Coordinate) vec.Coordinate {
	n := location.FloorDiv(WorldNexusLength)
	return vec.New(n.X, n.Y, n.Z)
}
