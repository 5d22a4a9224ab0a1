// Package pipeline связывает генерацию ландшафта, построение мешей и активацию
// чанков вокруг движущегося наблюдателя. Все очереди обслуживаются одной
// управляющей горутиной через Tick; тяжёлая работа выполняется в заданиях job.
package pipeline

import (
	"context"
	"fmt"

	"github.com/annel0/aether/internal/job"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
)

// Terrain заполняет колонку чанков острова блоками.
// Реализация должна отметить чанки колонки сгенерированными.
type Terrain interface {
	GenerateColumn(ctx context.Context, island *world.Island, column vec.Coordinate) error
}

// Renderer создаёт представление чанка по его мешу
type Renderer interface {
	RenderChunk(mesh *world.ChunkMesh, chunk *world.Chunk) (world.Controller, error)
}

// MeshSink получает каждый меш, успешно переданный рендереру
type MeshSink interface {
	WriteMesh(island *world.Island, mesh *world.ChunkMesh) error
}

// TerrainFunc позволяет использовать функцию как Terrain
type TerrainFunc func(ctx context.Context, island *world.Island, column vec.Coordinate) error

// GenerateColumn вызывает f
func (f TerrainFunc) GenerateColumn(ctx context.Context, island *world.Island, column vec.Coordinate) error {
	return f(ctx, island, column)
}

// QueueColumnForGeneration ставит генерацию колонки в очередь.
// Возвращает false, если колонка вне острова, уже в очереди или сгенерирована.
// После успешной генерации колонка отмечается на острове; после ошибки
// её состояние сбрасывается, чтобы колонку можно было поставить снова.
func QueueColumnForGeneration(
	queue *GenerationQueue,
	terrain Terrain,
	island *world.Island,
	column vec.Coordinate,
	onFinished job.FinishFunc,
) (*job.Job, bool) {
	column = column.Column()
	if !island.ColumnIsInBounds(column) || !island.QueueColumn(column) {
		return nil, false
	}

	j := job.New("generate-column", func(ctx context.Context) error {
		if err := terrain.GenerateColumn(ctx, island, column); err != nil {
			return fmt.Errorf("генерация колонки %s: %w", column, err)
		}
		island.MarkColumnGenerated(column)
		return nil
	}, func(err error) {
		if err != nil {
			island.ResetColumn(column)
		}
		if onFinished != nil {
			onFinished(err)
		}
	})

	queue.Enqueue(j)
	return j, true
}
