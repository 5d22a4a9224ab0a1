package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/aether/internal/eventbus"
	"github.com/annel0/aether/internal/job"
	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/mesh"
	"github.com/annel0/aether/internal/metrics"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
)

// Options - параметры IslandRenderer
type Options struct {
	Radius            int // радиус окна активных колонок
	MaxGenerationJobs int
	RendersPerTick    int

	Metrics *metrics.PipelineMetrics
	Logger  *logging.Logger
	Sink    MeshSink
	Events  eventbus.EventBus // nil - события не публикуются
}

func (o *Options) applyDefaults() {
	if o.Radius < 0 {
		o.Radius = 0
	}
	if o.MaxGenerationJobs <= 0 {
		o.MaxGenerationJobs = world.MaxGenJobCount
	}
	if o.RendersPerTick <= 0 {
		o.RendersPerTick = 1
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
}

type renderItem struct {
	chunk *world.Chunk
	mesh  *world.ChunkMesh
}

// Stats - снимок состояния конвейера острова
type Stats struct {
	IslandID         int                `json:"island_id"`
	Center           string             `json:"center"`
	Radius           int                `json:"radius"`
	GeneratedColumns int                `json:"generated_columns"`
	Chunks           int                `json:"chunks"`
	Queues           metrics.QueueSizes `json:"queues"`
}

// IslandRenderer ведёт генерацию, построение мешей и видимость чанков
// одного острова вокруг наблюдателя. Tick вызывается одной управляющей горутиной.
type IslandRenderer struct {
	island    *world.Island
	terrain   Terrain
	renderer  Renderer
	generator *mesh.Generator
	opts      Options
	logger    *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	genQueue *GenerationQueue

	mu          sync.Mutex
	window      Window
	hasWindow   bool
	meshPending []vec.Coordinate
	meshQueued  map[vec.Key]struct{} // в meshPending или в работе
	meshJobs    []*job.Job
	renderQueue []renderItem
	activations *activationQueue
}

// NewIslandRenderer создаёт конвейер острова
func NewIslandRenderer(island *world.Island, terrain Terrain, renderer Renderer, opts Options) *IslandRenderer {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &IslandRenderer{
		island:      island,
		terrain:     terrain,
		renderer:    renderer,
		generator:   mesh.NewGenerator(),
		opts:        opts,
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
		genQueue:    NewGenerationQueue(ctx, opts.MaxGenerationJobs, opts.Logger),
		meshQueued:  make(map[vec.Key]struct{}),
		activations: newActivationQueue(),
	}
}

// Island возвращает обслуживаемый остров
func (r *IslandRenderer) Island() *world.Island { return r.island }

// Window возвращает текущее окно активных колонок
func (r *IslandRenderer) Window() (Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.window, r.hasWindow
}

// RenderAroundPlayer ставит генерацию и построение мешей для всего окна вокруг игрока
func (r *IslandRenderer) RenderAroundPlayer(p *world.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.window = NewWindow(p.ChunkLocation(), r.opts.Radius)
	r.hasWindow = true
	for _, col := range r.window.Columns() {
		r.renderChunkColumn(col)
	}
	r.logger.Debug("окно %s (R=%d) поставлено в очередь", r.window.Center, r.window.Radius)
}

// ActivateAroundPlayer ставит в очередь показ всех чанков окна вокруг игрока
func (r *IslandRenderer) ActivateAroundPlayer(p *world.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := NewWindow(p.ChunkLocation(), r.opts.Radius)
	for _, col := range w.Columns() {
		r.queueColumnActivation(col, true)
	}
}

// RenderPositionChange сдвигает окно при переходе наблюдателя из чанка oldChunk в newChunk
func (r *IslandRenderer) RenderPositionChange(newChunk, oldChunk vec.Coordinate) WindowShift {
	r.mu.Lock()
	defer r.mu.Unlock()

	shift := ShiftWindow(oldChunk, newChunk, r.opts.Radius)
	r.window = NewWindow(newChunk, r.opts.Radius)
	r.hasWindow = true

	for _, col := range shift.Entered {
		r.renderChunkColumn(col)
	}
	for _, col := range shift.Exited {
		r.deRenderChunkColumn(col)
	}
	if !shift.IsEmpty() {
		r.logger.Debug("окно сдвинуто %v: +%d/-%d колонок", shift.Moved, len(shift.Entered), len(shift.Exited))
	}
	return shift
}

// RenderChunkColumn ставит колонку на генерацию и построение мешей,
// а уже отрисованные чанки - на показ
func (r *IslandRenderer) RenderChunkColumn(column vec.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderChunkColumn(column)
}

func (r *IslandRenderer) renderChunkColumn(column vec.Coordinate) {
	column = column.Column()
	if !r.island.ColumnIsInBounds(column) {
		return
	}

	QueueColumnForGeneration(r.genQueue, r.terrain, r.island, column, func(err error) {
		r.opts.Metrics.ColumnGenerated(err)
		payload := eventbus.ColumnGenerated{Island: r.island.ID(), Column: column.String()}
		if err != nil {
			r.logger.Error("❌ %v", err)
			payload.Error = err.Error()
		}
		r.publish(eventbus.TypeColumnGenerated, eventbus.PriorityLow, payload)
	})

	if _, queued := r.meshQueued[column.Key()]; !queued {
		r.meshQueued[column.Key()] = struct{}{}
		r.meshPending = append(r.meshPending, column)
	}

	for y := 0; y < r.island.Dimensions().Height; y++ {
		chunk, ok := r.island.GetChunk(vec.New(column.X, y, column.Z), false)
		if ok && chunk.HasBeenRendered() {
			r.activations.push(chunk.Location(), true)
		}
	}
}

// DeRenderChunkColumn скрывает чанки колонки. Данные блоков не выгружаются.
func (r *IslandRenderer) DeRenderChunkColumn(column vec.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deRenderChunkColumn(column)
}

func (r *IslandRenderer) deRenderChunkColumn(column vec.Coordinate) {
	column = column.Column()
	if !r.island.ColumnIsInBounds(column) {
		return
	}
	r.dropPendingMesh(column)
	r.queueColumnActivation(column, false)
}

func (r *IslandRenderer) queueColumnActivation(column vec.Coordinate, visible bool) {
	if !r.island.ColumnIsInBounds(column) {
		return
	}
	for y := 0; y < r.island.Dimensions().Height; y++ {
		r.activations.push(vec.New(column.X, y, column.Z), visible)
	}
}

func (r *IslandRenderer) dropPendingMesh(column vec.Coordinate) {
	key := column.Key()
	for i, pending := range r.meshPending {
		if pending.Key() == key {
			r.meshPending = append(r.meshPending[:i], r.meshPending[i+1:]...)
			delete(r.meshQueued, key)
			return
		}
	}
}

func (r *IslandRenderer) inRenderQueue(chunk *world.Chunk) bool {
	for _, it := range r.renderQueue {
		if it.chunk == chunk {
			return true
		}
	}
	return false
}

// DestroyBlock заменяет блок по мировым координатам воздухом и сразу
// перестраивает меш его чанка и затронутых соседей
func (r *IslandRenderer) DestroyBlock(location vec.Coordinate) bool {
	chunk, ok := r.island.ChunkAtWorldLocation(location)
	if !ok {
		return false
	}
	local := location.Sub(r.island.WorldOrigin()).Trimmed()
	if !chunk.DestroyBlock(local) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.publish(eventbus.TypeBlockDestroyed, eventbus.PriorityHigh, eventbus.BlockDestroyed{
		Island:   r.island.ID(),
		Location: location.String(),
	})
	// чанки, которые ещё генерируются, получат меш от задания своей колонки
	if chunk.HasBeenGenerated() {
		r.remesh(chunk)
	}
	for _, dir := range vec.Directions {
		if local.Go(dir).IsWithinChunkBounds() {
			continue
		}
		neighbor, ok := chunk.ToThe(dir, false)
		if ok && neighbor.HasBeenGenerated() && neighbor.HasBeenRendered() {
			r.remesh(neighbor)
		}
	}
	return true
}

func (r *IslandRenderer) remesh(chunk *world.Chunk) {
	m := r.generator.Generate(chunk)
	r.opts.Metrics.ChunkMeshed(m.FaceCount)
	if err := r.render(renderItem{chunk: chunk, mesh: m}); err != nil {
		r.renderQueue = append(r.renderQueue, renderItem{chunk: chunk, mesh: m})
	}
}

// Tick выполняет один шаг конвейера: опрос заданий генерации, запуск
// построения мешей для готовых колонок, передачу мешей рендереру и
// применение отложенных изменений видимости
func (r *IslandRenderer) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.genQueue.Tick()
	r.pollMeshJobs()
	r.startMeshJobs()
	r.drainRenderQueue()
	r.applyActivations()

	r.opts.Metrics.ObserveQueues(r.queueSizes())
}

func (r *IslandRenderer) pollMeshJobs() {
	kept := r.meshJobs[:0]
	for _, j := range r.meshJobs {
		if !j.Update() {
			kept = append(kept, j)
		}
	}
	for i := len(kept); i < len(r.meshJobs); i++ {
		r.meshJobs[i] = nil
	}
	r.meshJobs = kept
}

func (r *IslandRenderer) startMeshJobs() {
	kept := r.meshPending[:0]
	for _, column := range r.meshPending {
		if !r.island.ColumnHasBeenGenerated(column) {
			kept = append(kept, column)
			continue
		}
		j := r.newMeshJob(column)
		if err := j.StartContext(r.ctx); err != nil {
			r.logger.Warn("⚠️ Построение мешей колонки %s не запущено: %v", column, err)
			delete(r.meshQueued, column.Key())
			continue
		}
		r.meshJobs = append(r.meshJobs, j)
	}
	r.meshPending = kept
}

// newMeshJob строит меши колонки сверху вниз в собственный буфер задания.
// Буфер переносится в очередь отрисовки в onFinished на управляющей горутине.
func (r *IslandRenderer) newMeshJob(column vec.Coordinate) *job.Job {
	var buffer []renderItem

	return job.New("mesh-column", func(ctx context.Context) error {
		start := time.Now()
		for y := r.island.Dimensions().Height - 1; y >= 0; y-- {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, ok := r.island.GetChunk(vec.New(column.X, y, column.Z), false)
			if !ok || !chunk.HasBeenGenerated() || chunk.IsEmpty() || chunk.HasBeenRendered() {
				continue
			}
			buffer = append(buffer, renderItem{chunk: chunk, mesh: r.generator.Generate(chunk)})
		}
		r.opts.Metrics.ColumnMeshed(time.Since(start))
		return nil
	}, func(err error) {
		delete(r.meshQueued, column.Key())
		if err != nil {
			r.logger.Warn("⚠️ Построение мешей колонки %s прервано: %v", column, err)
			return
		}
		for _, it := range buffer {
			r.opts.Metrics.ChunkMeshed(it.mesh.FaceCount)
			// меш мог быть перестроен DestroyBlock, пока задание работало
			if it.mesh.IsEmpty() || it.chunk.Mesh() != it.mesh {
				continue
			}
			r.renderQueue = append(r.renderQueue, it)
		}
	})
}

func (r *IslandRenderer) drainRenderQueue() {
	for i := 0; i < r.opts.RendersPerTick && len(r.renderQueue) > 0; i++ {
		it := r.renderQueue[0]
		r.renderQueue[0] = renderItem{}
		r.renderQueue = r.renderQueue[1:]

		if err := r.render(it); err != nil {
			r.renderQueue = append(r.renderQueue, it)
		}
	}
}

func (r *IslandRenderer) render(it renderItem) error {
	ctrl, err := r.renderer.RenderChunk(it.mesh, it.chunk)
	r.opts.Metrics.ChunkRendered(err)
	if err != nil {
		r.logger.Warn("⚠️ Рендерер не принял чанк %s: %v", it.chunk, err)
		return err
	}

	visible := r.hasWindow && r.window.Contains(it.chunk.Location())
	if pending, ok := r.activations.get(it.chunk.Location()); ok {
		visible = pending
	}
	it.chunk.SetController(ctrl)
	it.chunk.SetRendered(visible)
	if ctrl != nil {
		ctrl.SetVisible(visible)
	}

	if r.opts.Sink != nil {
		if err := r.opts.Sink.WriteMesh(r.island, it.mesh); err != nil {
			r.logger.Warn("⚠️ Меш чанка %s не сохранён: %v", it.chunk, err)
		}
	}
	r.publish(eventbus.TypeChunkRendered, eventbus.PriorityLow, eventbus.ChunkRendered{
		Island: r.island.ID(),
		Chunk:  it.chunk.Location().String(),
		Faces:  it.mesh.FaceCount,
	})
	return nil
}

func (r *IslandRenderer) publish(eventType string, priority int, payload interface{}) {
	if r.opts.Events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("pipeline", eventType, priority, payload)
	if err == nil {
		err = r.opts.Events.Publish(r.ctx, ev)
	}
	if err != nil {
		r.logger.Warn("⚠️ Событие %s не опубликовано: %v", eventType, err)
	}
}

// applyActivations применяет изменения видимости к чанкам с представлением.
// Чанки, которые ещё могут быть отрисованы, остаются в очереди.
func (r *IslandRenderer) applyActivations() {
	r.activations.retain(func(location vec.Coordinate, visible bool) bool {
		chunk, ok := r.island.GetChunk(location, false)
		if !ok {
			return false
		}
		if chunk.HasBeenGenerated() && chunk.IsEmpty() {
			return false
		}
		if ctrl := chunk.Controller(); ctrl != nil {
			ctrl.SetVisible(visible)
			chunk.SetRendered(visible)
			return false
		}
		_, busy := r.meshQueued[location.Column().Key()]
		if !visible {
			chunk.SetRendered(false)
			// меш в пути: запись дождётся отрисовки и скроет чанк
			return busy || r.inRenderQueue(chunk)
		}
		if !chunk.HasBeenRendered() {
			return true
		}
		if chunk.Mesh().IsEmpty() {
			chunk.SetRendered(true)
			return false
		}
		if busy || r.inRenderQueue(chunk) {
			return true
		}
		// представление утеряно: отрисовываем заново из закэшированного меша
		r.renderQueue = append(r.renderQueue, renderItem{chunk: chunk, mesh: chunk.Mesh()})
		return false
	})
}

func (r *IslandRenderer) queueSizes() metrics.QueueSizes {
	return metrics.QueueSizes{
		GenerationRunning: r.genQueue.Running(),
		GenerationWaiting: r.genQueue.Waiting(),
		MeshPending:       len(r.meshPending) + len(r.meshJobs),
		RenderQueue:       len(r.renderQueue),
		ActivationQueue:   r.activations.len(),
	}
}

// Stats возвращает снимок состояния конвейера
func (r *IslandRenderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		IslandID:         r.island.ID(),
		Radius:           r.opts.Radius,
		GeneratedColumns: r.island.GeneratedColumnCount(),
		Chunks:           r.island.ChunkCount(),
		Queues:           r.queueSizes(),
	}
	if r.hasWindow {
		s.Center = r.window.Center.String()
	}
	return s
}

// Idle возвращает true, когда все очереди пусты и заданий нет
func (r *IslandRenderer) Idle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queueSizes()
	return q.GenerationRunning == 0 && q.GenerationWaiting == 0 &&
		q.MeshPending == 0 && q.RenderQueue == 0 && q.ActivationQueue == 0
}

// Close отменяет все выполняемые задания
func (r *IslandRenderer) Close() {
	r.cancel()
	r.genQueue.Abort()

	r.mu.Lock()
	for _, j := range r.meshJobs {
		j.Abort()
	}
	r.mu.Unlock()
}
