package pipeline

import (
	"context"
	"sync"

	"github.com/annel0/aether/internal/job"
	"github.com/annel0/aether/internal/logging"
)

// GenerationQueue запускает задания в порядке постановки, держа
// одновременно не более maxJobs выполняемых
type GenerationQueue struct {
	ctx     context.Context
	maxJobs int
	logger  *logging.Logger

	mu      sync.Mutex
	waiting []*job.Job
	running []*job.Job
}

// NewGenerationQueue создаёт очередь. Задания запускаются с контекстом ctx.
func NewGenerationQueue(ctx context.Context, maxJobs int, logger *logging.Logger) *GenerationQueue {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxJobs <= 0 {
		maxJobs = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GenerationQueue{ctx: ctx, maxJobs: maxJobs, logger: logger}
}

// Enqueue добавляет задание в конец очереди ожидания
func (q *GenerationQueue) Enqueue(j *job.Job) {
	q.mu.Lock()
	q.waiting = append(q.waiting, j)
	q.mu.Unlock()
}

// Tick опрашивает выполняемые задания, убирает завершённые
// и запускает ожидающие, пока есть свободные места
func (q *GenerationQueue) Tick() {
	q.mu.Lock()
	running := make([]*job.Job, len(q.running))
	copy(running, q.running)
	q.mu.Unlock()

	// Update вызывает onFinished, который может снова обратиться к очереди
	finished := make(map[*job.Job]bool)
	for _, j := range running {
		if j.Update() {
			finished[j] = true
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.running[:0]
	for _, j := range q.running {
		if !finished[j] {
			kept = append(kept, j)
		}
	}
	for i := len(kept); i < len(q.running); i++ {
		q.running[i] = nil
	}
	q.running = kept

	for len(q.running) < q.maxJobs && len(q.waiting) > 0 {
		j := q.waiting[0]
		q.waiting[0] = nil
		q.waiting = q.waiting[1:]

		if err := j.StartContext(q.ctx); err != nil {
			q.logger.Warn("⚠️ Задание %s пропущено: %v", j.Name(), err)
			continue
		}
		q.running = append(q.running, j)
	}
}

// Running возвращает число выполняемых заданий
func (q *GenerationQueue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.running)
}

// Waiting возвращает число ожидающих заданий
func (q *GenerationQueue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// MaxJobs возвращает предел одновременно выполняемых заданий
func (q *GenerationQueue) MaxJobs() int { return q.maxJobs }

// Abort отменяет выполняемые задания и очищает очередь ожидания
func (q *GenerationQueue) Abort() {
	q.mu.Lock()
	running := q.running
	q.running = nil
	q.waiting = nil
	q.mu.Unlock()

	for _, j := range running {
		j.Abort()
	}
}
