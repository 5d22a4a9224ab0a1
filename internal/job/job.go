// Package job реализует фоновое задание: работа выполняется в отдельной горутине,
// а результат забирается управляющей горутиной через опрос Update.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/aether/internal/job"

// ErrAlreadyStarted возвращается при повторном запуске задания
var ErrAlreadyStarted = errors.New("задание уже запущено")

// WorkFunc - работа, выполняемая в фоновой горутине
type WorkFunc func(ctx context.Context) error

// FinishFunc вызывается в горутине, опрашивающей задание, после завершения работы
type FinishFunc func(err error)

// Job - одноразовое фоновое задание
type Job struct {
	id         uuid.UUID
	name       string
	work       WorkFunc
	onFinished FinishFunc

	mu       sync.Mutex
	started  bool
	finished bool // работа завершена
	reported bool // onFinished уже вызван
	err      error
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// New создаёт задание. onFinished может быть nil.
func New(name string, work WorkFunc, onFinished FinishFunc) *Job {
	return &Job{
		id:         uuid.New(),
		name:       name,
		work:       work,
		onFinished: onFinished,
		doneCh:     make(chan struct{}),
	}
}

// ID возвращает уникальный идентификатор задания
func (j *Job) ID() uuid.UUID { return j.id }

// Name возвращает имя задания
func (j *Job) Name() string { return j.name }

// Start запускает работу в новой горутине
func (j *Job) Start() error {
	return j.StartContext(context.Background())
}

// StartContext запускает работу с родительским контекстом
func (j *Job) StartContext(parent context.Context) error {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return fmt.Errorf("%s (%s): %w", j.name, j.id, ErrAlreadyStarted)
	}
	j.started = true
	ctx, cancel := context.WithCancel(parent)
	j.cancel = cancel
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

func (j *Job) run(ctx context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "job."+j.name,
		trace.WithAttributes(attribute.String("job.id", j.id.String())),
	)

	err := j.execute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	j.mu.Lock()
	j.err = err
	j.finished = true
	cancel := j.cancel
	j.mu.Unlock()

	cancel()
	close(j.doneCh)
}

func (j *Job) execute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("задание %s завершилось паникой: %v", j.name, r)
		}
	}()
	if j.work == nil {
		return nil
	}
	return j.work(ctx)
}

// Update возвращает true ровно один раз - при первом опросе после завершения работы.
// В этом же вызове выполняется onFinished.
func (j *Job) Update() bool {
	j.mu.Lock()
	if !j.finished || j.reported {
		j.mu.Unlock()
		return false
	}
	j.reported = true
	err := j.err
	j.mu.Unlock()

	if j.onFinished != nil {
		j.onFinished(err)
	}
	return true
}

// IsDone возвращает true, когда работа завершена
func (j *Job) IsDone() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished
}

// IsStarted возвращает true после успешного Start
func (j *Job) IsStarted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.started
}

// Done возвращает канал, закрываемый по завершении работы
func (j *Job) Done() <-chan struct{} { return j.doneCh }

// Err возвращает ошибку работы (nil до завершения)
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Abort отменяет контекст работы. Работа должна сама проверять контекст.
func (j *Job) Abort() {
	j.mu.Lock()
	cancel := j.cancel
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
