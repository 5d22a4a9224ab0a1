// Package metrics содержит Prometheus-метрики конвейера генерации и отрисовки чанков.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aether"

// PipelineMetrics - метрики очередей и заданий конвейера.
// Нулевой указатель допустим: все методы становятся пустыми.
type PipelineMetrics struct {
	generationRunning prometheus.Gauge
	generationWaiting prometheus.Gauge
	meshPending       prometheus.Gauge
	renderQueue       prometheus.Gauge
	activationQueue   prometheus.Gauge

	columnsGenerated prometheus.Counter
	generationErrors prometheus.Counter
	chunksMeshed     prometheus.Counter
	facesEmitted     prometheus.Counter
	chunksRendered   prometheus.Counter
	renderErrors     prometheus.Counter

	meshDuration prometheus.Histogram
}

// NewPipelineMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется глобальный регистр Prometheus.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PipelineMetrics{
		generationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_jobs_running",
			Help:      "Количество выполняемых заданий генерации.",
		}),
		generationWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_jobs_waiting",
			Help:      "Количество заданий генерации в очереди ожидания.",
		}),
		meshPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_columns_pending",
			Help:      "Колонки, ожидающие построения мешей.",
		}),
		renderQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_queue_length",
			Help:      "Меши, ожидающие передачи рендереру.",
		}),
		activationQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "activation_queue_length",
			Help:      "Отложенные изменения видимости чанков.",
		}),
		columnsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_generated_total",
			Help:      "Общее число сгенерированных колонок.",
		}),
		generationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Задания генерации, завершившиеся ошибкой.",
		}),
		chunksMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_meshed_total",
			Help:      "Общее число построенных мешей чанков.",
		}),
		facesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faces_emitted_total",
			Help:      "Общее число выведенных граней.",
		}),
		chunksRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_rendered_total",
			Help:      "Меши, переданные рендереру.",
		}),
		renderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Ошибки рендерера; меш возвращается в очередь.",
		}),
		meshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_column_duration_seconds",
			Help:      "Длительность построения мешей одной колонки.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	reg.MustRegister(
		m.generationRunning, m.generationWaiting, m.meshPending, m.renderQueue, m.activationQueue,
		m.columnsGenerated, m.generationErrors, m.chunksMeshed, m.facesEmitted,
		m.chunksRendered, m.renderErrors, m.meshDuration,
	)
	return m
}

// QueueSizes - снимок длин очередей конвейера
type QueueSizes struct {
	GenerationRunning int `json:"generation_running"`
	GenerationWaiting int `json:"generation_waiting"`
	MeshPending       int `json:"mesh_pending"`
	RenderQueue       int `json:"render_queue"`
	ActivationQueue   int `json:"activation_queue"`
}

// ObserveQueues обновляет gauge-метрики очередей
func (m *PipelineMetrics) ObserveQueues(s QueueSizes) {
	if m == nil {
		return
	}
	m.generationRunning.Set(float64(s.GenerationRunning))
	m.generationWaiting.Set(float64(s.GenerationWaiting))
	m.meshPending.Set(float64(s.MeshPending))
	m.renderQueue.Set(float64(s.RenderQueue))
	m.activationQueue.Set(float64(s.ActivationQueue))
}

// ColumnGenerated учитывает завершённую генерацию колонки
func (m *PipelineMetrics) ColumnGenerated(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.generationErrors.Inc()
		return
	}
	m.columnsGenerated.Inc()
}

// ChunkMeshed учитывает построенный меш
func (m *PipelineMetrics) ChunkMeshed(faces int) {
	if m == nil {
		return
	}
	m.chunksMeshed.Inc()
	m.facesEmitted.Add(float64(faces))
}

// ColumnMeshed учитывает длительность построения мешей колонки
func (m *PipelineMetrics) ColumnMeshed(d time.Duration) {
	if m == nil {
		return
	}
	m.meshDuration.Observe(d.Seconds())
}

// ChunkRendered учитывает результат передачи меша рендереру
func (m *PipelineMetrics) ChunkRendered(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.renderErrors.Inc()
		return
	}
	m.chunksRendered.Inc()
}
