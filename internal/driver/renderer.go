package driver

import (
	"sync"
	"sync/atomic"

	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/world"
)

// LogRenderer - рендерер без графики: запоминает меши и пишет их в лог.
// Используется headless-драйвером и как пример реализации pipeline.Renderer.
type LogRenderer struct {
	logger *logging.Logger

	rendered atomic.Int64
	faces    atomic.Int64

	mu      sync.Mutex
	visible map[int]bool // по идентификатору чанка
}

// NewLogRenderer создаёт рендерер; nil означает логгер по умолчанию
func NewLogRenderer(l *logging.Logger) *LogRenderer {
	if l == nil {
		l = logging.Default()
	}
	return &LogRenderer{logger: l, visible: make(map[int]bool)}
}

// RenderChunk фиксирует меш и возвращает контроллер видимости чанка
func (r *LogRenderer) RenderChunk(m *world.ChunkMesh, chunk *world.Chunk) (world.Controller, error) {
	r.rendered.Add(1)
	r.faces.Add(int64(m.FaceCount))
	r.logger.Debug("🧱 %v: %d граней", chunk, m.FaceCount)
	return &logController{renderer: r, chunk: chunk}, nil
}

// Rendered возвращает число отрисовок
func (r *LogRenderer) Rendered() int64 { return r.rendered.Load() }

// Faces возвращает суммарное число отрисованных граней
func (r *LogRenderer) Faces() int64 { return r.faces.Load() }

// VisibleCount возвращает число видимых чанков
func (r *LogRenderer) VisibleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.visible {
		if v {
			n++
		}
	}
	return n
}

type logController struct {
	renderer *LogRenderer
	chunk    *world.Chunk
}

func (c *logController) SetVisible(visible bool) {
	c.renderer.mu.Lock()
	prev, known := c.renderer.visible[c.chunk.ID()]
	c.renderer.visible[c.chunk.ID()] = visible
	c.renderer.mu.Unlock()

	if known && prev != visible {
		c.renderer.logger.Trace("👁️ %v видимость %t", c.chunk.Location(), visible)
	}
}
