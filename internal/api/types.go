package api

import "github.com/annel0/aether/internal/pipeline"

// GenericResponse - общий конверт ответов API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ServerInfo - состояние процесса
type ServerInfo struct {
	Uptime      string  `json:"uptime"`
	ResidentMB  float64 `json:"resident_mb"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	CPUPercent  float64 `json:"cpu_percent"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
	ServerTime  int64   `json:"server_time"`
}

// IslandInfo - краткое описание острова
type IslandInfo struct {
	ID               int    `json:"id"`
	Nexus            string `json:"nexus"`
	Seed             int64  `json:"seed"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Depth            int    `json:"depth"`
	Chunks           int    `json:"chunks"`
	GeneratedColumns int    `json:"generated_columns"`
}

// StatsSource отдаёт состояние конвейеров всех активных островов
type StatsSource interface {
	PipelineStats() []pipeline.Stats
}

// StatsSourceFunc адаптирует функцию к StatsSource
type StatsSourceFunc func() []pipeline.Stats

func (f StatsSourceFunc) PipelineStats() []pipeline.Stats { return f() }
