package world

import "sync/atomic"

// IDAllocator выдаёт уникальные идентификаторы чанков и островов.
// Безопасен для одновременного использования.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator создаёт счётчик, начинающий с нуля
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next возвращает следующий свободный идентификатор
func (a *IDAllocator) Next() int {
	return int(a.next.Add(1) - 1)
}

// Issued возвращает число выданных идентификаторов
func (a *IDAllocator) Issued() int {
	return int(a.next.Load())
}
