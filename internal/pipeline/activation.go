package pipeline

import "github.com/annel0/aether/internal/vec"

// activationQueue хранит желаемую видимость чанков в порядке постановки.
// Повторная постановка того же чанка заменяет значение, сохраняя место в очереди.
type activationQueue struct {
	order   []vec.Coordinate
	visible map[vec.Key]bool
}

func newActivationQueue() *activationQueue {
	return &activationQueue{visible: make(map[vec.Key]bool)}
}

func (q *activationQueue) push(location vec.Coordinate, visible bool) {
	key := location.Key()
	if _, exists := q.visible[key]; !exists {
		q.order = append(q.order, location)
	}
	q.visible[key] = visible
}

// get возвращает ожидающее значение видимости чанка
func (q *activationQueue) get(location vec.Coordinate) (visible, ok bool) {
	visible, ok = q.visible[location.Key()]
	return visible, ok
}

// retain вызывает keep для каждой записи; записи, для которых keep вернул false, удаляются
func (q *activationQueue) retain(keep func(location vec.Coordinate, visible bool) bool) {
	kept := q.order[:0]
	for _, loc := range q.order {
		key := loc.Key()
		if keep(loc, q.visible[key]) {
			kept = append(kept, loc)
			continue
		}
		delete(q.visible, key)
	}
	q.order = kept
}

func (q *activationQueue) len() int {
	return len(q.order)
}
