package eventbus

import "github.com/prometheus/client_golang/prometheus"

// Collector отдаёт счётчики шины в Prometheus при каждом сборе,
// без фоновой горутины
type Collector struct {
	bus EventBus

	published *prometheus.Desc
	consumed  *prometheus.Desc
	dropped   *prometheus.Desc
	inflight  *prometheus.Desc
}

// NewCollector создаёт коллектор для bus
func NewCollector(namespace string, bus EventBus) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "eventbus", name), help, nil, nil)
	}
	return &Collector{
		bus:       bus,
		published: desc("messages_published_total", "Общее число опубликованных сообщений."),
		consumed:  desc("messages_consumed_total", "Общее число доставленных сообщений подписчикам."),
		dropped:   desc("messages_dropped_total", "Сообщений, отброшенных из-за переполнения буфера."),
		inflight:  desc("messages_inflight", "Количество сообщений в очереди доставки."),
	}
}

// Describe реализует prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.published
	ch <- c.consumed
	ch <- c.dropped
	ch <- c.inflight
}

// Collect реализует prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.bus.Metrics()
	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(s.Published))
	ch <- prometheus.MustNewConstMetric(c.consumed, prometheus.CounterValue, float64(s.Consumed))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.inflight, prometheus.GaugeValue, float64(s.InFlight))
}
