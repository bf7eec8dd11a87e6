package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Ring channel metrics
	Pushes        *prometheus.CounterVec
	Evictions     *prometheus.CounterVec
	Pops          *prometheus.CounterVec
	BatchElements *prometheus.CounterVec
	Occupancy     *prometheus.GaugeVec
	Capacity      *prometheus.GaugeVec

	// Kafka source metrics
	MessagesConsumed   *prometheus.CounterVec
	Rebalances         *prometheus.CounterVec
	PartitionsAssigned *prometheus.GaugeVec
	OverflowPublished  *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Pushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ring_push_total",
				Help: "Total number of single-element pushes",
			},
			[]string{"channel"},
		),
		Evictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ring_evictions_total",
				Help: "Total number of elements overwritten by a push into a full channel",
			},
			[]string{"channel"},
		),
		Pops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ring_pop_total",
				Help: "Total number of pop attempts by result",
			},
			[]string{"channel", "result"},
		),
		BatchElements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ring_batch_elements_total",
				Help: "Elements submitted through batch pushes by outcome",
			},
			[]string{"channel", "outcome"},
		),
		Occupancy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ring_occupancy",
				Help: "Current number of elements in the channel",
			},
			[]string{"channel"},
		),
		Capacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ring_capacity",
				Help: "Fixed capacity of the channel",
			},
			[]string{"channel"},
		),

		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_consumed_total",
				Help: "Total number of messages consumed from Kafka",
			},
			[]string{"topic", "partition"},
		),
		Rebalances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_rebalance_total",
				Help: "Total number of consumer group rebalances",
			},
			[]string{"group"},
		),
		PartitionsAssigned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kafka_partitions_assigned",
				Help: "Number of partitions currently assigned to this consumer",
			},
			[]string{"topic"},
		),
		OverflowPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overflow_published_total",
				Help: "Evicted messages forwarded to overflow topics",
			},
			[]string{"topic", "status"},
		),
	}
}

// IncPush increments the push counter.
func (m *Metrics) IncPush(channel string) {
	m.Pushes.WithLabelValues(channel).Inc()
}

// IncEvictions increments the eviction counter.
func (m *Metrics) IncEvictions(channel string) {
	m.Evictions.WithLabelValues(channel).Inc()
}

// IncPop increments the pop counter for a hit or miss.
func (m *Metrics) IncPop(channel string, result string) {
	m.Pops.WithLabelValues(channel, result).Inc()
}

// AddBatchElements adds n written or truncated batch elements.
func (m *Metrics) AddBatchElements(channel string, outcome string, n int) {
	m.BatchElements.WithLabelValues(channel, outcome).Add(float64(n))
}

// SetOccupancy sets the occupancy gauge.
func (m *Metrics) SetOccupancy(channel string, count int) {
	m.Occupancy.WithLabelValues(channel).Set(float64(count))
}

// SetCapacity sets the capacity gauge.
func (m *Metrics) SetCapacity(channel string, capacity int) {
	m.Capacity.WithLabelValues(channel).Set(float64(capacity))
}

// IncMessagesConsumed increments messages consumed counter.
func (m *Metrics) IncMessagesConsumed(topic string, partition int32) {
	m.MessagesConsumed.WithLabelValues(topic, strconv.Itoa(int(partition))).Inc()
}

// IncRebalances increments rebalances counter.
func (m *Metrics) IncRebalances(groupID string) {
	m.Rebalances.WithLabelValues(groupID).Inc()
}

// SetPartitionsAssigned sets partitions assigned gauge.
func (m *Metrics) SetPartitionsAssigned(topic string, count float64) {
	m.PartitionsAssigned.WithLabelValues(topic).Set(count)
}

// IncOverflowPublished counts an overflow publish attempt.
func (m *Metrics) IncOverflowPublished(topic string, status string) {
	m.OverflowPublished.WithLabelValues(topic, status).Inc()
}
