package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records engine operation telemetry. The engine calls these
// methods while holding its mutex, so everything here must stay allocation
// light and must never block.
type EngineMetrics struct {
	opDuration  *prometheus.HistogramVec
	opTotal     *prometheus.CounterVec
	supply      prometheus.Gauge
	snapshotAt  prometheus.Gauge
	snapshotIdx prometheus.Gauge
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_op_duration_seconds",
		Help:    "Duration of engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	opTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_op_total",
		Help: "Engine operations by operation and result code.",
	}, []string{"op", "code"})
	supply := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_total_supply",
		Help: "Current total token supply.",
	})
	snapshotAt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_snapshot_timestamp_seconds",
		Help: "Unix time of the last persisted engine snapshot.",
	})
	snapshotIdx := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_snapshot_tx_index",
		Help: "Transaction index captured by the last persisted snapshot.",
	})
	reg.MustRegister(opDuration, opTotal, supply, snapshotAt, snapshotIdx)
	return &EngineMetrics{
		opDuration:  opDuration,
		opTotal:     opTotal,
		supply:      supply,
		snapshotAt:  snapshotAt,
		snapshotIdx: snapshotIdx,
	}
}

// EngineOp records one finished engine operation.
func (m *EngineMetrics) EngineOp(op string, code string, duration time.Duration) {
	if m == nil || m.opTotal == nil {
		return
	}
	m.opTotal.WithLabelValues(normalizeLabel(op), normalizeLabel(code)).Inc()
	m.opDuration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// TotalSupply updates the supply gauge.
func (m *EngineMetrics) TotalSupply(supply uint64) {
	if m == nil || m.supply == nil {
		return
	}
	m.supply.Set(float64(supply))
}

// SnapshotPersisted records a successful snapshot write.
func (m *EngineMetrics) SnapshotPersisted(txIndex uint64, at time.Time) {
	if m == nil || m.snapshotAt == nil {
		return
	}
	m.snapshotAt.Set(float64(at.Unix()))
	m.snapshotIdx.Set(float64(txIndex))
}
