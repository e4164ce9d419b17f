package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// LedgerMetrics counts tank volume mutations by operation type.
type LedgerMetrics struct {
	applied  *prometheus.CounterVec
	litres   *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tank_operations_total",
		Help:      "Tank volume mutations recorded in tank history.",
	}, []string{"operation"})
	litres := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tank_operation_litres_total",
		Help:      "Absolute litres moved by tank volume mutations.",
	}, []string{"operation"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tank_operations_rejected_total",
		Help:      "Tank volume mutations refused by capacity or non-negativity checks.",
	}, []string{"operation"})
	reg.MustRegister(applied, litres, rejected)
	return &LedgerMetrics{applied: applied, litres: litres, rejected: rejected}
}

// Applied records a committed-to-transaction mutation. The surrounding
// transaction may still roll back.
func (m *LedgerMetrics) Applied(operation string, volume decimal.Decimal) {
	if m == nil || m.applied == nil {
		return
	}
	op := normalizeLabel(operation)
	m.applied.WithLabelValues(op).Inc()
	litres, _ := volume.Abs().Float64()
	m.litres.WithLabelValues(op).Add(litres)
}

func (m *LedgerMetrics) Rejected(operation string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(operation)).Inc()
}
