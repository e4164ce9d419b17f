package cron

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
)

type stubOrganizations struct {
	ids []uuid.UUID
	err error
}

func (s stubOrganizations) ListActiveIDs(context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

type stubReconciler struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*ledger.ReconcileReport
	fails   map[uuid.UUID]error
	fixes   []bool
}

func (s *stubReconciler) Reconcile(_ context.Context, orgID uuid.UUID, fix bool) (*ledger.ReconcileReport, error) {
	s.mu.Lock()
	s.fixes = append(s.fixes, fix)
	s.mu.Unlock()
	if err := s.fails[orgID]; err != nil {
		return nil, err
	}
	if report, ok := s.reports[orgID]; ok {
		return report, nil
	}
	return &ledger.ReconcileReport{OrganizationID: orgID, Drifts: []ledger.Drift{}}, nil
}

func driftReport(orgID uuid.UUID, tanks int, drifts int) *ledger.ReconcileReport {
	report := &ledger.ReconcileReport{OrganizationID: orgID, TanksChecked: tanks, Drifts: []ledger.Drift{}}
	for i := 0; i < drifts; i++ {
		report.Drifts = append(report.Drifts, ledger.Drift{
			TankID:        uuid.New(),
			TankName:      "T",
			CurrentVolume: decimal.NewFromInt(100),
			HistoryTotal:  decimal.NewFromInt(90),
			Difference:    decimal.NewFromInt(10),
		})
	}
	return report
}

func TestTankReconcileJobAggregatesReports(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	reconciler := &stubReconciler{reports: map[uuid.UUID]*ledger.ReconcileReport{
		a: driftReport(a, 3, 1),
		b: driftReport(b, 2, 0),
		c: driftReport(c, 4, 2),
	}}
	reg := prometheus.NewRegistry()
	job, err := NewTankReconcileJob(TankReconcileJobParams{
		Logger:        logger.Nop(),
		Organizations: stubOrganizations{ids: []uuid.UUID{a, b, c}},
		Ledger:        reconciler,
		Metrics:       metrics.NewJobMetrics(reg),
		Fix:           true,
		Concurrency:   2,
	})
	require.NoError(t, err)

	summary, err := job.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Organizations)
	assert.Equal(t, 9, summary.TanksChecked)
	assert.Equal(t, 3, summary.Drifts())
	assert.Len(t, summary.Reports, 3)
	assert.Equal(t, []bool{true, true, true}, reconciler.fixes)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetGauge() != nil && matchesJobLabel(m.GetLabel()) {
				found = true
				assert.Equal(t, float64(3), m.GetGauge().GetValue())
			}
		}
	}
	assert.True(t, found, "expected drift gauge to be exported")
}

func TestTankReconcileJobCollectsFailures(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	reconciler := &stubReconciler{
		reports: map[uuid.UUID]*ledger.ReconcileReport{b: driftReport(b, 5, 1)},
		fails: map[uuid.UUID]error{
			a: errors.New("db down"),
			c: errors.New("lock timeout"),
		},
	}
	job, err := NewTankReconcileJob(TankReconcileJobParams{
		Logger:        logger.Nop(),
		Organizations: stubOrganizations{ids: []uuid.UUID{a, b, c}},
		Ledger:        reconciler,
	})
	require.NoError(t, err)

	summary, err := job.Reconcile(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Len(t, summary.Reports, 1)
	assert.Equal(t, 5, summary.TanksChecked)
	assert.Len(t, reconciler.fixes, 3, "every organization should be attempted")
}

func TestTankReconcileJobListFailure(t *testing.T) {
	job, err := NewTankReconcileJob(TankReconcileJobParams{
		Logger:        logger.Nop(),
		Organizations: stubOrganizations{err: errors.New("boom")},
		Ledger:        &stubReconciler{},
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}

func TestNewTankReconcileJobRequiresDependencies(t *testing.T) {
	_, err := NewTankReconcileJob(TankReconcileJobParams{})
	require.Error(t, err)
	_, err = NewTankReconcileJob(TankReconcileJobParams{Logger: logger.Nop()})
	require.Error(t, err)
}

func matchesJobLabel(labels []*dto.LabelPair) bool {
	for _, l := range labels {
		if l.GetName() == "job" && l.GetValue() == TankReconcileJobName {
			return true
		}
	}
	return false
}
