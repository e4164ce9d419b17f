package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
)

const (
	// TankReconcileJobName labels the job in logs and metrics.
	TankReconcileJobName    = "tank-reconcile"
	defaultReconcileWorkers = 4
)

type organizationLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type tankReconciler interface {
	Reconcile(ctx context.Context, orgID uuid.UUID, fix bool) (*ledger.ReconcileReport, error)
}

// TankReconcileJobParams configures the tank balance reconciliation job.
type TankReconcileJobParams struct {
	Logger        *logger.Logger
	Organizations organizationLister
	Ledger        tankReconciler
	Metrics       *metrics.JobMetrics
	Fix           bool
	Concurrency   int
}

// ReconcileSummary aggregates the per-organization reports of one run.
type ReconcileSummary struct {
	Organizations int                      `json:"organizations"`
	TanksChecked  int                      `json:"tanks_checked"`
	Reports       []ledger.ReconcileReport `json:"reports"`
}

// Drifts counts the tanks whose balance disagreed with their history.
func (s ReconcileSummary) Drifts() int {
	total := 0
	for _, r := range s.Reports {
		total += len(r.Drifts)
	}
	return total
}

// TankReconcileJob compares every tank balance with the sum of its history.
type TankReconcileJob struct {
	logg    *logger.Logger
	orgs    organizationLister
	ledger  tankReconciler
	metrics *metrics.JobMetrics
	fix     bool
	workers int
}

// NewTankReconcileJob builds the reconciliation job.
func NewTankReconcileJob(params TankReconcileJobParams) (*TankReconcileJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Organizations == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	workers := params.Concurrency
	if workers <= 0 {
		workers = defaultReconcileWorkers
	}
	return &TankReconcileJob{
		logg:    params.Logger,
		orgs:    params.Organizations,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		fix:     params.Fix,
		workers: workers,
	}, nil
}

func (j *TankReconcileJob) Name() string { return TankReconcileJobName }

func (j *TankReconcileJob) Run(ctx context.Context) error {
	_, err := j.Reconcile(ctx)
	return err
}

// Reconcile checks every active organization. A failing organization does
// not stop the others; all failures are returned together.
func (j *TankReconcileJob) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	ids, err := j.orgs.ListActiveIDs(ctx)
	if err != nil {
		return ReconcileSummary{}, fmt.Errorf("list organizations: %w", err)
	}

	reports := make([]*ledger.ReconcileReport, len(ids))
	var (
		mu   sync.Mutex
		errs error
	)
	var g errgroup.Group
	g.SetLimit(j.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := j.ledger.Reconcile(ctx, id, j.fix)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("organization %s: %w", id, err))
				mu.Unlock()
				return nil
			}
			reports[i] = report
			j.logDrift(ctx, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}

	summary := ReconcileSummary{Organizations: len(ids), Reports: []ledger.ReconcileReport{}}
	for _, report := range reports {
		if report == nil {
			continue
		}
		summary.TanksChecked += report.TanksChecked
		summary.Reports = append(summary.Reports, *report)
	}
	if j.metrics != nil {
		j.metrics.SetDrift(j.Name(), summary.Drifts())
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"organizations": summary.Organizations,
		"tanks_checked": summary.TanksChecked,
		"drifts":        summary.Drifts(),
		"fix":           j.fix,
	}), "tank reconcile complete")
	return summary, errs
}

func (j *TankReconcileJob) logDrift(ctx context.Context, report *ledger.ReconcileReport) {
	for _, drift := range report.Drifts {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"organization_id": report.OrganizationID.String(),
			"tank_id":         drift.TankID.String(),
			"tank_name":       drift.TankName,
			"current_volume":  drift.CurrentVolume.String(),
			"history_total":   drift.HistoryTotal.String(),
			"difference":      drift.Difference.String(),
			"fixed":           drift.Fixed,
		}), "tank balance drift")
	}
}
