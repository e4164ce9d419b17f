package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/pkg/db/models"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

// Service is the only writer of tank balances. Every mutation locks the tank,
// checks the new balance against zero and capacity, stores it and appends
// exactly one history row, all inside the caller's transaction.
type Service interface {
	Apply(ctx context.Context, tx *gorm.DB, mutation Mutation) (*models.TankHistory, error)
	ListHistory(ctx context.Context, orgID uuid.UUID, filter HistoryFilter, params pagination.Params) ([]HistoryEntry, string, error)
	Reconcile(ctx context.Context, orgID uuid.UUID, fix bool) (*ReconcileReport, error)
}

// VolumeScale is the number of decimal places stored for litres.
const VolumeScale = 2

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
}

// NewService wires a ledger service. metrics may be nil.
func NewService(repo Repository, tx txRunner, m *metrics.LedgerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, metrics: m, logg: logg}, nil
}

func (s *service) Apply(ctx context.Context, tx *gorm.DB, m Mutation) (*models.TankHistory, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tank mutation requires a transaction")
	}
	if err := validateMutation(m); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	tank, err := repo.LockTank(ctx, m.OrganizationID, m.TankID)
	if err != nil {
		return nil, err
	}

	balance := tank.CurrentVolume.Add(m.Volume)
	if balance.IsNegative() {
		s.metrics.Rejected(string(m.Operation))
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
			"insufficient volume in %s: %sL available", tank.Name, tank.CurrentVolume.StringFixed(2)).
			WithDetails(balanceDetails(tank, m))
	}
	if balance.GreaterThan(tank.Capacity) {
		s.metrics.Rejected(string(m.Operation))
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
			"volume exceeds tank capacity of %s liters", tank.Capacity.StringFixed(2)).
			WithDetails(balanceDetails(tank, m))
	}

	if err := repo.UpdateBalance(ctx, tank.ID, balance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tank balance")
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	entry := &models.TankHistory{
		OrganizationID:    m.OrganizationID,
		TankID:            tank.ID,
		Operation:         m.Operation,
		Date:              date,
		Volume:            m.Volume,
		BalanceAfter:      balance,
		SourceTankID:      m.SourceTankID,
		DestinationTankID: m.DestinationTankID,
		HarvestID:         m.HarvestID,
		AllocationID:      m.AllocationID,
		BottlingID:        m.BottlingID,
		CreatedBy:         m.ActorID,
	}
	if note := strings.TrimSpace(m.Notes); note != "" {
		entry.Notes = &note
	}
	if err := repo.InsertHistory(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert tank history")
	}

	s.metrics.Applied(string(m.Operation), m.Volume)
	return entry, nil
}

func validateMutation(m Mutation) error {
	if m.OrganizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "organization id required")
	}
	if m.TankID == uuid.Nil {
		return pkgerrors.FieldError("tank_id", "tank is required")
	}
	if !m.Operation.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "invalid tank operation %q", m.Operation)
	}
	if m.Volume.IsZero() {
		return pkgerrors.FieldError("volume", "volume change must not be zero")
	}
	if !m.Volume.Equal(m.Volume.Round(VolumeScale)) {
		return pkgerrors.FieldError("volume", "volume must have at most 2 decimal places")
	}
	return nil
}

func balanceDetails(tank *models.Tank, m Mutation) map[string]any {
	return map[string]any{
		"tank_id":        tank.ID,
		"tank":           tank.Name,
		"capacity":       tank.Capacity,
		"current_volume": tank.CurrentVolume,
		"requested":      m.Volume,
	}
}

func (s *service) ListHistory(ctx context.Context, orgID uuid.UUID, filter HistoryFilter, params pagination.Params) ([]HistoryEntry, string, error) {
	rows, err := s.repo.ListHistory(ctx, orgID, filter, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tank history")
	}
	rows, next := pagination.Page(rows, params.Limit, func(row models.TankHistory) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ToHistoryEntry(row))
	}
	return entries, next, nil
}

func (s *service) Reconcile(ctx context.Context, orgID uuid.UUID, fix bool) (*ReconcileReport, error) {
	report := &ReconcileReport{OrganizationID: orgID, Drifts: []Drift{}}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tanks, err := repo.ListTanks(ctx, orgID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tanks")
		}
		sums, err := repo.SumHistoryByTank(ctx, orgID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum tank history")
		}

		report.TanksChecked = len(tanks)
		for _, tank := range tanks {
			total := sums[tank.ID].Round(2)
			current := tank.CurrentVolume.Round(2)
			if current.Equal(total) {
				continue
			}
			drift := Drift{
				TankID:        tank.ID,
				TankName:      tank.Name,
				CurrentVolume: current,
				HistoryTotal:  total,
				Difference:    current.Sub(total),
			}
			if fix {
				if err := repo.UpdateBalance(ctx, tank.ID, total); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fix tank balance")
				}
				drift.Fixed = true
			}
			report.Drifts = append(report.Drifts, drift)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range report.Drifts {
		fields := map[string]any{
			"tank_id":        d.TankID.String(),
			"current_volume": d.CurrentVolume.String(),
			"history_total":  d.HistoryTotal.String(),
			"fixed":          d.Fixed,
		}
		s.logg.Warn(s.logg.WithFields(ctx, fields), "ledger.drift")
	}
	return report, nil
}

// Sum is a convenience for callers that need the signed total of entries.
func Sum(entries []models.TankHistory) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Volume)
	}
	return total
}
