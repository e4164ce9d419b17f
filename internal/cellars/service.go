package cellars

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

// Service manages cellars and tanks and moves wine between tanks.
type Service interface {
	CreateCellar(ctx context.Context, orgID uuid.UUID, input CreateCellarInput) (*Cellar, error)
	GetCellar(ctx context.Context, orgID, id uuid.UUID) (*Cellar, error)
	ListCellars(ctx context.Context, orgID uuid.UUID) ([]Cellar, error)
	UpdateCellar(ctx context.Context, orgID, id uuid.UUID, input UpdateCellarInput) (*Cellar, error)
	DeleteCellar(ctx context.Context, orgID, id uuid.UUID) error

	CreateTank(ctx context.Context, orgID uuid.UUID, input CreateTankInput) (*Tank, error)
	GetTank(ctx context.Context, orgID, id uuid.UUID) (*Tank, error)
	ListTanks(ctx context.Context, orgID uuid.UUID, filter TankFilter) ([]Tank, error)
	UpdateTank(ctx context.Context, orgID, id uuid.UUID, input UpdateTankInput) (*Tank, error)
	DeleteTank(ctx context.Context, orgID, id uuid.UUID) error
	TankHistory(ctx context.Context, orgID, tankID uuid.UUID, params pagination.Params) ([]ledger.HistoryEntry, string, error)

	Transfer(ctx context.Context, orgID, actorID uuid.UUID, input TransferInput) (*TransferResult, error)
	Adjust(ctx context.Context, orgID, actorID uuid.UUID, input AdjustmentInput) (*ledger.HistoryEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	ledger ledger.Service
	tx     txRunner
}

func NewService(repo Repository, ledgerSvc ledger.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cellar repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, ledger: ledgerSvc, tx: tx}, nil
}

func (s *service) CreateCellar(ctx context.Context, orgID uuid.UUID, input CreateCellarInput) (*Cellar, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.FieldError("name", "name is required")
	}
	cellar := &models.Cellar{
		OrganizationID: orgID,
		Name:           name,
		Location:       trimmed(input.Location),
		Notes:          trimmed(input.Notes),
	}
	if err := s.repo.CreateCellar(ctx, cellar); err != nil {
		return nil, err
	}
	out := toCellar(*cellar, CellarTotals{})
	return &out, nil
}

func (s *service) GetCellar(ctx context.Context, orgID, id uuid.UUID) (*Cellar, error) {
	cellar, err := s.repo.GetCellar(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.CellarTotals(ctx, orgID, []uuid.UUID{cellar.ID})
	if err != nil {
		return nil, err
	}
	out := toCellar(*cellar, totals[cellar.ID])
	return &out, nil
}

func (s *service) ListCellars(ctx context.Context, orgID uuid.UUID) ([]Cellar, error) {
	rows, err := s.repo.ListCellars(ctx, orgID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	totals, err := s.repo.CellarTotals(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Cellar, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCellar(row, totals[row.ID]))
	}
	return out, nil
}

func (s *service) UpdateCellar(ctx context.Context, orgID, id uuid.UUID, input UpdateCellarInput) (*Cellar, error) {
	cellar, err := s.repo.GetCellar(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.FieldError("name", "name is required")
		}
		cellar.Name = name
	}
	if input.Location != nil {
		cellar.Location = trimmed(input.Location)
	}
	if input.Notes != nil {
		cellar.Notes = trimmed(input.Notes)
	}
	if err := s.repo.SaveCellar(ctx, cellar); err != nil {
		return nil, err
	}
	return s.GetCellar(ctx, orgID, id)
}

// DeleteCellar removes a cellar together with its empty tanks. Tanks that
// hold wine or carry history keep the cellar alive.
func (s *service) DeleteCellar(ctx context.Context, orgID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetCellar(ctx, orgID, id); err != nil {
			return err
		}
		tanks, err := repo.ListTanks(ctx, orgID, TankFilter{CellarID: &id})
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(tanks))
		for _, tank := range tanks {
			if tank.CurrentVolume.IsPositive() {
				return pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
					"cannot delete cellar: tank %s still holds %sL", tank.Name, tank.CurrentVolume.StringFixed(2))
			}
			ids = append(ids, tank.ID)
		}
		count, err := repo.CountHistory(ctx, orgID, ids)
		if err != nil {
			return err
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "cannot delete cellar: its tanks have recorded history")
		}
		if err := repo.DeleteTanks(ctx, orgID, ids); err != nil {
			return err
		}
		return repo.DeleteCellar(ctx, orgID, id)
	})
}

func (s *service) CreateTank(ctx context.Context, orgID uuid.UUID, input CreateTankInput) (*Tank, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.FieldError("name", "name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.FieldError("tank_type", "invalid tank type")
	}
	if !input.Capacity.IsPositive() {
		return nil, pkgerrors.FieldError("capacity", "capacity must be greater than zero")
	}
	if _, err := s.repo.GetCellar(ctx, orgID, input.CellarID); err != nil {
		return nil, err
	}
	tank := &models.Tank{
		OrganizationID: orgID,
		CellarID:       input.CellarID,
		Name:           name,
		Type:           input.Type,
		Capacity:       input.Capacity,
		CurrentVolume:  decimal.Zero,
		Notes:          trimmed(input.Notes),
	}
	if err := s.repo.CreateTank(ctx, tank); err != nil {
		return nil, err
	}
	out := toTank(*tank)
	return &out, nil
}

func (s *service) GetTank(ctx context.Context, orgID, id uuid.UUID) (*Tank, error) {
	tank, err := s.repo.GetTank(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	out := toTank(*tank)
	return &out, nil
}

func (s *service) ListTanks(ctx context.Context, orgID uuid.UUID, filter TankFilter) ([]Tank, error) {
	rows, err := s.repo.ListTanks(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Tank, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTank(row))
	}
	return out, nil
}

func (s *service) UpdateTank(ctx context.Context, orgID, id uuid.UUID, input UpdateTankInput) (*Tank, error) {
	var out Tank
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tank, err := repo.GetTank(ctx, orgID, id)
		if err != nil {
			return err
		}
		if input.CellarID != nil && *input.CellarID != tank.CellarID {
			if _, err := repo.GetCellar(ctx, orgID, *input.CellarID); err != nil {
				return err
			}
			tank.CellarID = *input.CellarID
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.FieldError("name", "name is required")
			}
			tank.Name = name
		}
		if input.Type != nil {
			if !input.Type.IsValid() {
				return pkgerrors.FieldError("tank_type", "invalid tank type")
			}
			tank.Type = *input.Type
		}
		if input.Capacity != nil {
			if !input.Capacity.IsPositive() {
				return pkgerrors.FieldError("capacity", "capacity must be greater than zero")
			}
			if input.Capacity.LessThan(tank.CurrentVolume) {
				return pkgerrors.FieldError("capacity", "tank capacity cannot be reduced below current volume")
			}
			tank.Capacity = *input.Capacity
		}
		if input.Notes != nil {
			tank.Notes = trimmed(input.Notes)
		}
		if err := repo.SaveTank(ctx, tank); err != nil {
			return err
		}
		out = toTank(*tank)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) DeleteTank(ctx context.Context, orgID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tank, err := repo.GetTank(ctx, orgID, id)
		if err != nil {
			return err
		}
		if tank.CurrentVolume.IsPositive() {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
				"cannot delete tank %s while it holds %sL", tank.Name, tank.CurrentVolume.StringFixed(2))
		}
		count, err := repo.CountHistory(ctx, orgID, []uuid.UUID{tank.ID})
		if err != nil {
			return err
		}
		if count > 0 {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "cannot delete tank %s: it has recorded history", tank.Name)
		}
		return repo.DeleteTanks(ctx, orgID, []uuid.UUID{tank.ID})
	})
}

func (s *service) TankHistory(ctx context.Context, orgID, tankID uuid.UUID, params pagination.Params) ([]ledger.HistoryEntry, string, error) {
	if _, err := s.repo.GetTank(ctx, orgID, tankID); err != nil {
		return nil, "", err
	}
	return s.ledger.ListHistory(ctx, orgID, ledger.HistoryFilter{TankID: &tankID}, params)
}

func (s *service) Transfer(ctx context.Context, orgID, actorID uuid.UUID, input TransferInput) (*TransferResult, error) {
	if input.SourceTankID == uuid.Nil {
		return nil, pkgerrors.FieldError("source_tank_id", "source tank is required")
	}
	if input.DestinationTankID == uuid.Nil {
		return nil, pkgerrors.FieldError("destination_tank_id", "destination tank is required")
	}
	if input.SourceTankID == input.DestinationTankID {
		return nil, pkgerrors.FieldError("destination_tank_id", "source and destination tanks must be different")
	}
	if !input.Volume.IsPositive() {
		return nil, pkgerrors.FieldError("volume", "volume must be greater than zero")
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	src, dst := input.SourceTankID, input.DestinationTankID
	actor := actorRef(actorID)

	var result TransferResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := repo.GetTank(ctx, orgID, src)
		if err != nil {
			return err
		}
		destination, err := repo.GetTank(ctx, orgID, dst)
		if err != nil {
			return err
		}
		if input.Volume.GreaterThan(source.CurrentVolume) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
				"insufficient volume in %s: %sL available", source.Name, source.CurrentVolume.StringFixed(2)).
				WithDetails(map[string]string{"volume": "exceeds source tank volume"})
		}
		if input.Volume.GreaterThan(destination.AvailableCapacity()) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
				"not enough space in %s: %sL free", destination.Name, destination.AvailableCapacity().StringFixed(2)).
				WithDetails(map[string]string{"volume": "exceeds destination free capacity"})
		}

		notes := strings.TrimSpace(input.Notes)
		if notes == "" {
			notes = fmt.Sprintf("Transfer of %sL from %s to %s", input.Volume.StringFixed(2), source.Name, destination.Name)
		}

		// Lock in a stable order so concurrent opposite transfers cannot deadlock.
		steps := []ledger.Mutation{
			{
				OrganizationID:    orgID,
				TankID:            src,
				Operation:         enums.TankOperationTransferOut,
				Volume:            input.Volume.Neg(),
				Date:              date,
				SourceTankID:      &src,
				DestinationTankID: &dst,
				Notes:             notes,
				ActorID:           actor,
			},
			{
				OrganizationID:    orgID,
				TankID:            dst,
				Operation:         enums.TankOperationTransferIn,
				Volume:            input.Volume,
				Date:              date,
				SourceTankID:      &src,
				DestinationTankID: &dst,
				Notes:             notes,
				ActorID:           actor,
			},
		}
		if dst.String() < src.String() {
			steps[0], steps[1] = steps[1], steps[0]
		}
		for _, step := range steps {
			entry, err := s.ledger.Apply(ctx, tx, step)
			if err != nil {
				return err
			}
			if step.Operation == enums.TankOperationTransferOut {
				result.Out = ledger.ToHistoryEntry(*entry)
			} else {
				result.In = ledger.ToHistoryEntry(*entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Adjust(ctx context.Context, orgID, actorID uuid.UUID, input AdjustmentInput) (*ledger.HistoryEntry, error) {
	if input.TankID == uuid.Nil {
		return nil, pkgerrors.FieldError("tank_id", "tank is required")
	}
	if input.Volume.IsZero() {
		return nil, pkgerrors.FieldError("volume", "adjustment volume must not be zero")
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		return nil, pkgerrors.FieldError("notes", "a note explaining the adjustment is required")
	}

	var out ledger.HistoryEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := s.ledger.Apply(ctx, tx, ledger.Mutation{
			OrganizationID: orgID,
			TankID:         input.TankID,
			Operation:      enums.TankOperationAdjustment,
			Volume:         input.Volume,
			Date:           input.Date,
			Notes:          notes,
			ActorID:        actorRef(actorID),
		})
		if err != nil {
			return err
		}
		out = ledger.ToHistoryEntry(*entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func toCellar(m models.Cellar, totals CellarTotals) Cellar {
	return Cellar{
		ID:                m.ID,
		Name:              m.Name,
		Location:          m.Location,
		Notes:             m.Notes,
		Capacity:          totals.Capacity,
		TotalVolume:       totals.TotalVolume,
		AvailableCapacity: totals.Capacity.Sub(totals.TotalVolume),
		TankCount:         totals.TankCount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func actorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
