package harvests

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
)

// Service records harvests and distributes their juice into tanks. Every
// allocation change goes through the ledger so tank balances and history
// stay in step.
type Service interface {
	CreateHarvest(ctx context.Context, orgID uuid.UUID, input HarvestInput) (*Harvest, error)
	GetHarvest(ctx context.Context, orgID, id uuid.UUID) (*Harvest, error)
	ListHarvests(ctx context.Context, orgID uuid.UUID, filter HarvestFilter) ([]Harvest, error)
	UpdateHarvest(ctx context.Context, orgID, id uuid.UUID, input HarvestInput) (*Harvest, error)
	DeleteHarvest(ctx context.Context, orgID, actorID, id uuid.UUID) error

	CreateAllocation(ctx context.Context, orgID, actorID, harvestID uuid.UUID, input AllocationInput) (*Allocation, error)
	ListAllocations(ctx context.Context, orgID, harvestID uuid.UUID) ([]Allocation, error)
	UpdateAllocation(ctx context.Context, orgID, actorID, harvestID, allocationID uuid.UUID, input AllocationUpdate) (*Allocation, error)
	DeleteAllocation(ctx context.Context, orgID, actorID, harvestID, allocationID uuid.UUID) error
}

type vineyardLookup interface {
	GetVineyard(ctx context.Context, orgID, id uuid.UUID) (*models.Vineyard, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      Repository
	vineyards vineyardLookup
	ledger    ledger.Service
	tx        txRunner
}

func NewService(repo Repository, vineyards vineyardLookup, ledgerSvc ledger.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "harvest repository required")
	}
	if vineyards == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vineyard lookup required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, vineyards: vineyards, ledger: ledgerSvc, tx: tx}, nil
}

func (s *service) CreateHarvest(ctx context.Context, orgID uuid.UUID, input HarvestInput) (*Harvest, error) {
	if err := validateHarvest(input); err != nil {
		return nil, err
	}
	if _, err := s.vineyards.GetVineyard(ctx, orgID, input.VineyardID); err != nil {
		return nil, err
	}
	harvest := &models.Harvest{OrganizationID: orgID}
	applyHarvest(harvest, input)
	if err := s.repo.CreateHarvest(ctx, harvest); err != nil {
		return nil, err
	}
	return s.GetHarvest(ctx, orgID, harvest.ID)
}

func (s *service) GetHarvest(ctx context.Context, orgID, id uuid.UUID) (*Harvest, error) {
	harvest, err := s.repo.GetHarvest(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	out, err := s.decorate(ctx, orgID, []models.Harvest{*harvest})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) ListHarvests(ctx context.Context, orgID uuid.UUID, filter HarvestFilter) ([]Harvest, error) {
	rows, err := s.repo.ListHarvests(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, orgID, rows)
}

func (s *service) UpdateHarvest(ctx context.Context, orgID, id uuid.UUID, input HarvestInput) (*Harvest, error) {
	if err := validateHarvest(input); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		harvest, err := repo.LockHarvest(ctx, orgID, id)
		if err != nil {
			return err
		}
		if input.VineyardID != harvest.VineyardID {
			if _, err := s.vineyards.GetVineyard(ctx, orgID, input.VineyardID); err != nil {
				return err
			}
		}
		totals, err := repo.AllocatedTotals(ctx, orgID, []uuid.UUID{id})
		if err != nil {
			return err
		}
		allocated := totals[id]
		if allocated.IsPositive() {
			if !input.JuiceYield.Valid || input.JuiceYield.Decimal.LessThan(allocated) {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"juice yield cannot be lower than the already allocated %sL", allocated.StringFixed(2)).
					WithDetails(map[string]string{"juice_yield": "below allocated volume"})
			}
		}
		applyHarvest(harvest, input)
		return repo.SaveHarvest(ctx, harvest)
	})
	if err != nil {
		return nil, err
	}
	return s.GetHarvest(ctx, orgID, id)
}

// DeleteHarvest drains every allocation back out of its tank before the
// harvest disappears. A tank that no longer holds the juice blocks the delete.
func (s *service) DeleteHarvest(ctx context.Context, orgID, actorID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		harvest, err := repo.LockHarvest(ctx, orgID, id)
		if err != nil {
			return err
		}
		allocations, err := repo.ListAllocations(ctx, orgID, harvest.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(allocations))
		for _, a := range allocations {
			if err := s.reverse(ctx, tx, orgID, actorID, a, fmt.Sprintf("Deleted allocation of %sL (harvest removed)", a.AllocatedVolume.StringFixed(2))); err != nil {
				return err
			}
			ids = append(ids, a.ID)
		}
		if err := repo.DeleteAllocations(ctx, orgID, ids); err != nil {
			return err
		}
		return repo.DeleteHarvest(ctx, orgID, harvest.ID)
	})
}

func (s *service) CreateAllocation(ctx context.Context, orgID, actorID, harvestID uuid.UUID, input AllocationInput) (*Allocation, error) {
	if input.TankID == uuid.Nil {
		return nil, pkgerrors.FieldError("tank_id", "tank is required")
	}
	if !input.Volume.IsPositive() {
		return nil, pkgerrors.FieldError("allocated_volume", "allocated volume must be a positive number")
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.FieldError("allocation_date", "allocation date is required")
	}

	var out Allocation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		harvest, err := repo.LockHarvest(ctx, orgID, harvestID)
		if err != nil {
			return err
		}
		if err := s.checkRemaining(ctx, repo, harvest, uuid.Nil, input.Volume); err != nil {
			return err
		}

		allocation := &models.HarvestAllocation{
			OrganizationID:  orgID,
			HarvestID:       harvest.ID,
			TankID:          input.TankID,
			AllocatedVolume: input.Volume,
			AllocationDate:  input.Date,
			Notes:           trimmed(input.Notes),
		}
		if err := repo.CreateAllocation(ctx, allocation); err != nil {
			return err
		}
		if err := s.apply(ctx, tx, orgID, actorID, *allocation, allocation.TankID, input.Volume, deref(allocation.Notes)); err != nil {
			return err
		}
		out = toAllocation(*allocation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) ListAllocations(ctx context.Context, orgID, harvestID uuid.UUID) ([]Allocation, error) {
	if _, err := s.repo.GetHarvest(ctx, orgID, harvestID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAllocations(ctx, orgID, harvestID)
	if err != nil {
		return nil, err
	}
	out := make([]Allocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAllocation(row))
	}
	return out, nil
}

// UpdateAllocation re-checks the harvest's remaining juice without counting
// the allocation itself. A volume change on the same tank is one history row;
// moving to another tank drains the old one and fills the new one.
func (s *service) UpdateAllocation(ctx context.Context, orgID, actorID, harvestID, allocationID uuid.UUID, input AllocationUpdate) (*Allocation, error) {
	var out Allocation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		harvest, err := repo.LockHarvest(ctx, orgID, harvestID)
		if err != nil {
			return err
		}
		allocation, err := repo.GetAllocation(ctx, orgID, harvest.ID, allocationID)
		if err != nil {
			return err
		}

		oldTank, oldVolume := allocation.TankID, allocation.AllocatedVolume
		newTank, newVolume := oldTank, oldVolume
		if input.TankID != nil {
			newTank = *input.TankID
		}
		if input.Volume != nil {
			if !input.Volume.IsPositive() {
				return pkgerrors.FieldError("allocated_volume", "allocated volume must be a positive number")
			}
			newVolume = *input.Volume
		}
		if input.Date != nil {
			if input.Date.IsZero() {
				return pkgerrors.FieldError("allocation_date", "allocation date is required")
			}
			allocation.AllocationDate = *input.Date
		}
		if input.Notes != nil {
			allocation.Notes = trimmed(input.Notes)
		}

		if err := s.checkRemaining(ctx, repo, harvest, allocation.ID, newVolume); err != nil {
			return err
		}

		switch {
		case newTank != oldTank:
			note := fmt.Sprintf("Allocation of %sL moved to another tank", oldVolume.StringFixed(2))
			if err := s.apply(ctx, tx, orgID, actorID, *allocation, oldTank, oldVolume.Neg(), note); err != nil {
				return err
			}
			note = fmt.Sprintf("Allocation of %sL moved from another tank", newVolume.StringFixed(2))
			if err := s.apply(ctx, tx, orgID, actorID, *allocation, newTank, newVolume, note); err != nil {
				return err
			}
		case !newVolume.Equal(oldVolume):
			note := fmt.Sprintf("Updated allocation from %sL to %sL", oldVolume.StringFixed(2), newVolume.StringFixed(2))
			if err := s.apply(ctx, tx, orgID, actorID, *allocation, oldTank, newVolume.Sub(oldVolume), note); err != nil {
				return err
			}
		}

		allocation.TankID = newTank
		allocation.AllocatedVolume = newVolume
		if err := repo.SaveAllocation(ctx, allocation); err != nil {
			return err
		}
		out = toAllocation(*allocation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) DeleteAllocation(ctx context.Context, orgID, actorID, harvestID, allocationID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		harvest, err := repo.LockHarvest(ctx, orgID, harvestID)
		if err != nil {
			return err
		}
		allocation, err := repo.GetAllocation(ctx, orgID, harvest.ID, allocationID)
		if err != nil {
			return err
		}
		note := fmt.Sprintf("Deleted allocation of %sL", allocation.AllocatedVolume.StringFixed(2))
		if err := s.reverse(ctx, tx, orgID, actorID, *allocation, note); err != nil {
			return err
		}
		return repo.DeleteAllocations(ctx, orgID, []uuid.UUID{allocation.ID})
	})
}

func (s *service) checkRemaining(ctx context.Context, repo Repository, harvest *models.Harvest, exclude uuid.UUID, volume decimal.Decimal) error {
	if !harvest.JuiceYield.Valid {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "harvest has no juice yield recorded; record pressing first")
	}
	allocated, err := repo.AllocatedExcluding(ctx, harvest.OrganizationID, harvest.ID, exclude)
	if err != nil {
		return err
	}
	remaining := RemainingJuice(*harvest, allocated)
	if volume.GreaterThan(remaining) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidOperation,
			"cannot allocate more than available juice. Available: %sL", remaining.StringFixed(2)).
			WithDetails(map[string]string{"allocated_volume": "exceeds remaining juice"})
	}
	return nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, orgID, actorID uuid.UUID, a models.HarvestAllocation, tankID uuid.UUID, volume decimal.Decimal, note string) error {
	harvestID, allocationID := a.HarvestID, a.ID
	var actor *uuid.UUID
	if actorID != uuid.Nil {
		actor = &actorID
	}
	_, err := s.ledger.Apply(ctx, tx, ledger.Mutation{
		OrganizationID:    orgID,
		TankID:            tankID,
		Operation:         enums.TankOperationAllocation,
		Volume:            volume,
		Date:              a.AllocationDate,
		DestinationTankID: &tankID,
		HarvestID:         &harvestID,
		AllocationID:      &allocationID,
		Notes:             note,
		ActorID:           actor,
	})
	return err
}

func (s *service) reverse(ctx context.Context, tx *gorm.DB, orgID, actorID uuid.UUID, a models.HarvestAllocation, note string) error {
	return s.apply(ctx, tx, orgID, actorID, a, a.TankID, a.AllocatedVolume.Neg(), note)
}

func (s *service) decorate(ctx context.Context, orgID uuid.UUID, rows []models.Harvest) ([]Harvest, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	vineyardIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
		vineyardIDs = append(vineyardIDs, row.VineyardID)
	}
	totals, err := s.repo.AllocatedTotals(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	names, err := s.repo.VineyardNames(ctx, orgID, vineyardIDs)
	if err != nil {
		return nil, err
	}
	out := make([]Harvest, 0, len(rows))
	for _, row := range rows {
		out = append(out, toHarvest(row, totals[row.ID], names[row.VineyardID]))
	}
	return out, nil
}

func validateHarvest(input HarvestInput) error {
	if input.VineyardID == uuid.Nil {
		return pkgerrors.FieldError("vineyard_id", "vineyard is required")
	}
	if input.Date.IsZero() {
		return pkgerrors.FieldError("date", "harvest date is required")
	}
	if !input.Quantity.IsPositive() {
		return pkgerrors.FieldError("quantity", "quantity must be greater than zero")
	}
	if input.PricePerKg.Valid && input.PricePerKg.Decimal.IsNegative() {
		return pkgerrors.FieldError("price_per_kg", "price cannot be negative")
	}
	if input.VATPerKg.Valid && (input.VATPerKg.Decimal.IsNegative() || input.VATPerKg.Decimal.GreaterThan(hundred)) {
		return pkgerrors.FieldError("vat_per_kg", "VAT must be a percentage between 0 and 100")
	}
	if input.JuiceYield.Valid && input.JuiceYield.Decimal.IsNegative() {
		return pkgerrors.FieldError("juice_yield", "juice yield cannot be negative")
	}
	if input.JuiceYield.Valid && !input.JuiceYield.Decimal.Equal(input.JuiceYield.Decimal.Round(ledger.VolumeScale)) {
		return pkgerrors.FieldError("juice_yield", "juice yield must have at most 2 decimal places")
	}
	if input.CrushingDate != nil && input.CrushingDate.Before(input.Date) {
		return pkgerrors.FieldError("crushing_date", "crushing date cannot be before harvest date")
	}
	return nil
}

func applyHarvest(m *models.Harvest, input HarvestInput) {
	m.VineyardID = input.VineyardID
	m.Date = input.Date
	m.Quantity = input.Quantity
	m.PricePerKg = input.PricePerKg
	m.VATPerKg = input.VATPerKg
	m.Notes = trimmed(input.Notes)
	m.CrushingDate = input.CrushingDate
	m.JuiceYield = input.JuiceYield
	m.PressingNotes = trimmed(input.PressingNotes)
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

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
