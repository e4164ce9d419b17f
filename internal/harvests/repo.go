package harvests

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/repo"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateHarvest(ctx context.Context, harvest *models.Harvest) error
	GetHarvest(ctx context.Context, orgID, id uuid.UUID) (*models.Harvest, error)
	LockHarvest(ctx context.Context, orgID, id uuid.UUID) (*models.Harvest, error)
	ListHarvests(ctx context.Context, orgID uuid.UUID, filter HarvestFilter) ([]models.Harvest, error)
	SaveHarvest(ctx context.Context, harvest *models.Harvest) error
	DeleteHarvest(ctx context.Context, orgID, id uuid.UUID) error
	VineyardNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)

	AllocatedTotals(ctx context.Context, orgID uuid.UUID, harvestIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	AllocatedExcluding(ctx context.Context, orgID, harvestID, excludeID uuid.UUID) (decimal.Decimal, error)
	CreateAllocation(ctx context.Context, allocation *models.HarvestAllocation) error
	GetAllocation(ctx context.Context, orgID, harvestID, id uuid.UUID) (*models.HarvestAllocation, error)
	ListAllocations(ctx context.Context, orgID, harvestID uuid.UUID) ([]models.HarvestAllocation, error)
	SaveAllocation(ctx context.Context, allocation *models.HarvestAllocation) error
	DeleteAllocations(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error
}

type repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) CreateHarvest(ctx context.Context, harvest *models.Harvest) error {
	return db.MapError(r.DB(ctx).Create(harvest).Error, "harvest")
}

func (r *repository) GetHarvest(ctx context.Context, orgID, id uuid.UUID) (*models.Harvest, error) {
	var harvest models.Harvest
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&harvest).Error; err != nil {
		return nil, db.MapError(err, "harvest")
	}
	return &harvest, nil
}

// LockHarvest serialises allocation changes against the same harvest.
func (r *repository) LockHarvest(ctx context.Context, orgID, id uuid.UUID) (*models.Harvest, error) {
	var harvest models.Harvest
	if err := r.ForUpdate(ctx, orgID).Where("id = ?", id).Take(&harvest).Error; err != nil {
		return nil, db.MapError(err, "harvest")
	}
	return &harvest, nil
}

func (r *repository) ListHarvests(ctx context.Context, orgID uuid.UUID, filter HarvestFilter) ([]models.Harvest, error) {
	q := r.Scoped(ctx, orgID)
	if filter.VineyardID != nil {
		q = q.Where("vineyard_id = ?", *filter.VineyardID)
	}
	if filter.DateFrom != nil {
		q = q.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("date <= ?", *filter.DateTo)
	}
	if filter.Pressed != nil {
		if *filter.Pressed {
			q = q.Where("juice_yield IS NOT NULL")
		} else {
			q = q.Where("juice_yield IS NULL")
		}
	}
	var harvests []models.Harvest
	err := q.Order("date DESC").Order("created_at DESC").Find(&harvests).Error
	return harvests, db.MapError(err, "harvest")
}

func (r *repository) SaveHarvest(ctx context.Context, harvest *models.Harvest) error {
	return db.MapError(r.DB(ctx).Save(harvest).Error, "harvest")
}

func (r *repository) DeleteHarvest(ctx context.Context, orgID, id uuid.UUID) error {
	return db.MapError(r.Scoped(ctx, orgID).Where("id = ?", id).Delete(&models.Harvest{}).Error, "harvest")
}

func (r *repository) VineyardNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.Vineyard
	if err := r.Scoped(ctx, orgID).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, db.MapError(err, "vineyard")
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

type allocatedSum struct {
	HarvestID uuid.UUID
	Total     decimal.Decimal
}

func (r *repository) AllocatedTotals(ctx context.Context, orgID uuid.UUID, harvestIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals := make(map[uuid.UUID]decimal.Decimal, len(harvestIDs))
	if len(harvestIDs) == 0 {
		return totals, nil
	}
	var rows []allocatedSum
	err := r.Scoped(ctx, orgID).
		Model(&models.HarvestAllocation{}).
		Select("harvest_id, COALESCE(SUM(allocated_volume), 0) AS total").
		Where("harvest_id IN ?", harvestIDs).
		Group("harvest_id").
		Scan(&rows).Error
	if err != nil {
		return nil, db.MapError(err, "allocation")
	}
	for _, row := range rows {
		totals[row.HarvestID] = row.Total
	}
	return totals, nil
}

func (r *repository) AllocatedExcluding(ctx context.Context, orgID, harvestID, excludeID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.Scoped(ctx, orgID).
		Model(&models.HarvestAllocation{}).
		Select("COALESCE(SUM(allocated_volume), 0) AS total").
		Where("harvest_id = ? AND id <> ?", harvestID, excludeID).
		Scan(&row).Error
	return row.Total, db.MapError(err, "allocation")
}

func (r *repository) CreateAllocation(ctx context.Context, allocation *models.HarvestAllocation) error {
	return db.MapError(r.DB(ctx).Create(allocation).Error, "allocation")
}

func (r *repository) GetAllocation(ctx context.Context, orgID, harvestID, id uuid.UUID) (*models.HarvestAllocation, error) {
	var allocation models.HarvestAllocation
	err := r.Scoped(ctx, orgID).Where("harvest_id = ? AND id = ?", harvestID, id).Take(&allocation).Error
	if err != nil {
		return nil, db.MapError(err, "allocation")
	}
	return &allocation, nil
}

func (r *repository) ListAllocations(ctx context.Context, orgID, harvestID uuid.UUID) ([]models.HarvestAllocation, error) {
	var rows []models.HarvestAllocation
	err := r.Scoped(ctx, orgID).
		Where("harvest_id = ?", harvestID).
		Order("allocation_date DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, db.MapError(err, "allocation")
}

func (r *repository) SaveAllocation(ctx context.Context, allocation *models.HarvestAllocation) error {
	return db.MapError(r.DB(ctx).Save(allocation).Error, "allocation")
}

func (r *repository) DeleteAllocations(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.MapError(r.Scoped(ctx, orgID).Where("id IN ?", ids).Delete(&models.HarvestAllocation{}).Error, "allocation")
}
