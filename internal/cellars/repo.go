package cellars

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/repo"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/models"
)

// Repository persists cellars and tanks. Tank balances are only written by
// the ledger; SaveTank never touches current_volume.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCellar(ctx context.Context, cellar *models.Cellar) error
	GetCellar(ctx context.Context, orgID, id uuid.UUID) (*models.Cellar, error)
	ListCellars(ctx context.Context, orgID uuid.UUID) ([]models.Cellar, error)
	SaveCellar(ctx context.Context, cellar *models.Cellar) error
	DeleteCellar(ctx context.Context, orgID, id uuid.UUID) error
	CellarTotals(ctx context.Context, orgID uuid.UUID, cellarIDs []uuid.UUID) (map[uuid.UUID]CellarTotals, error)

	CreateTank(ctx context.Context, tank *models.Tank) error
	GetTank(ctx context.Context, orgID, id uuid.UUID) (*models.Tank, error)
	ListTanks(ctx context.Context, orgID uuid.UUID, filter TankFilter) ([]models.Tank, error)
	SaveTank(ctx context.Context, tank *models.Tank) error
	DeleteTanks(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error
	CountHistory(ctx context.Context, orgID uuid.UUID, tankIDs []uuid.UUID) (int64, error)
}

// CellarTotals aggregates the tanks of one cellar.
type CellarTotals struct {
	CellarID    uuid.UUID
	Capacity    decimal.Decimal
	TotalVolume decimal.Decimal
	TankCount   int
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

func (r *repository) CreateCellar(ctx context.Context, cellar *models.Cellar) error {
	return db.MapError(r.DB(ctx).Create(cellar).Error, "cellar")
}

func (r *repository) GetCellar(ctx context.Context, orgID, id uuid.UUID) (*models.Cellar, error) {
	var cellar models.Cellar
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&cellar).Error; err != nil {
		return nil, db.MapError(err, "cellar")
	}
	return &cellar, nil
}

func (r *repository) ListCellars(ctx context.Context, orgID uuid.UUID) ([]models.Cellar, error) {
	var cellars []models.Cellar
	err := r.Scoped(ctx, orgID).Order("name ASC").Find(&cellars).Error
	return cellars, db.MapError(err, "cellar")
}

func (r *repository) SaveCellar(ctx context.Context, cellar *models.Cellar) error {
	return db.MapError(r.DB(ctx).Save(cellar).Error, "cellar")
}

func (r *repository) DeleteCellar(ctx context.Context, orgID, id uuid.UUID) error {
	return db.MapError(r.Scoped(ctx, orgID).Where("id = ?", id).Delete(&models.Cellar{}).Error, "cellar")
}

func (r *repository) CellarTotals(ctx context.Context, orgID uuid.UUID, cellarIDs []uuid.UUID) (map[uuid.UUID]CellarTotals, error) {
	totals := make(map[uuid.UUID]CellarTotals, len(cellarIDs))
	if len(cellarIDs) == 0 {
		return totals, nil
	}
	var rows []CellarTotals
	err := r.Scoped(ctx, orgID).
		Model(&models.Tank{}).
		Select("cellar_id, COALESCE(SUM(capacity), 0) AS capacity, COALESCE(SUM(current_volume), 0) AS total_volume, COUNT(*) AS tank_count").
		Where("cellar_id IN ?", cellarIDs).
		Group("cellar_id").
		Scan(&rows).Error
	if err != nil {
		return nil, db.MapError(err, "tank")
	}
	for _, row := range rows {
		totals[row.CellarID] = row
	}
	return totals, nil
}

func (r *repository) CreateTank(ctx context.Context, tank *models.Tank) error {
	return db.MapError(r.DB(ctx).Create(tank).Error, "tank")
}

func (r *repository) GetTank(ctx context.Context, orgID, id uuid.UUID) (*models.Tank, error) {
	var tank models.Tank
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&tank).Error; err != nil {
		return nil, db.MapError(err, "tank")
	}
	return &tank, nil
}

func (r *repository) ListTanks(ctx context.Context, orgID uuid.UUID, filter TankFilter) ([]models.Tank, error) {
	query := r.Scoped(ctx, orgID)
	if filter.CellarID != nil {
		query = query.Where("cellar_id = ?", *filter.CellarID)
	}
	if filter.Type != nil {
		query = query.Where("tank_type = ?", *filter.Type)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var tanks []models.Tank
	err := query.Order("name ASC").Find(&tanks).Error
	return tanks, db.MapError(err, "tank")
}

func (r *repository) SaveTank(ctx context.Context, tank *models.Tank) error {
	err := r.DB(ctx).Model(tank).Select("cellar_id", "name", "tank_type", "capacity", "notes", "updated_at").Updates(tank).Error
	return db.MapError(err, "tank")
}

func (r *repository) DeleteTanks(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.MapError(r.Scoped(ctx, orgID).Where("id IN ?", ids).Delete(&models.Tank{}).Error, "tank")
}

func (r *repository) CountHistory(ctx context.Context, orgID uuid.UUID, tankIDs []uuid.UUID) (int64, error) {
	if len(tankIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.Scoped(ctx, orgID).Model(&models.TankHistory{}).Where("tank_id IN ?", tankIDs).Count(&count).Error
	return count, db.MapError(err, "tank history")
}
