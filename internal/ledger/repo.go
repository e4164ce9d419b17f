package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/repo"
	"github.com/vinco/vinco-backend/pkg/db/models"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

// Repository manages tank balances and their history rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockTank(ctx context.Context, orgID, tankID uuid.UUID) (*models.Tank, error)
	UpdateBalance(ctx context.Context, tankID uuid.UUID, balance decimal.Decimal) error
	InsertHistory(ctx context.Context, entry *models.TankHistory) error
	ListHistory(ctx context.Context, orgID uuid.UUID, filter HistoryFilter, params pagination.Params) ([]models.TankHistory, error)
	ListTanks(ctx context.Context, orgID uuid.UUID) ([]models.Tank, error)
	SumHistoryByTank(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) LockTank(ctx context.Context, orgID, tankID uuid.UUID) (*models.Tank, error) {
	var tank models.Tank
	err := r.ForUpdate(ctx, orgID).Where("id = ?", tankID).Take(&tank).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("tank")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock tank")
	}
	return &tank, nil
}

func (r *repository) UpdateBalance(ctx context.Context, tankID uuid.UUID, balance decimal.Decimal) error {
	return r.DB(ctx).Model(&models.Tank{}).
		Where("id = ?", tankID).
		Update("current_volume", balance).Error
}

func (r *repository) InsertHistory(ctx context.Context, entry *models.TankHistory) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, orgID uuid.UUID, filter HistoryFilter, params pagination.Params) ([]models.TankHistory, error) {
	query := r.Scoped(ctx, orgID)
	if filter.TankID != nil {
		query = query.Where("tank_id = ?", *filter.TankID)
	}
	if filter.Operation != nil {
		query = query.Where("operation_type = ?", *filter.Operation)
	}
	if filter.HarvestID != nil {
		query = query.Where("harvest_id = ?", *filter.HarvestID)
	}
	if filter.BottlingID != nil {
		query = query.Where("bottling_id = ?", *filter.BottlingID)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", *filter.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.TankHistory
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListTanks(ctx context.Context, orgID uuid.UUID) ([]models.Tank, error) {
	var tanks []models.Tank
	err := r.Scoped(ctx, orgID).Order("name ASC").Find(&tanks).Error
	return tanks, err
}

type tankSum struct {
	TankID uuid.UUID
	Total  decimal.Decimal
}

func (r *repository) SumHistoryByTank(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []tankSum
	err := r.Scoped(ctx, orgID).
		Model(&models.TankHistory{}).
		Select("tank_id, COALESCE(SUM(volume), 0) AS total").
		Group("tank_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.TankID] = row.Total
	}
	return sums, nil
}
