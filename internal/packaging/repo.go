package packaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/repo"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

// ErrInsufficientStock is returned by AdjustStock when a decrement would
// take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateMaterial(ctx context.Context, kind enums.MaterialKind, material any) error
	GetMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID, dest any) error
	ListMaterials(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, lowOnly bool, dest any) error
	SaveMaterial(ctx context.Context, kind enums.MaterialKind, material any) error
	DeleteMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, material any) error
	AdjustStock(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID, delta int) error
	CountBottlingsUsing(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) (int64, error)

	CreateBottling(ctx context.Context, bottling *models.Bottling) error
	GetBottling(ctx context.Context, orgID, id uuid.UUID) (*models.Bottling, error)
	LockBottling(ctx context.Context, orgID, id uuid.UUID) (*models.Bottling, error)
	ListBottlings(ctx context.Context, orgID uuid.UUID, filter BottlingFilter, params pagination.Params) ([]models.Bottling, error)
	SaveBottling(ctx context.Context, bottling *models.Bottling) error
}

var (
	materialTables = map[enums.MaterialKind]string{
		enums.MaterialKindBottle:  "bottles",
		enums.MaterialKindClosure: "closures",
		enums.MaterialKindLabel:   "labels",
		enums.MaterialKindBox:     "boxes",
	}
	bottlingColumns = map[enums.MaterialKind]string{
		enums.MaterialKindBottle:  "bottle_id",
		enums.MaterialKindClosure: "closure_id",
		enums.MaterialKindLabel:   "label_id",
		enums.MaterialKindBox:     "box_id",
	}
)

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

func (r *repository) CreateMaterial(ctx context.Context, kind enums.MaterialKind, material any) error {
	return db.MapError(r.DB(ctx).Create(material).Error, string(kind))
}

func (r *repository) GetMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID, dest any) error {
	return db.MapError(r.Scoped(ctx, orgID).Where("id = ?", id).Take(dest).Error, string(kind))
}

func (r *repository) ListMaterials(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, lowOnly bool, dest any) error {
	q := r.Scoped(ctx, orgID)
	if lowOnly {
		q = q.Where("stock <= minimum_stock")
	}
	return db.MapError(q.Order("name ASC").Find(dest).Error, string(kind))
}

func (r *repository) SaveMaterial(ctx context.Context, kind enums.MaterialKind, material any) error {
	return db.MapError(r.DB(ctx).Save(material).Error, string(kind))
}

func (r *repository) DeleteMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, material any) error {
	res := r.Scoped(ctx, orgID).Delete(material)
	if res.Error != nil {
		return db.MapError(res.Error, string(kind))
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NotFound(string(kind))
	}
	return nil
}

// AdjustStock adds delta to a material's stock in a single conditional
// statement. Decrements only apply while enough stock remains.
func (r *repository) AdjustStock(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID, delta int) error {
	table, ok := materialTables[kind]
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown material kind %q", kind)
	}
	if delta == 0 {
		return nil
	}
	q := r.Scoped(ctx, orgID).Table(table).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return db.MapError(res.Error, string(kind))
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.Scoped(ctx, orgID).Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return db.MapError(err, string(kind))
	}
	if count == 0 {
		return pkgerrors.NotFound(string(kind))
	}
	return ErrInsufficientStock
}

func (r *repository) CountBottlingsUsing(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) (int64, error) {
	column, ok := bottlingColumns[kind]
	if !ok {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown material kind %q", kind)
	}
	var count int64
	err := r.Scoped(ctx, orgID).Model(&models.Bottling{}).Where(column+" = ?", id).Count(&count).Error
	return count, db.MapError(err, "bottling")
}

func (r *repository) CreateBottling(ctx context.Context, bottling *models.Bottling) error {
	return db.MapError(r.DB(ctx).Create(bottling).Error, "bottling")
}

func (r *repository) GetBottling(ctx context.Context, orgID, id uuid.UUID) (*models.Bottling, error) {
	var bottling models.Bottling
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&bottling).Error; err != nil {
		return nil, db.MapError(err, "bottling")
	}
	return &bottling, nil
}

func (r *repository) LockBottling(ctx context.Context, orgID, id uuid.UUID) (*models.Bottling, error) {
	var bottling models.Bottling
	if err := r.ForUpdate(ctx, orgID).Where("id = ?", id).Take(&bottling).Error; err != nil {
		return nil, db.MapError(err, "bottling")
	}
	return &bottling, nil
}

func (r *repository) ListBottlings(ctx context.Context, orgID uuid.UUID, filter BottlingFilter, params pagination.Params) ([]models.Bottling, error) {
	q := r.Scoped(ctx, orgID)
	if filter.TankID != nil {
		q = q.Where("tank_id = ?", *filter.TankID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Bottling
	err = q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, db.MapError(err, "bottling")
}

func (r *repository) SaveBottling(ctx context.Context, bottling *models.Bottling) error {
	return db.MapError(r.DB(ctx).Save(bottling).Error, "bottling")
}
