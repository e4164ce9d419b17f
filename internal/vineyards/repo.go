package vineyards

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/repo"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	GetSupplier(ctx context.Context, orgID, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, orgID uuid.UUID, query string) ([]models.Supplier, error)
	SaveSupplier(ctx context.Context, supplier *models.Supplier) error
	DeleteSupplier(ctx context.Context, orgID, id uuid.UUID) error
	CountVineyardsBySupplier(ctx context.Context, orgID uuid.UUID, supplierIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	CreateVariety(ctx context.Context, variety *models.GrapeVariety) error
	GetVariety(ctx context.Context, orgID, id uuid.UUID) (*models.GrapeVariety, error)
	ListVarieties(ctx context.Context, orgID uuid.UUID) ([]models.GrapeVariety, error)
	VarietiesByID(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.GrapeVariety, error)
	SaveVariety(ctx context.Context, variety *models.GrapeVariety) error
	DeleteVariety(ctx context.Context, orgID, id uuid.UUID) error
	ClearVariety(ctx context.Context, orgID, varietyID uuid.UUID) error

	CreateVineyard(ctx context.Context, vineyard *models.Vineyard) error
	GetVineyard(ctx context.Context, orgID, id uuid.UUID) (*models.Vineyard, error)
	ListVineyards(ctx context.Context, orgID uuid.UUID, filter VineyardFilter) ([]models.Vineyard, error)
	SaveVineyard(ctx context.Context, vineyard *models.Vineyard) error
	DeleteVineyard(ctx context.Context, orgID, id uuid.UUID) error
	ArkodTaken(ctx context.Context, orgID uuid.UUID, arkodID string, exclude uuid.UUID) (bool, error)
	CountHarvests(ctx context.Context, orgID, vineyardID uuid.UUID) (int64, error)
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

func (r *repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return db.MapError(r.DB(ctx).Create(supplier).Error, "supplier")
}

func (r *repository) GetSupplier(ctx context.Context, orgID, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&supplier).Error; err != nil {
		return nil, db.MapError(err, "supplier")
	}
	return &supplier, nil
}

func (r *repository) ListSuppliers(ctx context.Context, orgID uuid.UUID, query string) ([]models.Supplier, error) {
	q := r.Scoped(ctx, orgID)
	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR oib LIKE ? OR LOWER(address) LIKE ?)", like, like, like)
	}
	var suppliers []models.Supplier
	err := q.Order("name ASC").Find(&suppliers).Error
	return suppliers, db.MapError(err, "supplier")
}

func (r *repository) SaveSupplier(ctx context.Context, supplier *models.Supplier) error {
	return db.MapError(r.DB(ctx).Save(supplier).Error, "supplier")
}

func (r *repository) DeleteSupplier(ctx context.Context, orgID, id uuid.UUID) error {
	return db.MapError(r.Scoped(ctx, orgID).Where("id = ?", id).Delete(&models.Supplier{}).Error, "supplier")
}

type supplierCount struct {
	SupplierID uuid.UUID
	Total      int64
}

func (r *repository) CountVineyardsBySupplier(ctx context.Context, orgID uuid.UUID, supplierIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(supplierIDs))
	if len(supplierIDs) == 0 {
		return counts, nil
	}
	var rows []supplierCount
	err := r.Scoped(ctx, orgID).
		Model(&models.Vineyard{}).
		Select("supplier_id, COUNT(*) AS total").
		Where("supplier_id IN ?", supplierIDs).
		Group("supplier_id").
		Scan(&rows).Error
	if err != nil {
		return nil, db.MapError(err, "vineyard")
	}
	for _, row := range rows {
		counts[row.SupplierID] = row.Total
	}
	return counts, nil
}

func (r *repository) CreateVariety(ctx context.Context, variety *models.GrapeVariety) error {
	return db.MapError(r.DB(ctx).Create(variety).Error, "grape variety")
}

func (r *repository) GetVariety(ctx context.Context, orgID, id uuid.UUID) (*models.GrapeVariety, error) {
	var variety models.GrapeVariety
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&variety).Error; err != nil {
		return nil, db.MapError(err, "grape variety")
	}
	return &variety, nil
}

func (r *repository) ListVarieties(ctx context.Context, orgID uuid.UUID) ([]models.GrapeVariety, error) {
	var varieties []models.GrapeVariety
	err := r.Scoped(ctx, orgID).Order("code ASC").Find(&varieties).Error
	return varieties, db.MapError(err, "grape variety")
}

func (r *repository) VarietiesByID(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.GrapeVariety, error) {
	out := make(map[uuid.UUID]models.GrapeVariety, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.GrapeVariety
	if err := r.Scoped(ctx, orgID).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, db.MapError(err, "grape variety")
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *repository) SaveVariety(ctx context.Context, variety *models.GrapeVariety) error {
	return db.MapError(r.DB(ctx).Save(variety).Error, "grape variety")
}

func (r *repository) DeleteVariety(ctx context.Context, orgID, id uuid.UUID) error {
	return db.MapError(r.Scoped(ctx, orgID).Where("id = ?", id).Delete(&models.GrapeVariety{}).Error, "grape variety")
}

func (r *repository) ClearVariety(ctx context.Context, orgID, varietyID uuid.UUID) error {
	err := r.Scoped(ctx, orgID).
		Model(&models.Vineyard{}).
		Where("variety_id = ?", varietyID).
		Update("variety_id", nil).Error
	return db.MapError(err, "vineyard")
}

func (r *repository) CreateVineyard(ctx context.Context, vineyard *models.Vineyard) error {
	return db.MapError(r.DB(ctx).Create(vineyard).Error, "vineyard")
}

func (r *repository) GetVineyard(ctx context.Context, orgID, id uuid.UUID) (*models.Vineyard, error) {
	var vineyard models.Vineyard
	if err := r.Scoped(ctx, orgID).Where("id = ?", id).Take(&vineyard).Error; err != nil {
		return nil, db.MapError(err, "vineyard")
	}
	return &vineyard, nil
}

func (r *repository) ListVineyards(ctx context.Context, orgID uuid.UUID, filter VineyardFilter) ([]models.Vineyard, error) {
	q := r.Scoped(ctx, orgID)
	if filter.Ownership != nil {
		q = q.Where("ownership = ?", *filter.Ownership)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Cultivar != nil {
		q = q.Where("grape_variety = ?", *filter.Cultivar)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where(
			"(LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(grape_variety) LIKE ? OR LOWER(cadastral_county) LIKE ? OR LOWER(arkod_id) LIKE ?)",
			like, like, like, like, like,
		)
	}
	var vineyards []models.Vineyard
	err := q.Order("name ASC").Find(&vineyards).Error
	return vineyards, db.MapError(err, "vineyard")
}

func (r *repository) SaveVineyard(ctx context.Context, vineyard *models.Vineyard) error {
	return db.MapError(r.DB(ctx).Save(vineyard).Error, "vineyard")
}

func (r *repository) DeleteVineyard(ctx context.Context, orgID, id uuid.UUID) error {
	return db.MapError(r.Scoped(ctx, orgID).Where("id = ?", id).Delete(&models.Vineyard{}).Error, "vineyard")
}

func (r *repository) ArkodTaken(ctx context.Context, orgID uuid.UUID, arkodID string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.Scoped(ctx, orgID).
		Model(&models.Vineyard{}).
		Where("arkod_id = ? AND id <> ?", arkodID, exclude).
		Count(&count).Error
	return count > 0, db.MapError(err, "vineyard")
}

func (r *repository) CountHarvests(ctx context.Context, orgID, vineyardID uuid.UUID) (int64, error) {
	var count int64
	err := r.Scoped(ctx, orgID).Model(&models.Harvest{}).Where("vineyard_id = ?", vineyardID).Count(&count).Error
	return count, db.MapError(err, "harvest")
}
