package vineyards

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
)

const minPlantingYear = 1900

var oibPattern = regexp.MustCompile(`^[0-9]{11}$`)

// Service manages suppliers, grape varieties and vineyards.
type Service interface {
	CreateSupplier(ctx context.Context, orgID uuid.UUID, input SupplierInput) (*Supplier, error)
	GetSupplier(ctx context.Context, orgID, id uuid.UUID) (*Supplier, error)
	ListSuppliers(ctx context.Context, orgID uuid.UUID, query string) ([]Supplier, error)
	UpdateSupplier(ctx context.Context, orgID, id uuid.UUID, input SupplierInput) (*Supplier, error)
	DeleteSupplier(ctx context.Context, orgID, id uuid.UUID) error

	CreateVariety(ctx context.Context, orgID uuid.UUID, input VarietyInput) (*Variety, error)
	GetVariety(ctx context.Context, orgID, id uuid.UUID) (*Variety, error)
	ListVarieties(ctx context.Context, orgID uuid.UUID) ([]Variety, error)
	UpdateVariety(ctx context.Context, orgID, id uuid.UUID, input VarietyInput) (*Variety, error)
	DeleteVariety(ctx context.Context, orgID, id uuid.UUID) error

	CreateVineyard(ctx context.Context, orgID uuid.UUID, input VineyardInput) (*Vineyard, error)
	GetVineyard(ctx context.Context, orgID, id uuid.UUID) (*Vineyard, error)
	ListVineyards(ctx context.Context, orgID uuid.UUID, filter VineyardFilter) ([]Vineyard, error)
	UpdateVineyard(ctx context.Context, orgID, id uuid.UUID, input VineyardInput) (*Vineyard, error)
	DeleteVineyard(ctx context.Context, orgID, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vineyard repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// Suppliers

func (s *service) CreateSupplier(ctx context.Context, orgID uuid.UUID, input SupplierInput) (*Supplier, error) {
	supplier := &models.Supplier{OrganizationID: orgID}
	if err := applySupplier(supplier, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, supplierConflict(err)
	}
	out := toSupplier(*supplier, 0)
	return &out, nil
}

func (s *service) GetSupplier(ctx context.Context, orgID, id uuid.UUID) (*Supplier, error) {
	supplier, err := s.repo.GetSupplier(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountVineyardsBySupplier(ctx, orgID, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	out := toSupplier(*supplier, counts[id])
	return &out, nil
}

func (s *service) ListSuppliers(ctx context.Context, orgID uuid.UUID, query string) ([]Supplier, error) {
	rows, err := s.repo.ListSuppliers(ctx, orgID, query)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.repo.CountVineyardsBySupplier(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Supplier, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSupplier(row, counts[row.ID]))
	}
	return out, nil
}

func (s *service) UpdateSupplier(ctx context.Context, orgID, id uuid.UUID, input SupplierInput) (*Supplier, error) {
	supplier, err := s.repo.GetSupplier(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := applySupplier(supplier, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSupplier(ctx, supplier); err != nil {
		return nil, supplierConflict(err)
	}
	return s.GetSupplier(ctx, orgID, id)
}

func (s *service) DeleteSupplier(ctx context.Context, orgID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetSupplier(ctx, orgID, id); err != nil {
			return err
		}
		counts, err := repo.CountVineyardsBySupplier(ctx, orgID, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if counts[id] > 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation,
				"cannot delete supplier with associated vineyards; reassign or delete the vineyards first")
		}
		return repo.DeleteSupplier(ctx, orgID, id)
	})
}

func applySupplier(m *models.Supplier, input SupplierInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.FieldError("name", "name is required")
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return pkgerrors.FieldError("address", "address is required")
	}
	oib := strings.TrimSpace(input.OIB)
	if !oibPattern.MatchString(oib) {
		return pkgerrors.FieldError("oib", "OIB must be exactly 11 digits")
	}
	m.Name = name
	m.Address = address
	m.OIB = oib
	m.IBK = trimmed(input.IBK)
	m.MIBPG = trimmed(input.MIBPG)
	return nil
}

func supplierConflict(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return pkgerrors.FieldError("oib", "a supplier with this OIB already exists")
	}
	return err
}

// Grape varieties

func (s *service) CreateVariety(ctx context.Context, orgID uuid.UUID, input VarietyInput) (*Variety, error) {
	variety := &models.GrapeVariety{OrganizationID: orgID}
	if err := applyVariety(variety, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateVariety(ctx, variety); err != nil {
		return nil, varietyConflict(err)
	}
	out := toVariety(*variety)
	return &out, nil
}

func (s *service) GetVariety(ctx context.Context, orgID, id uuid.UUID) (*Variety, error) {
	variety, err := s.repo.GetVariety(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	out := toVariety(*variety)
	return &out, nil
}

func (s *service) ListVarieties(ctx context.Context, orgID uuid.UUID) ([]Variety, error) {
	rows, err := s.repo.ListVarieties(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]Variety, 0, len(rows))
	for _, row := range rows {
		out = append(out, toVariety(row))
	}
	return out, nil
}

func (s *service) UpdateVariety(ctx context.Context, orgID, id uuid.UUID, input VarietyInput) (*Variety, error) {
	variety, err := s.repo.GetVariety(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := applyVariety(variety, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveVariety(ctx, variety); err != nil {
		return nil, varietyConflict(err)
	}
	out := toVariety(*variety)
	return &out, nil
}

// DeleteVariety unlinks the variety from vineyards before removing it.
func (s *service) DeleteVariety(ctx context.Context, orgID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetVariety(ctx, orgID, id); err != nil {
			return err
		}
		if err := repo.ClearVariety(ctx, orgID, id); err != nil {
			return err
		}
		return repo.DeleteVariety(ctx, orgID, id)
	})
}

func applyVariety(m *models.GrapeVariety, input VarietyInput) error {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	expected, ok := enums.GrapeColorForCode(code)
	if !ok {
		return pkgerrors.FieldError("code", "code must start with CV (red) or BV (white)")
	}
	color := input.Color
	if color == "" {
		color = expected
	}
	if color != expected {
		if expected == enums.GrapeColorRed {
			return pkgerrors.FieldError("type", "CV codes must be red varieties")
		}
		return pkgerrors.FieldError("type", "BV codes must be white varieties")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.FieldError("name", "name is required")
	}
	m.Code = code
	m.Name = name
	m.Color = color
	m.SystemCode = trimmed(input.SystemCode)
	return nil
}

func varietyConflict(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return pkgerrors.FieldError("code", "a grape variety with this code already exists")
	}
	return err
}

// Vineyards

func (s *service) CreateVineyard(ctx context.Context, orgID uuid.UUID, input VineyardInput) (*Vineyard, error) {
	vineyard := &models.Vineyard{OrganizationID: orgID}
	if err := s.applyVineyard(ctx, vineyard, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateVineyard(ctx, vineyard); err != nil {
		return nil, err
	}
	return s.GetVineyard(ctx, orgID, vineyard.ID)
}

func (s *service) GetVineyard(ctx context.Context, orgID, id uuid.UUID) (*Vineyard, error) {
	vineyard, err := s.repo.GetVineyard(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	out, err := s.decorate(ctx, orgID, []models.Vineyard{*vineyard})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) ListVineyards(ctx context.Context, orgID uuid.UUID, filter VineyardFilter) ([]Vineyard, error) {
	rows, err := s.repo.ListVineyards(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, orgID, rows)
}

func (s *service) UpdateVineyard(ctx context.Context, orgID, id uuid.UUID, input VineyardInput) (*Vineyard, error) {
	vineyard, err := s.repo.GetVineyard(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyVineyard(ctx, vineyard, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveVineyard(ctx, vineyard); err != nil {
		return nil, err
	}
	return s.GetVineyard(ctx, orgID, id)
}

func (s *service) DeleteVineyard(ctx context.Context, orgID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetVineyard(ctx, orgID, id); err != nil {
			return err
		}
		count, err := repo.CountHarvests(ctx, orgID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "cannot delete vineyard with existing harvests")
		}
		return repo.DeleteVineyard(ctx, orgID, id)
	})
}

func (s *service) applyVineyard(ctx context.Context, m *models.Vineyard, input VineyardInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.FieldError("name", "name is required")
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return pkgerrors.FieldError("location", "location is required")
	}
	if !input.Ownership.IsValid() {
		return pkgerrors.FieldError("ownership", "ownership must be owned or supplied")
	}
	if !input.Size.IsPositive() {
		return pkgerrors.FieldError("size", "size must be greater than 0")
	}
	if !input.Cultivar.IsValid() {
		return pkgerrors.FieldError("grape_variety", "unknown grape variety")
	}
	if year := s.now().Year(); input.PlantingYear < minPlantingYear || input.PlantingYear > year {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "planting year must be between %d and %d", minPlantingYear, year).
			WithDetails(map[string]string{"planting_year": "out of range"})
	}

	var supplierID *uuid.UUID
	if input.Ownership == enums.OwnershipSupplied {
		if input.SupplierID == nil {
			return pkgerrors.FieldError("supplier_id", "supplied vineyards must have a supplier")
		}
		if _, err := s.repo.GetSupplier(ctx, m.OrganizationID, *input.SupplierID); err != nil {
			return err
		}
		id := *input.SupplierID
		supplierID = &id
	}

	if input.VarietyID != nil {
		if _, err := s.repo.GetVariety(ctx, m.OrganizationID, *input.VarietyID); err != nil {
			return err
		}
	}

	arkod := trimmed(input.ArkodID)
	if arkod != nil {
		taken, err := s.repo.ArkodTaken(ctx, m.OrganizationID, *arkod, m.ID)
		if err != nil {
			return err
		}
		if taken {
			return pkgerrors.FieldError("arkod_id", "a vineyard with this ARKOD id already exists")
		}
	}

	m.Name = name
	m.Ownership = input.Ownership
	m.SupplierID = supplierID
	m.Location = location
	m.CadastralCounty = trimmed(input.CadastralCounty)
	m.CadastralParcel = trimmed(input.CadastralParcel)
	m.ArkodID = arkod
	m.Size = input.Size
	m.Cultivar = input.Cultivar
	m.VarietyID = input.VarietyID
	m.PlantingYear = input.PlantingYear
	m.Notes = trimmed(input.Notes)
	return nil
}

func (s *service) decorate(ctx context.Context, orgID uuid.UUID, rows []models.Vineyard) ([]Vineyard, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.VarietyID != nil {
			ids = append(ids, *row.VarietyID)
		}
	}
	varieties, err := s.repo.VarietiesByID(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Vineyard, 0, len(rows))
	for _, row := range rows {
		var code *string
		if row.VarietyID != nil {
			if v, ok := varieties[*row.VarietyID]; ok {
				c := v.Code
				code = &c
			}
		}
		out = append(out, toVineyard(row, code))
	}
	return out, nil
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
