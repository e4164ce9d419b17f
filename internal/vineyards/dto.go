package vineyards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

type SupplierInput struct {
	Name    string
	Address string
	OIB     string
	IBK     *string
	MIBPG   *string
}

type Supplier struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	OIB           string    `json:"oib"`
	IBK           *string   `json:"ibk,omitempty"`
	MIBPG         *string   `json:"mibpg,omitempty"`
	VineyardCount int64     `json:"vineyard_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toSupplier(m models.Supplier, vineyards int64) Supplier {
	return Supplier{
		ID:            m.ID,
		Name:          m.Name,
		Address:       m.Address,
		OIB:           m.OIB,
		IBK:           m.IBK,
		MIBPG:         m.MIBPG,
		VineyardCount: vineyards,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// VarietyInput leaves Color empty to derive it from the code prefix.
type VarietyInput struct {
	Code       string
	Name       string
	Color      enums.GrapeColor
	SystemCode *string
}

type Variety struct {
	ID         uuid.UUID        `json:"id"`
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Color      enums.GrapeColor `json:"type"`
	SystemCode *string          `json:"system_code,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func toVariety(m models.GrapeVariety) Variety {
	return Variety{
		ID:         m.ID,
		Code:       m.Code,
		Name:       m.Name,
		Color:      m.Color,
		SystemCode: m.SystemCode,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type VineyardInput struct {
	Name            string
	Ownership       enums.Ownership
	SupplierID      *uuid.UUID
	Location        string
	CadastralCounty *string
	CadastralParcel *string
	ArkodID         *string
	Size            decimal.Decimal
	Cultivar        enums.Cultivar
	VarietyID       *uuid.UUID
	PlantingYear    int
	Notes           *string
}

// VineyardFilter narrows vineyard listings. Query matches name, location,
// grape variety, cadastral county and ARKOD id.
type VineyardFilter struct {
	Ownership  *enums.Ownership
	SupplierID *uuid.UUID
	Cultivar   *enums.Cultivar
	Query      string
}

type Vineyard struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Ownership       enums.Ownership `json:"ownership"`
	SupplierID      *uuid.UUID      `json:"supplier_id,omitempty"`
	Location        string          `json:"location"`
	CadastralCounty *string         `json:"cadastral_county,omitempty"`
	CadastralParcel *string         `json:"cadastral_parcel,omitempty"`
	ArkodID         *string         `json:"arkod_id,omitempty"`
	Size            decimal.Decimal `json:"size"`
	Cultivar        enums.Cultivar  `json:"grape_variety"`
	VarietyID       *uuid.UUID      `json:"variety_id,omitempty"`
	VarietyCode     *string         `json:"variety_code,omitempty"`
	PlantingYear    int             `json:"planting_year"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toVineyard(m models.Vineyard, varietyCode *string) Vineyard {
	return Vineyard{
		ID:              m.ID,
		Name:            m.Name,
		Ownership:       m.Ownership,
		SupplierID:      m.SupplierID,
		Location:        m.Location,
		CadastralCounty: m.CadastralCounty,
		CadastralParcel: m.CadastralParcel,
		ArkodID:         m.ArkodID,
		Size:            m.Size,
		Cultivar:        m.Cultivar,
		VarietyID:       m.VarietyID,
		VarietyCode:     varietyCode,
		PlantingYear:    m.PlantingYear,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
