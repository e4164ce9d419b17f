package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/enums"
)

// Supplier is a grower delivering grapes from vineyards the organization
// does not own.
type Supplier struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_suppliers_org_oib"`
	Name           string    `gorm:"column:name;not null"`
	Address        string    `gorm:"column:address;not null"`
	OIB            string    `gorm:"column:oib;type:varchar(11);not null;uniqueIndex:uq_suppliers_org_oib"`
	IBK            *string   `gorm:"column:ibk"`
	MIBPG          *string   `gorm:"column:mibpg"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// GrapeVariety is a registered variety code (CV... for red, BV... for white).
type GrapeVariety struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_grape_varieties_org_code"`
	Code           string           `gorm:"column:code;not null;uniqueIndex:uq_grape_varieties_org_code"`
	Name           string           `gorm:"column:name;not null"`
	Color          enums.GrapeColor `gorm:"column:color;type:text;not null"`
	SystemCode     *string          `gorm:"column:system_code"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

type Vineyard struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID  uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index"`
	Name            string          `gorm:"column:name;not null"`
	Ownership       enums.Ownership `gorm:"column:ownership;type:text;not null"`
	SupplierID      *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	Location        string          `gorm:"column:location;not null"`
	CadastralCounty *string         `gorm:"column:cadastral_county"`
	CadastralParcel *string         `gorm:"column:cadastral_parcel"`
	ArkodID         *string         `gorm:"column:arkod_id"`
	Size            decimal.Decimal `gorm:"column:size;type:numeric(10,4);not null"`
	Cultivar        enums.Cultivar  `gorm:"column:grape_variety;type:text;not null"`
	VarietyID       *uuid.UUID      `gorm:"column:variety_id;type:uuid"`
	PlantingYear    int             `gorm:"column:planting_year;not null"`
	Notes           *string         `gorm:"column:notes"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
