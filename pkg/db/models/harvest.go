package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Harvest records picked grapes and, once pressed, the juice they yielded.
type Harvest struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;index"`
	VineyardID     uuid.UUID           `gorm:"column:vineyard_id;type:uuid;not null;index"`
	Date           time.Time           `gorm:"column:date;type:date;not null"`
	Quantity       decimal.Decimal     `gorm:"column:quantity;type:numeric(12,2);not null"`
	PricePerKg     decimal.NullDecimal `gorm:"column:price_per_kg;type:numeric(10,2)"`
	VATPerKg       decimal.NullDecimal `gorm:"column:vat_per_kg;type:numeric(10,2)"`
	Notes          *string             `gorm:"column:notes"`
	CrushingDate   *time.Time          `gorm:"column:crushing_date;type:date"`
	JuiceYield     decimal.NullDecimal `gorm:"column:juice_yield;type:numeric(12,2)"`
	PressingNotes  *string             `gorm:"column:pressing_notes"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// HarvestAllocation assigns part of a harvest's juice to a tank.
type HarvestAllocation struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID  uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index"`
	HarvestID       uuid.UUID       `gorm:"column:harvest_id;type:uuid;not null;index"`
	TankID          uuid.UUID       `gorm:"column:tank_id;type:uuid;not null;index"`
	AllocatedVolume decimal.Decimal `gorm:"column:allocated_volume;type:numeric(12,2);not null"`
	AllocationDate  time.Time       `gorm:"column:allocation_date;type:date;not null"`
	Notes           *string         `gorm:"column:notes"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
