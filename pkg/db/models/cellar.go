package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/enums"
)

type Cellar struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	Location       *string   `gorm:"column:location"`
	Notes          *string   `gorm:"column:notes"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Tank holds juice or wine. CurrentVolume is a running balance maintained
// exclusively by the ledger and always equals the sum of its history rows.
type Tank struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index"`
	CellarID       uuid.UUID       `gorm:"column:cellar_id;type:uuid;not null;uniqueIndex:uq_tanks_cellar_name"`
	Name           string          `gorm:"column:name;not null;uniqueIndex:uq_tanks_cellar_name"`
	Type           enums.TankType  `gorm:"column:tank_type;type:text;not null"`
	Capacity       decimal.Decimal `gorm:"column:capacity;type:numeric(12,2);not null"`
	CurrentVolume  decimal.Decimal `gorm:"column:current_volume;type:numeric(12,2);not null;default:0"`
	Notes          *string         `gorm:"column:notes"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableCapacity is the free space left in the tank.
func (t Tank) AvailableCapacity() decimal.Decimal {
	return t.Capacity.Sub(t.CurrentVolume)
}

// TankHistory is an append-only record of a single tank volume change.
// Volume is signed: positive entries fill the tank, negative ones drain it.
type TankHistory struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID    uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;index"`
	TankID            uuid.UUID           `gorm:"column:tank_id;type:uuid;not null;index"`
	Operation         enums.TankOperation `gorm:"column:operation_type;type:text;not null"`
	Date              time.Time           `gorm:"column:date;not null"`
	Volume            decimal.Decimal     `gorm:"column:volume;type:numeric(12,2);not null"`
	BalanceAfter      decimal.Decimal     `gorm:"column:balance_after;type:numeric(12,2);not null"`
	SourceTankID      *uuid.UUID          `gorm:"column:source_tank_id;type:uuid"`
	DestinationTankID *uuid.UUID          `gorm:"column:destination_tank_id;type:uuid"`
	HarvestID         *uuid.UUID          `gorm:"column:harvest_id;type:uuid"`
	AllocationID      *uuid.UUID          `gorm:"column:allocation_id;type:uuid"`
	BottlingID        *uuid.UUID          `gorm:"column:bottling_id;type:uuid"`
	Notes             *string             `gorm:"column:notes"`
	CreatedBy         *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (TankHistory) TableName() string { return "tank_history" }
