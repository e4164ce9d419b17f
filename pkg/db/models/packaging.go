package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/enums"
)

// Inventory is shared by every packaging material.
type Inventory struct {
	Name         string              `gorm:"column:name;not null"`
	Dimensions   *string             `gorm:"column:dimensions"`
	Supplier     *string             `gorm:"column:supplier"`
	Price        decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)"`
	Stock        int                 `gorm:"column:stock;not null;default:0"`
	MinimumStock int                 `gorm:"column:minimum_stock;not null;default:0"`
}

// LowStock reports whether stock has fallen to the reorder threshold.
func (s Inventory) LowStock() bool {
	return s.Stock <= s.MinimumStock
}

type Bottle struct {
	Inventory

	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;index"`
	BottleType     enums.BottleType `gorm:"column:bottle_type;type:text;not null"`
	VolumeML       int              `gorm:"column:volume;not null"`
	GlassColor     enums.GlassColor `gorm:"column:glass_color;type:text;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

type Closure struct {
	Inventory

	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID             `gorm:"column:organization_id;type:uuid;not null;index"`
	ClosureType    enums.ClosureType     `gorm:"column:closure_type;type:text;not null"`
	Material       enums.ClosureMaterial `gorm:"column:material;type:text;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

type Label struct {
	Inventory

	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;index"`
	LabelType      enums.LabelType     `gorm:"column:label_type;type:text;not null"`
	Material       enums.LabelMaterial `gorm:"column:material;type:text;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Label) TableName() string { return "labels" }

type Box struct {
	Inventory

	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;index"`
	BoxType        enums.BoxType     `gorm:"column:box_type;type:text;not null"`
	Material       enums.BoxMaterial `gorm:"column:material;type:text;not null"`
	BottleCapacity int               `gorm:"column:bottle_capacity;not null;default:1"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Box) TableName() string { return "boxes" }

// BoxesFor returns how many boxes are needed to pack qty bottles.
func (b Box) BoxesFor(qty int) int {
	if b.BottleCapacity <= 0 || qty <= 0 {
		return 0
	}
	return (qty + b.BottleCapacity - 1) / b.BottleCapacity
}

// Bottling converts tank volume into bottles, consuming packaging stock.
type Bottling struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID            `gorm:"column:organization_id;type:uuid;not null;index"`
	TankID         uuid.UUID            `gorm:"column:tank_id;type:uuid;not null;index"`
	BottleID       uuid.UUID            `gorm:"column:bottle_id;type:uuid;not null"`
	ClosureID      *uuid.UUID           `gorm:"column:closure_id;type:uuid"`
	LabelID        *uuid.UUID           `gorm:"column:label_id;type:uuid"`
	BoxID          *uuid.UUID           `gorm:"column:box_id;type:uuid"`
	BoxesUsed      int                  `gorm:"column:boxes_used;not null;default:0"`
	BottlingDate   time.Time            `gorm:"column:bottling_date;type:date;not null"`
	Quantity       int                  `gorm:"column:quantity;not null"`
	Volume         decimal.Decimal      `gorm:"column:volume;type:numeric(12,2);not null"`
	Status         enums.BottlingStatus `gorm:"column:status;type:text;not null"`
	Notes          *string              `gorm:"column:notes"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ResolveStatus marks the bottling finished once every material is set.
func (b *Bottling) ResolveStatus() {
	if b.ClosureID != nil && b.LabelID != nil && b.BoxID != nil {
		b.Status = enums.BottlingStatusFinished
		return
	}
	b.Status = enums.BottlingStatusInProgress
}

// BottledVolume converts a bottle count into litres, rounded to the
// centilitre precision tank balances are stored with.
func BottledVolume(qty, bottleML int) decimal.Decimal {
	return decimal.NewFromInt(int64(qty)).Mul(decimal.NewFromInt(int64(bottleML))).Div(decimal.NewFromInt(1000)).Round(2)
}
