package packaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/types"
)

// MaterialInput covers every packaging kind; only the attributes of the
// requested kind are read. Material is the closure, label or box material.
type MaterialInput struct {
	Name         string
	Dimensions   *string
	Supplier     *string
	Price        decimal.NullDecimal
	Stock        int
	MinimumStock int

	BottleType     enums.BottleType
	VolumeML       int
	GlassColor     enums.GlassColor
	ClosureType    enums.ClosureType
	LabelType      enums.LabelType
	BoxType        enums.BoxType
	Material       string
	BottleCapacity int
}

type Material struct {
	ID             uuid.UUID          `json:"id"`
	Kind           enums.MaterialKind `json:"kind"`
	Name           string             `json:"name"`
	Dimensions     *string            `json:"dimensions,omitempty"`
	Supplier       *string            `json:"supplier,omitempty"`
	Price          *decimal.Decimal   `json:"price,omitempty"`
	Stock          int                `json:"stock"`
	MinimumStock   int                `json:"minimum_stock"`
	LowStock       bool               `json:"low_stock"`
	BottleType     enums.BottleType   `json:"bottle_type,omitempty"`
	VolumeML       int                `json:"volume,omitempty"`
	GlassColor     enums.GlassColor   `json:"glass_color,omitempty"`
	ClosureType    enums.ClosureType  `json:"closure_type,omitempty"`
	LabelType      enums.LabelType    `json:"label_type,omitempty"`
	BoxType        enums.BoxType      `json:"box_type,omitempty"`
	Material       string             `json:"material,omitempty"`
	BottleCapacity int                `json:"bottle_capacity,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func fromInventory(kind enums.MaterialKind, id uuid.UUID, inv models.Inventory, created, updated time.Time) Material {
	m := Material{
		ID:           id,
		Kind:         kind,
		Name:         inv.Name,
		Dimensions:   inv.Dimensions,
		Supplier:     inv.Supplier,
		Stock:        inv.Stock,
		MinimumStock: inv.MinimumStock,
		LowStock:     inv.LowStock(),
		CreatedAt:    created,
		UpdatedAt:    updated,
	}
	if inv.Price.Valid {
		p := inv.Price.Decimal
		m.Price = &p
	}
	return m
}

func fromBottle(b models.Bottle) Material {
	m := fromInventory(enums.MaterialKindBottle, b.ID, b.Inventory, b.CreatedAt, b.UpdatedAt)
	m.BottleType = b.BottleType
	m.VolumeML = b.VolumeML
	m.GlassColor = b.GlassColor
	return m
}

func fromClosure(c models.Closure) Material {
	m := fromInventory(enums.MaterialKindClosure, c.ID, c.Inventory, c.CreatedAt, c.UpdatedAt)
	m.ClosureType = c.ClosureType
	m.Material = string(c.Material)
	return m
}

func fromLabel(l models.Label) Material {
	m := fromInventory(enums.MaterialKindLabel, l.ID, l.Inventory, l.CreatedAt, l.UpdatedAt)
	m.LabelType = l.LabelType
	m.Material = string(l.Material)
	return m
}

func fromBox(b models.Box) Material {
	m := fromInventory(enums.MaterialKindBox, b.ID, b.Inventory, b.CreatedAt, b.UpdatedAt)
	m.BoxType = b.BoxType
	m.Material = string(b.Material)
	m.BottleCapacity = b.BottleCapacity
	return m
}

// LowStockReport lists every material at or below its minimum stock.
type LowStockReport struct {
	Bottles  []Material `json:"bottles"`
	Closures []Material `json:"closures"`
	Labels   []Material `json:"labels"`
	Boxes    []Material `json:"boxes"`
	Total    int        `json:"total"`
}

type BottlingInput struct {
	TankID    uuid.UUID
	BottleID  uuid.UUID
	ClosureID *uuid.UUID
	LabelID   *uuid.UUID
	BoxID     *uuid.UUID
	Date      time.Time
	Quantity  int
	Notes     *string
}

// BottlingUpdate replaces the editable state of a bottling. Tank and bottle
// are fixed once bottled; when set they must match the stored values.
type BottlingUpdate struct {
	TankID    *uuid.UUID
	BottleID  *uuid.UUID
	ClosureID *uuid.UUID
	LabelID   *uuid.UUID
	BoxID     *uuid.UUID
	Date      time.Time
	Quantity  int
	Notes     *string
}

type BottlingFilter struct {
	TankID *uuid.UUID
	Status *enums.BottlingStatus
}

type Bottling struct {
	ID        uuid.UUID            `json:"id"`
	TankID    uuid.UUID            `json:"tank_id"`
	BottleID  uuid.UUID            `json:"bottle_id"`
	ClosureID *uuid.UUID           `json:"closure_id,omitempty"`
	LabelID   *uuid.UUID           `json:"label_id,omitempty"`
	BoxID     *uuid.UUID           `json:"box_id,omitempty"`
	BoxesUsed int                  `json:"boxes_used"`
	Date      types.Date           `json:"bottling_date"`
	Quantity  int                  `json:"quantity"`
	Volume    decimal.Decimal      `json:"volume"`
	Status    enums.BottlingStatus `json:"status"`
	Notes     *string              `json:"notes,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func toBottling(m models.Bottling) Bottling {
	return Bottling{
		ID:        m.ID,
		TankID:    m.TankID,
		BottleID:  m.BottleID,
		ClosureID: m.ClosureID,
		LabelID:   m.LabelID,
		BoxID:     m.BoxID,
		BoxesUsed: m.BoxesUsed,
		Date:      types.NewDate(m.BottlingDate),
		Quantity:  m.Quantity,
		Volume:    m.Volume,
		Status:    m.Status,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
