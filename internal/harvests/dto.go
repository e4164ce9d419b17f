package harvests

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// HarvestInput carries the full editable state of a harvest. VATPerKg is a
// percentage (25 means 25%).
type HarvestInput struct {
	VineyardID    uuid.UUID
	Date          time.Time
	Quantity      decimal.Decimal
	PricePerKg    decimal.NullDecimal
	VATPerKg      decimal.NullDecimal
	Notes         *string
	CrushingDate  *time.Time
	JuiceYield    decimal.NullDecimal
	PressingNotes *string
}

type HarvestFilter struct {
	VineyardID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	Pressed    *bool
}

type Harvest struct {
	ID              uuid.UUID        `json:"id"`
	VineyardID      uuid.UUID        `json:"vineyard_id"`
	VineyardName    string           `json:"vineyard_name,omitempty"`
	Date            types.Date       `json:"date"`
	Quantity        decimal.Decimal  `json:"quantity"`
	PricePerKg      *decimal.Decimal `json:"price_per_kg,omitempty"`
	VATPerKg        *decimal.Decimal `json:"vat_per_kg,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	CrushingDate    *types.Date      `json:"crushing_date,omitempty"`
	JuiceYield      *decimal.Decimal `json:"juice_yield,omitempty"`
	PressingNotes   *string          `json:"pressing_notes,omitempty"`
	AllocatedVolume decimal.Decimal  `json:"allocated_volume"`
	RemainingJuice  decimal.Decimal  `json:"remaining_juice"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	TotalVAT        decimal.Decimal  `json:"total_vat"`
	TotalWithVAT    decimal.Decimal  `json:"total_with_vat"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// RemainingJuice is the unallocated part of the juice yield, zero until the
// harvest has been pressed.
func RemainingJuice(h models.Harvest, allocated decimal.Decimal) decimal.Decimal {
	if !h.JuiceYield.Valid {
		return decimal.Zero
	}
	return h.JuiceYield.Decimal.Sub(allocated)
}

func toHarvest(m models.Harvest, allocated decimal.Decimal, vineyardName string) Harvest {
	out := Harvest{
		ID:              m.ID,
		VineyardID:      m.VineyardID,
		VineyardName:    vineyardName,
		Date:            types.NewDate(m.Date),
		Quantity:        m.Quantity,
		PricePerKg:      nullable(m.PricePerKg),
		VATPerKg:        nullable(m.VATPerKg),
		Notes:           m.Notes,
		JuiceYield:      nullable(m.JuiceYield),
		PressingNotes:   m.PressingNotes,
		AllocatedVolume: allocated,
		RemainingJuice:  RemainingJuice(m, allocated),
		TotalPrice:      decimal.Zero,
		TotalVAT:        decimal.Zero,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.CrushingDate != nil {
		d := types.NewDate(*m.CrushingDate)
		out.CrushingDate = &d
	}
	if m.PricePerKg.Valid {
		out.TotalPrice = m.Quantity.Mul(m.PricePerKg.Decimal).Round(2)
		if m.VATPerKg.Valid {
			out.TotalVAT = out.TotalPrice.Mul(m.VATPerKg.Decimal).Div(hundred).Round(2)
		}
	}
	out.TotalWithVAT = out.TotalPrice.Add(out.TotalVAT)
	return out
}

func nullable(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

type AllocationInput struct {
	TankID uuid.UUID
	Volume decimal.Decimal
	Date   time.Time
	Notes  *string
}

// AllocationUpdate changes only the fields that are set.
type AllocationUpdate struct {
	TankID *uuid.UUID
	Volume *decimal.Decimal
	Date   *time.Time
	Notes  *string
}

type Allocation struct {
	ID              uuid.UUID       `json:"id"`
	HarvestID       uuid.UUID       `json:"harvest_id"`
	TankID          uuid.UUID       `json:"tank_id"`
	AllocatedVolume decimal.Decimal `json:"allocated_volume"`
	AllocationDate  types.Date      `json:"allocation_date"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toAllocation(m models.HarvestAllocation) Allocation {
	return Allocation{
		ID:              m.ID,
		HarvestID:       m.HarvestID,
		TankID:          m.TankID,
		AllocatedVolume: m.AllocatedVolume,
		AllocationDate:  types.NewDate(m.AllocationDate),
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
