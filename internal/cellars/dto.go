package cellars

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

type CreateCellarInput struct {
	Name     string
	Location *string
	Notes    *string
}

type UpdateCellarInput struct {
	Name     *string
	Location *string
	Notes    *string
}

// Cellar is a cellar with totals derived from its tanks.
type Cellar struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Location          *string         `json:"location,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	Capacity          decimal.Decimal `json:"capacity"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	AvailableCapacity decimal.Decimal `json:"available_capacity"`
	TankCount         int             `json:"tank_count"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type CreateTankInput struct {
	CellarID uuid.UUID
	Name     string
	Type     enums.TankType
	Capacity decimal.Decimal
	Notes    *string
}

type UpdateTankInput struct {
	CellarID *uuid.UUID
	Name     *string
	Type     *enums.TankType
	Capacity *decimal.Decimal
	Notes    *string
}

// TankFilter narrows tank listings.
type TankFilter struct {
	CellarID *uuid.UUID
	Type     *enums.TankType
	Query    string
}

type Tank struct {
	ID                uuid.UUID       `json:"id"`
	CellarID          uuid.UUID       `json:"cellar_id"`
	Name              string          `json:"name"`
	Type              enums.TankType  `json:"tank_type"`
	Capacity          decimal.Decimal `json:"capacity"`
	CurrentVolume     decimal.Decimal `json:"current_volume"`
	AvailableCapacity decimal.Decimal `json:"available_capacity"`
	FillPercentage    decimal.Decimal `json:"fill_percentage"`
	Notes             *string         `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toTank(m models.Tank) Tank {
	fill := decimal.Zero
	if m.Capacity.IsPositive() {
		fill = m.CurrentVolume.Div(m.Capacity).Mul(decimal.NewFromInt(100)).Round(1)
	}
	return Tank{
		ID:                m.ID,
		CellarID:          m.CellarID,
		Name:              m.Name,
		Type:              m.Type,
		Capacity:          m.Capacity,
		CurrentVolume:     m.CurrentVolume,
		AvailableCapacity: m.AvailableCapacity(),
		FillPercentage:    fill,
		Notes:             m.Notes,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// TransferInput moves wine between two tanks of the same organization.
type TransferInput struct {
	SourceTankID      uuid.UUID
	DestinationTankID uuid.UUID
	Volume            decimal.Decimal
	Date              time.Time
	Notes             string
}

type TransferResult struct {
	Out ledger.HistoryEntry `json:"transfer_out"`
	In  ledger.HistoryEntry `json:"transfer_in"`
}

// AdjustmentInput is a manual signed correction of a tank balance.
type AdjustmentInput struct {
	TankID uuid.UUID
	Volume decimal.Decimal
	Date   time.Time
	Notes  string
}
