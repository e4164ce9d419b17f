package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

// Mutation describes one signed change to a tank balance. Positive volumes
// fill the tank and negative volumes drain it.
type Mutation struct {
	OrganizationID    uuid.UUID
	TankID            uuid.UUID
	Operation         enums.TankOperation
	Volume            decimal.Decimal
	Date              time.Time
	SourceTankID      *uuid.UUID
	DestinationTankID *uuid.UUID
	HarvestID         *uuid.UUID
	AllocationID      *uuid.UUID
	BottlingID        *uuid.UUID
	Notes             string
	ActorID           *uuid.UUID
}

// HistoryFilter narrows history listings.
type HistoryFilter struct {
	TankID     *uuid.UUID
	Operation  *enums.TankOperation
	HarvestID  *uuid.UUID
	BottlingID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// HistoryEntry is the API shape of a tank history row.
type HistoryEntry struct {
	ID                uuid.UUID           `json:"id"`
	TankID            uuid.UUID           `json:"tank_id"`
	Operation         enums.TankOperation `json:"operation_type"`
	Date              string              `json:"date"`
	Volume            decimal.Decimal     `json:"volume"`
	BalanceAfter      decimal.Decimal     `json:"balance_after"`
	SourceTankID      *uuid.UUID          `json:"source_tank_id,omitempty"`
	DestinationTankID *uuid.UUID          `json:"destination_tank_id,omitempty"`
	HarvestID         *uuid.UUID          `json:"harvest_id,omitempty"`
	AllocationID      *uuid.UUID          `json:"allocation_id,omitempty"`
	BottlingID        *uuid.UUID          `json:"bottling_id,omitempty"`
	Notes             *string             `json:"notes,omitempty"`
	CreatedBy         *uuid.UUID          `json:"created_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// ToHistoryEntry maps a stored row to its API shape.
func ToHistoryEntry(row models.TankHistory) HistoryEntry {
	return HistoryEntry{
		ID:                row.ID,
		TankID:            row.TankID,
		Operation:         row.Operation,
		Date:              row.Date.UTC().Format("2006-01-02"),
		Volume:            row.Volume,
		BalanceAfter:      row.BalanceAfter,
		SourceTankID:      row.SourceTankID,
		DestinationTankID: row.DestinationTankID,
		HarvestID:         row.HarvestID,
		AllocationID:      row.AllocationID,
		BottlingID:        row.BottlingID,
		Notes:             row.Notes,
		CreatedBy:         row.CreatedBy,
		CreatedAt:         row.CreatedAt,
	}
}

// Drift reports one tank whose balance disagrees with its history.
type Drift struct {
	TankID        uuid.UUID       `json:"tank_id"`
	TankName      string          `json:"tank_name"`
	CurrentVolume decimal.Decimal `json:"current_volume"`
	HistoryTotal  decimal.Decimal `json:"history_total"`
	Difference    decimal.Decimal `json:"difference"`
	Fixed         bool            `json:"fixed"`
}

// ReconcileReport summarises a reconciliation pass for one organization.
type ReconcileReport struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TanksChecked   int       `json:"tanks_checked"`
	Drifts         []Drift   `json:"drifts"`
}

// Balanced reports whether every tank matched its history.
func (r ReconcileReport) Balanced() bool {
	return len(r.Drifts) == 0
}
