package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/api/validators"
	"github.com/vinco/vinco-backend/internal/harvests"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/types"
)

type harvestRequest struct {
	VineyardID    string              `json:"vineyard_id" validate:"required,uuid"`
	Date          types.Date          `json:"date"`
	Quantity      decimal.Decimal     `json:"quantity"`
	PricePerKg    decimal.NullDecimal `json:"price_per_kg"`
	VATPerKg      decimal.NullDecimal `json:"vat_per_kg"`
	Notes         *string             `json:"notes,omitempty"`
	CrushingDate  types.Date          `json:"crushing_date"`
	JuiceYield    decimal.NullDecimal `json:"juice_yield"`
	PressingNotes *string             `json:"pressing_notes,omitempty"`
}

func (r harvestRequest) input() (harvests.HarvestInput, error) {
	vineyardID, err := parseRequiredUUID("vineyard_id", r.VineyardID)
	if err != nil {
		return harvests.HarvestInput{}, err
	}
	return harvests.HarvestInput{
		VineyardID:    vineyardID,
		Date:          r.Date.Time,
		Quantity:      r.Quantity,
		PricePerKg:    r.PricePerKg,
		VATPerKg:      r.VATPerKg,
		Notes:         r.Notes,
		CrushingDate:  r.CrushingDate.Ptr(),
		JuiceYield:    r.JuiceYield,
		PressingNotes: r.PressingNotes,
	}, nil
}

type allocationRequest struct {
	TankID          string          `json:"tank_id" validate:"required,uuid"`
	AllocatedVolume decimal.Decimal `json:"allocated_volume" validate:"litres"`
	AllocationDate  types.Date      `json:"allocation_date"`
	Notes           *string         `json:"notes,omitempty"`
}

type allocationUpdateRequest struct {
	TankID          *string          `json:"tank_id,omitempty" validate:"omitempty,uuid"`
	AllocatedVolume *decimal.Decimal `json:"allocated_volume,omitempty" validate:"omitempty,litres"`
	AllocationDate  *types.Date      `json:"allocation_date,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

func (r allocationUpdateRequest) input() (harvests.AllocationUpdate, error) {
	tankID, err := parseOptionalUUID("tank_id", r.TankID)
	if err != nil {
		return harvests.AllocationUpdate{}, err
	}
	update := harvests.AllocationUpdate{TankID: tankID, Volume: r.AllocatedVolume, Notes: r.Notes}
	if r.AllocationDate != nil {
		update.Date = r.AllocationDate.Ptr()
	}
	return update, nil
}

// HarvestList supports vineyard_id, date_from, date_to and pressed filters.
func HarvestList(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter harvests.HarvestFilter
		if filter.VineyardID, err = validators.ParseQueryUUID(r, "vineyard_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.DateFrom, err = validators.ParseQueryDate(r, "date_from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.DateTo, err = validators.ParseQueryDate(r, "date_to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Pressed, err = validators.ParseQueryBool(r, "pressed"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListHarvests(r.Context(), scope.OrganizationID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

func HarvestCreate(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body harvestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		harvest, err := svc.CreateHarvest(r.Context(), scope.OrganizationID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, harvest)
	}
}

func HarvestGet(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		harvest, err := svc.GetHarvest(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, harvest)
	}
}

// HarvestUpdate replaces the harvest, pressing data included.
func HarvestUpdate(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body harvestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		harvest, err := svc.UpdateHarvest(r.Context(), scope.OrganizationID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, harvest)
	}
}

// HarvestDelete reverses every allocation of the harvest before removing it.
func HarvestDelete(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteHarvest(r.Context(), scope.OrganizationID, scope.UserID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AllocationList(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		harvestID, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListAllocations(r.Context(), scope.OrganizationID, harvestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

// AllocationCreate moves pressed juice into a tank.
func AllocationCreate(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		harvestID, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body allocationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tankID, err := parseRequiredUUID("tank_id", body.TankID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		allocation, err := svc.CreateAllocation(r.Context(), scope.OrganizationID, scope.UserID, harvestID, harvests.AllocationInput{
			TankID: tankID,
			Volume: body.AllocatedVolume,
			Date:   body.AllocationDate.Time,
			Notes:  body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, allocation)
	}
}

func AllocationUpdate(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		harvestID, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		allocationID, err := pathUUID(r, "allocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body allocationUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		allocation, err := svc.UpdateAllocation(r.Context(), scope.OrganizationID, scope.UserID, harvestID, allocationID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, allocation)
	}
}

func AllocationDelete(svc harvests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("harvest"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		harvestID, err := pathUUID(r, "harvestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		allocationID, err := pathUUID(r, "allocationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAllocation(r.Context(), scope.OrganizationID, scope.UserID, harvestID, allocationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
