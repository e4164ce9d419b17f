package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/api/validators"
	"github.com/vinco/vinco-backend/internal/cellars"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/types"
)

type createCellarRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Notes    *string `json:"notes,omitempty"`
}

type updateCellarRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Notes    *string `json:"notes,omitempty"`
}

type createTankRequest struct {
	CellarID string          `json:"cellar_id" validate:"required,uuid"`
	Name     string          `json:"name" validate:"required,max=100"`
	TankType string          `json:"tank_type" validate:"required"`
	Capacity decimal.Decimal `json:"capacity" validate:"litres"`
	Notes    *string         `json:"notes,omitempty"`
}

// current_volume is not accepted; it only changes through the ledger.
type updateTankRequest struct {
	CellarID *string          `json:"cellar_id,omitempty" validate:"omitempty,uuid"`
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	TankType *string          `json:"tank_type,omitempty"`
	Capacity *decimal.Decimal `json:"capacity,omitempty" validate:"omitempty,litres"`
	Notes    *string          `json:"notes,omitempty"`
}

type transferRequest struct {
	SourceTankID      string          `json:"source_tank_id" validate:"required,uuid"`
	DestinationTankID string          `json:"destination_tank_id" validate:"required,uuid"`
	Volume            decimal.Decimal `json:"volume" validate:"litres"`
	Date              types.Date      `json:"date"`
	Notes             string          `json:"notes,omitempty"`
}

type adjustmentRequest struct {
	Volume decimal.Decimal `json:"volume" validate:"litres"`
	Date   types.Date      `json:"date"`
	Notes  string          `json:"notes" validate:"required"`
}

func CellarList(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListCellars(r.Context(), scope.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

func CellarCreate(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createCellarRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cellar, err := svc.CreateCellar(r.Context(), scope.OrganizationID, cellars.CreateCellarInput{
			Name:     body.Name,
			Location: body.Location,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cellar)
	}
}

func CellarGet(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "cellarId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cellar, err := svc.GetCellar(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cellar)
	}
}

func CellarUpdate(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "cellarId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateCellarRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cellar, err := svc.UpdateCellar(r.Context(), scope.OrganizationID, id, cellars.UpdateCellarInput{
			Name:     body.Name,
			Location: body.Location,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cellar)
	}
}

// CellarDelete is refused while any of its tanks holds wine.
func CellarDelete(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "cellarId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCellar(r.Context(), scope.OrganizationID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// TankList supports cellar_id, tank_type and q filters.
func TankList(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter cellars.TankFilter
		if filter.CellarID, err = validators.ParseQueryUUID(r, "cellar_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Type, err = validators.ParseQueryEnum(r, "tank_type", enums.ParseTankType); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Query = validators.SanitizeString(r.URL.Query().Get("q"), 100)

		items, err := svc.ListTanks(r.Context(), scope.OrganizationID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

func TankCreate(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createTankRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cellarID, err := parseRequiredUUID("cellar_id", body.CellarID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tank, err := svc.CreateTank(r.Context(), scope.OrganizationID, cellars.CreateTankInput{
			CellarID: cellarID,
			Name:     body.Name,
			Type:     enums.TankType(body.TankType),
			Capacity: body.Capacity,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tank)
	}
}

func TankGet(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "tankId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tank, err := svc.GetTank(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tank)
	}
}

func TankUpdate(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "tankId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateTankRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cellarID, err := parseOptionalUUID("cellar_id", body.CellarID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cellars.UpdateTankInput{
			CellarID: cellarID,
			Name:     body.Name,
			Capacity: body.Capacity,
			Notes:    body.Notes,
		}
		if body.TankType != nil {
			tankType := enums.TankType(*body.TankType)
			input.Type = &tankType
		}

		tank, err := svc.UpdateTank(r.Context(), scope.OrganizationID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tank)
	}
}

// TankDelete is refused while the tank holds wine or has history.
func TankDelete(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "tankId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteTank(r.Context(), scope.OrganizationID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// TankHistory pages through a tank's history, newest first.
func TankHistory(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "tankId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, cursor, err := svc.TankHistory(r.Context(), scope.OrganizationID, id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, entries, cursor)
	}
}

// TankTransfer moves wine between two tanks and answers with both history rows.
func TankTransfer(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body transferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sourceID, err := parseRequiredUUID("source_tank_id", body.SourceTankID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		destinationID, err := parseRequiredUUID("destination_tank_id", body.DestinationTankID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Transfer(r.Context(), scope.OrganizationID, scope.UserID, cellars.TransferInput{
			SourceTankID:      sourceID,
			DestinationTankID: destinationID,
			Volume:            body.Volume,
			Date:              body.Date.Time,
			Notes:             body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// TankAdjust records a signed manual correction on a tank.
func TankAdjust(svc cellars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cellar"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "tankId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body adjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Adjust(r.Context(), scope.OrganizationID, scope.UserID, cellars.AdjustmentInput{
			TankID: id,
			Volume: body.Volume,
			Date:   body.Date.Time,
			Notes:  body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
