package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/api/validators"
	"github.com/vinco/vinco-backend/internal/packaging"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/types"
)

var materialKindsByPath = map[string]enums.MaterialKind{
	"bottles":  enums.MaterialKindBottle,
	"closures": enums.MaterialKindClosure,
	"labels":   enums.MaterialKindLabel,
	"boxes":    enums.MaterialKindBox,
}

func materialKind(r *http.Request) (enums.MaterialKind, error) {
	kind, ok := materialKindsByPath[strings.ToLower(chi.URLParam(r, "kind"))]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "unknown packaging material")
	}
	return kind, nil
}

// materialRequest accepts the union of all material attributes; the kind in
// the path decides which ones are read.
type materialRequest struct {
	Name         string              `json:"name" validate:"required,max=100"`
	Dimensions   *string             `json:"dimensions,omitempty" validate:"omitempty,max=100"`
	Supplier     *string             `json:"supplier,omitempty" validate:"omitempty,max=100"`
	Price        decimal.NullDecimal `json:"price"`
	Stock        int                 `json:"stock" validate:"gte=0"`
	MinimumStock int                 `json:"minimum_stock" validate:"gte=0"`

	BottleType     string `json:"bottle_type,omitempty"`
	Volume         int    `json:"volume,omitempty"`
	GlassColor     string `json:"glass_color,omitempty"`
	ClosureType    string `json:"closure_type,omitempty"`
	LabelType      string `json:"label_type,omitempty"`
	BoxType        string `json:"box_type,omitempty"`
	Material       string `json:"material,omitempty"`
	BottleCapacity int    `json:"bottle_capacity,omitempty"`
}

func (r materialRequest) input() packaging.MaterialInput {
	return packaging.MaterialInput{
		Name:           r.Name,
		Dimensions:     r.Dimensions,
		Supplier:       r.Supplier,
		Price:          r.Price,
		Stock:          r.Stock,
		MinimumStock:   r.MinimumStock,
		BottleType:     enums.BottleType(r.BottleType),
		VolumeML:       r.Volume,
		GlassColor:     enums.GlassColor(r.GlassColor),
		ClosureType:    enums.ClosureType(r.ClosureType),
		LabelType:      enums.LabelType(r.LabelType),
		BoxType:        enums.BoxType(r.BoxType),
		Material:       r.Material,
		BottleCapacity: r.BottleCapacity,
	}
}

type bottlingRequest struct {
	TankID       string     `json:"tank_id" validate:"required,uuid"`
	BottleID     string     `json:"bottle_id" validate:"required,uuid"`
	ClosureID    *string    `json:"closure_id,omitempty"`
	LabelID      *string    `json:"label_id,omitempty"`
	BoxID        *string    `json:"box_id,omitempty"`
	BottlingDate types.Date `json:"bottling_date"`
	Quantity     int        `json:"quantity" validate:"gt=0"`
	Notes        *string    `json:"notes,omitempty"`
}

type bottlingUpdateRequest struct {
	TankID       *string    `json:"tank_id,omitempty"`
	BottleID     *string    `json:"bottle_id,omitempty"`
	ClosureID    *string    `json:"closure_id,omitempty"`
	LabelID      *string    `json:"label_id,omitempty"`
	BoxID        *string    `json:"box_id,omitempty"`
	BottlingDate types.Date `json:"bottling_date"`
	Quantity     int        `json:"quantity" validate:"gt=0"`
	Notes        *string    `json:"notes,omitempty"`
}

func MaterialList(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := materialKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowOnly, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMaterials(r.Context(), scope.OrganizationID, kind, lowOnly != nil && *lowOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

func MaterialCreate(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := materialKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body materialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.CreateMaterial(r.Context(), scope.OrganizationID, kind, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, material)
	}
}

func MaterialGet(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := materialKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.GetMaterial(r.Context(), scope.OrganizationID, kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, material)
	}
}

func MaterialUpdate(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := materialKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body materialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.UpdateMaterial(r.Context(), scope.OrganizationID, kind, id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, material)
	}
}

// MaterialDelete is refused while a bottling still references the material.
func MaterialDelete(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := materialKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMaterial(r.Context(), scope.OrganizationID, kind, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func MaterialLowStock(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.LowStock(r.Context(), scope.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// BottlingList supports tank_id and status filters with cursor paging.
func BottlingList(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter packaging.BottlingFilter
		if filter.TankID, err = validators.ParseQueryUUID(r, "tank_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseBottlingStatus); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, cursor, err := svc.ListBottlings(r.Context(), scope.OrganizationID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, cursor)
	}
}

// BottlingCreate drains the tank and consumes packaging stock in one step.
func BottlingCreate(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body bottlingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := packaging.BottlingInput{
			Date:     body.BottlingDate.Time,
			Quantity: body.Quantity,
			Notes:    body.Notes,
		}
		if input.TankID, err = parseRequiredUUID("tank_id", body.TankID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.BottleID, err = parseRequiredUUID("bottle_id", body.BottleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.ClosureID, err = parseOptionalUUID("closure_id", body.ClosureID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.LabelID, err = parseOptionalUUID("label_id", body.LabelID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.BoxID, err = parseOptionalUUID("box_id", body.BoxID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bottling, err := svc.CreateBottling(r.Context(), scope.OrganizationID, scope.UserID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bottling)
	}
}

func BottlingGet(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "bottlingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bottling, err := svc.GetBottling(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bottling)
	}
}

func BottlingUpdate(svc packaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packaging"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "bottlingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body bottlingUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := packaging.BottlingUpdate{
			Date:     body.BottlingDate.Time,
			Quantity: body.Quantity,
			Notes:    body.Notes,
		}
		if input.TankID, err = parseOptionalUUID("tank_id", body.TankID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.BottleID, err = parseOptionalUUID("bottle_id", body.BottleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.ClosureID, err = parseOptionalUUID("closure_id", body.ClosureID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.LabelID, err = parseOptionalUUID("label_id", body.LabelID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.BoxID, err = parseOptionalUUID("box_id", body.BoxID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bottling, err := svc.UpdateBottling(r.Context(), scope.OrganizationID, scope.UserID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bottling)
	}
}
