package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/api/validators"
	"github.com/vinco/vinco-backend/internal/vineyards"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/logger"
)

type supplierRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Address string  `json:"address" validate:"required"`
	OIB     string  `json:"oib" validate:"required,len=11,numeric"`
	IBK     *string `json:"ibk,omitempty" validate:"omitempty,max=50"`
	MIBPG   *string `json:"mibpg,omitempty" validate:"omitempty,max=50"`
}

func (r supplierRequest) input() vineyards.SupplierInput {
	return vineyards.SupplierInput{Name: r.Name, Address: r.Address, OIB: r.OIB, IBK: r.IBK, MIBPG: r.MIBPG}
}

type varietyRequest struct {
	Code       string  `json:"code" validate:"required,max=20"`
	Name       string  `json:"name" validate:"required,max=100"`
	Type       string  `json:"type,omitempty" validate:"omitempty,oneof=red white"`
	SystemCode *string `json:"system_code,omitempty" validate:"omitempty,max=50"`
}

func (r varietyRequest) input() vineyards.VarietyInput {
	return vineyards.VarietyInput{
		Code:       r.Code,
		Name:       r.Name,
		Color:      enums.GrapeColor(r.Type),
		SystemCode: r.SystemCode,
	}
}

type vineyardRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Ownership       string          `json:"ownership" validate:"required"`
	SupplierID      *string         `json:"supplier_id,omitempty"`
	Location        string          `json:"location" validate:"required"`
	CadastralCounty *string         `json:"cadastral_county,omitempty"`
	CadastralParcel *string         `json:"cadastral_parcel,omitempty"`
	ArkodID         *string         `json:"arkod_id,omitempty"`
	Size            decimal.Decimal `json:"size"`
	GrapeVariety    string          `json:"grape_variety" validate:"required"`
	VarietyID       *string         `json:"variety_id,omitempty"`
	PlantingYear    int             `json:"planting_year" validate:"required"`
	Notes           *string         `json:"notes,omitempty"`
}

func (r vineyardRequest) input() (vineyards.VineyardInput, error) {
	supplierID, err := parseOptionalUUID("supplier_id", r.SupplierID)
	if err != nil {
		return vineyards.VineyardInput{}, err
	}
	varietyID, err := parseOptionalUUID("variety_id", r.VarietyID)
	if err != nil {
		return vineyards.VineyardInput{}, err
	}
	return vineyards.VineyardInput{
		Name:            r.Name,
		Ownership:       enums.Ownership(strings.TrimSpace(r.Ownership)),
		SupplierID:      supplierID,
		Location:        r.Location,
		CadastralCounty: r.CadastralCounty,
		CadastralParcel: r.CadastralParcel,
		ArkodID:         r.ArkodID,
		Size:            r.Size,
		Cultivar:        enums.Cultivar(strings.TrimSpace(r.GrapeVariety)),
		VarietyID:       varietyID,
		PlantingYear:    r.PlantingYear,
		Notes:           r.Notes,
	}, nil
}

func SupplierList(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListSuppliers(r.Context(), scope.OrganizationID, validators.SanitizeString(r.URL.Query().Get("q"), 100))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

func SupplierCreate(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body supplierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplier, err := svc.CreateSupplier(r.Context(), scope.OrganizationID, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

func SupplierGet(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplier, err := svc.GetSupplier(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func SupplierUpdate(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body supplierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplier, err := svc.UpdateSupplier(r.Context(), scope.OrganizationID, id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func SupplierDelete(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteSupplier(r.Context(), scope.OrganizationID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func VarietyList(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListVarieties(r.Context(), scope.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

// VarietyCreate derives the colour from the code prefix when type is omitted.
func VarietyCreate(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body varietyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variety, err := svc.CreateVariety(r.Context(), scope.OrganizationID, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, variety)
	}
}

func VarietyGet(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "varietyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variety, err := svc.GetVariety(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variety)
	}
}

func VarietyUpdate(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "varietyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body varietyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variety, err := svc.UpdateVariety(r.Context(), scope.OrganizationID, id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variety)
	}
}

func VarietyDelete(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "varietyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVariety(r.Context(), scope.OrganizationID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// VineyardList supports ownership, supplier_id, grape_variety and q filters.
func VineyardList(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownership, err := validators.ParseQueryEnum(r, "ownership", enums.ParseOwnership)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cultivar, err := validators.ParseQueryEnum(r, "grape_variety", enums.ParseCultivar)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListVineyards(r.Context(), scope.OrganizationID, vineyards.VineyardFilter{
			Ownership:  ownership,
			SupplierID: supplierID,
			Cultivar:   cultivar,
			Query:      validators.SanitizeString(r.URL.Query().Get("q"), 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, items, "")
	}
}

func VineyardCreate(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body vineyardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vineyard, err := svc.CreateVineyard(r.Context(), scope.OrganizationID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vineyard)
	}
}

func VineyardGet(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "vineyardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vineyard, err := svc.GetVineyard(r.Context(), scope.OrganizationID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vineyard)
	}
}

func VineyardUpdate(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "vineyardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body vineyardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vineyard, err := svc.UpdateVineyard(r.Context(), scope.OrganizationID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vineyard)
	}
}

func VineyardDelete(svc vineyards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("vineyard"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "vineyardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVineyard(r.Context(), scope.OrganizationID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
