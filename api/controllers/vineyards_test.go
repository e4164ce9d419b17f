package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vinco/vinco-backend/internal/vineyards"
	"github.com/vinco/vinco-backend/pkg/enums"
)

type stubVineyardService struct {
	vineyards.Service

	lastFilter   vineyards.VineyardFilter
	lastVineyard vineyards.VineyardInput
	lastVariety  vineyards.VarietyInput
	lastQuery    string
	deleted      uuid.UUID
}

func (s *stubVineyardService) ListVineyards(_ context.Context, _ uuid.UUID, filter vineyards.VineyardFilter) ([]vineyards.Vineyard, error) {
	s.lastFilter = filter
	return []vineyards.Vineyard{{ID: uuid.New()}}, nil
}

func (s *stubVineyardService) CreateVineyard(_ context.Context, _ uuid.UUID, input vineyards.VineyardInput) (*vineyards.Vineyard, error) {
	s.lastVineyard = input
	return &vineyards.Vineyard{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubVineyardService) CreateVariety(_ context.Context, _ uuid.UUID, input vineyards.VarietyInput) (*vineyards.Variety, error) {
	s.lastVariety = input
	return &vineyards.Variety{ID: uuid.New(), Code: input.Code}, nil
}

func (s *stubVineyardService) ListSuppliers(_ context.Context, _ uuid.UUID, query string) ([]vineyards.Supplier, error) {
	s.lastQuery = query
	return nil, nil
}

func (s *stubVineyardService) DeleteSupplier(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func TestVineyardListParsesFilters(t *testing.T) {
	svc := &stubVineyardService{}
	supplierID := uuid.New()

	rec := serve(t, newScope(), http.MethodGet, "/vineyards",
		"/vineyards?ownership=supplied&supplier_id="+supplierID.String()+"&grape_variety=merlot&q=%20Ilok%20",
		"", VineyardList(svc, nil))
	expectStatus(t, rec, http.StatusOK)

	if svc.lastFilter.Ownership == nil || *svc.lastFilter.Ownership != enums.OwnershipSupplied {
		t.Fatalf("unexpected ownership filter %+v", svc.lastFilter.Ownership)
	}
	if svc.lastFilter.SupplierID == nil || *svc.lastFilter.SupplierID != supplierID {
		t.Fatalf("unexpected supplier filter %+v", svc.lastFilter.SupplierID)
	}
	if svc.lastFilter.Cultivar == nil || *svc.lastFilter.Cultivar != enums.CultivarMerlot {
		t.Fatalf("unexpected cultivar filter %+v", svc.lastFilter.Cultivar)
	}
	if svc.lastFilter.Query != "Ilok" {
		t.Fatalf("expected trimmed query, got %q", svc.lastFilter.Query)
	}
}

func TestVineyardListRejectsUnknownOwnership(t *testing.T) {
	rec := serve(t, newScope(), http.MethodGet, "/vineyards", "/vineyards?ownership=leased", "", VineyardList(&stubVineyardService{}, nil))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestVineyardCreateMapsBody(t *testing.T) {
	svc := &stubVineyardService{}
	supplierID := uuid.New()

	rec := serve(t, newScope(), http.MethodPost, "/vineyards", "/vineyards", `{
		"name":          "Gornji breg",
		"ownership":     "supplied",
		"supplier_id":   "`+supplierID.String()+`",
		"location":      "Ilok",
		"size":          "1.25",
		"grape_variety": "merlot",
		"planting_year": 2004,
		"variety_id":    ""
	}`, VineyardCreate(svc, nil))
	expectStatus(t, rec, http.StatusCreated)

	in := svc.lastVineyard
	if in.SupplierID == nil || *in.SupplierID != supplierID {
		t.Fatalf("unexpected supplier %+v", in.SupplierID)
	}
	if in.VarietyID != nil {
		t.Fatalf("expected empty variety id to be nil")
	}
	if !in.Size.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("unexpected size %s", in.Size)
	}
	if in.Ownership != enums.OwnershipSupplied || in.PlantingYear != 2004 {
		t.Fatalf("unexpected input %+v", in)
	}
}

func TestVineyardCreateRejectsMalformedSupplierID(t *testing.T) {
	rec := serve(t, newScope(), http.MethodPost, "/vineyards", "/vineyards", `{
		"name":          "Gornji breg",
		"ownership":     "supplied",
		"supplier_id":   "abc",
		"location":      "Ilok",
		"size":          1,
		"grape_variety": "merlot",
		"planting_year": 2004
	}`, VineyardCreate(&stubVineyardService{}, nil))
	expectStatus(t, rec, http.StatusBadRequest)

	env := decodeEnvelope(t, rec)
	if env.Error.Details["supplier_id"] == nil {
		t.Fatalf("expected supplier_id detail, got %+v", env.Error.Details)
	}
}

func TestVarietyCreateLeavesColorForDerivation(t *testing.T) {
	svc := &stubVineyardService{}
	rec := serve(t, newScope(), http.MethodPost, "/varieties", "/varieties",
		`{"code":"CV012","name":"Plavac mali"}`, VarietyCreate(svc, nil))
	expectStatus(t, rec, http.StatusCreated)
	if svc.lastVariety.Color != "" {
		t.Fatalf("expected empty color, got %q", svc.lastVariety.Color)
	}
}

func TestSupplierValidationAndDelete(t *testing.T) {
	svc := &stubVineyardService{}

	rec := serve(t, newScope(), http.MethodPost, "/suppliers", "/suppliers",
		`{"name":"OPG Horvat","address":"Ilok 1","oib":"123"}`, SupplierCreate(svc, nil))
	expectStatus(t, rec, http.StatusBadRequest)

	id := uuid.New()
	rec = serve(t, newScope(), http.MethodDelete, "/suppliers/{supplierId}", "/suppliers/"+id.String(), "", SupplierDelete(svc, nil))
	expectStatus(t, rec, http.StatusNoContent)
	if svc.deleted != id {
		t.Fatalf("expected %s deleted got %s", id, svc.deleted)
	}

	rec = serve(t, newScope(), http.MethodDelete, "/suppliers/{supplierId}", "/suppliers/not-a-uuid", "", SupplierDelete(svc, nil))
	expectStatus(t, rec, http.StatusBadRequest)
}
