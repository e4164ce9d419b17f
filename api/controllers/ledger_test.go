package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

type stubLedgerService struct {
	lastFilter ledger.HistoryFilter
	lastFix    bool
	lastOrg    uuid.UUID
	report     *ledger.ReconcileReport
}

func (s *stubLedgerService) Apply(context.Context, *gorm.DB, ledger.Mutation) (*models.TankHistory, error) {
	return nil, nil
}

func (s *stubLedgerService) ListHistory(_ context.Context, orgID uuid.UUID, filter ledger.HistoryFilter, _ pagination.Params) ([]ledger.HistoryEntry, string, error) {
	s.lastOrg, s.lastFilter = orgID, filter
	return []ledger.HistoryEntry{{ID: uuid.New()}}, "", nil
}

func (s *stubLedgerService) Reconcile(_ context.Context, orgID uuid.UUID, fix bool) (*ledger.ReconcileReport, error) {
	s.lastOrg, s.lastFix = orgID, fix
	return s.report, nil
}

func TestHistoryListParsesFilters(t *testing.T) {
	scope := newScope()
	svc := &stubLedgerService{}
	harvestID := uuid.New()

	rec := serve(t, scope, http.MethodGet, "/history",
		"/history?operation_type=allocation&harvest_id="+harvestID.String()+"&date_to=2024-12-31", "", HistoryList(svc, nil))
	expectStatus(t, rec, http.StatusOK)

	if svc.lastOrg != scope.OrganizationID {
		t.Fatalf("expected organization scope")
	}
	if svc.lastFilter.Operation == nil || *svc.lastFilter.Operation != enums.TankOperationAllocation {
		t.Fatalf("unexpected operation %+v", svc.lastFilter.Operation)
	}
	if svc.lastFilter.HarvestID == nil || *svc.lastFilter.HarvestID != harvestID {
		t.Fatalf("unexpected harvest filter %+v", svc.lastFilter.HarvestID)
	}
	if svc.lastFilter.DateTo == nil || svc.lastFilter.DateFrom != nil {
		t.Fatalf("unexpected date filter %+v %+v", svc.lastFilter.DateFrom, svc.lastFilter.DateTo)
	}

	rec = serve(t, scope, http.MethodGet, "/history", "/history?operation_type=spill", "", HistoryList(svc, nil))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestReconcileReportAndFix(t *testing.T) {
	scope := newScope()
	tankID := uuid.New()
	svc := &stubLedgerService{report: &ledger.ReconcileReport{
		OrganizationID: scope.OrganizationID,
		TanksChecked:   3,
		Drifts: []ledger.Drift{{
			TankID:        tankID,
			CurrentVolume: decimal.NewFromInt(500),
			HistoryTotal:  decimal.NewFromInt(480),
			Difference:    decimal.NewFromInt(20),
		}},
	}}

	rec := serve(t, scope, http.MethodGet, "/reconcile", "/reconcile", "", ReconcileReport(svc, nil))
	expectStatus(t, rec, http.StatusOK)
	if svc.lastFix {
		t.Fatalf("report must not fix")
	}

	var report ledger.ReconcileReport
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TanksChecked != 3 || len(report.Drifts) != 1 || report.Drifts[0].TankID != tankID {
		t.Fatalf("unexpected report %+v", report)
	}

	rec = serve(t, scope, http.MethodPost, "/reconcile", "/reconcile", "", ReconcileFix(svc, nil))
	expectStatus(t, rec, http.StatusOK)
	if !svc.lastFix {
		t.Fatalf("expected fix run")
	}
}
