package controllers

import (
	"net/http"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/api/validators"
	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/logger"
)

// HistoryList pages through the organization's tank history. Filters:
// tank_id, operation_type, harvest_id, bottling_id, date_from, date_to.
func HistoryList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ledger"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter ledger.HistoryFilter
		if filter.TankID, err = validators.ParseQueryUUID(r, "tank_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Operation, err = validators.ParseQueryEnum(r, "operation_type", enums.ParseTankOperation); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.HarvestID, err = validators.ParseQueryUUID(r, "harvest_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.BottlingID, err = validators.ParseQueryUUID(r, "bottling_id"); err != nil {
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
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, cursor, err := svc.ListHistory(r.Context(), scope.OrganizationID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, entries, cursor)
	}
}

// ReconcileReport compares every tank with its history without changing anything.
func ReconcileReport(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return reconcileHandler(svc, false, logg)
}

// ReconcileFix overwrites drifted tank volumes with their history totals.
func ReconcileFix(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return reconcileHandler(svc, true, logg)
}

func reconcileHandler(svc ledger.Service, fix bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ledger"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Reconcile(r.Context(), scope.OrganizationID, fix)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if fix && logg != nil && !report.Balanced() {
			ctx := logg.WithFields(r.Context(), map[string]any{"drifts": len(report.Drifts)})
			logg.Warn(ctx, "ledger.reconcile.fixed")
		}
		responses.WriteSuccess(w, report)
	}
}
