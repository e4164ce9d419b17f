package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/api/middleware"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
)

// requestScope is the tenant and actor a request acts on behalf of.
type requestScope struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
}

func scopeFromRequest(r *http.Request) (requestScope, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return requestScope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	orgID, err := uuid.Parse(middleware.OrganizationIDFromContext(r.Context()))
	if err != nil {
		return requestScope{}, pkgerrors.New(pkgerrors.CodeForbidden, "active organization required")
	}
	return requestScope{OrganizationID: orgID, UserID: userID}, nil
}

func userFromRequest(r *http.Request) (uuid.UUID, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	return userID, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// parseOptionalUUID accepts nil and the empty string as absent.
func parseOptionalUUID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.FieldError(field, "must be a valid id")
	}
	return &id, nil
}

func parseRequiredUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.FieldError(field, "must be a valid id")
	}
	return id, nil
}
