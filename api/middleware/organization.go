package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/internal/memberships"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/logger"
)

// MembershipLookup resolves the caller's membership in an organization.
type MembershipLookup interface {
	GetMembershipWithOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*memberships.MembershipWithOrganization, error)
}

// OrganizationContext requires an active organization in the token, checks
// that it still exists, is active and lists the caller as a member. The
// role in the context is replaced by the stored one so demotions apply
// before the token expires.
func OrganizationContext(lookup MembershipLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if lookup == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership lookup unavailable"))
				return
			}

			uid, err := uuid.Parse(UserIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			orgID, err := uuid.Parse(OrganizationIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing"))
				return
			}

			membership, err := lookup.GetMembershipWithOrganization(ctx, uid, orgID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "organization membership required"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check organization membership"))
				return
			}
			if !membership.OrganizationActive {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "organization is inactive"))
				return
			}

			ctx = WithRole(ctx, string(membership.Role))
			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(membership.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
