package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	pkgAuth "github.com/vinco/vinco-backend/pkg/auth"
	"github.com/vinco/vinco-backend/pkg/auth/session"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
)

// SelectOrganizationInput captures the data required to switch organizations.
type SelectOrganizationInput struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	AccessTokenID  string
}

// SelectOrganizationResult returns the tokens issued after switching.
type SelectOrganizationResult struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	Organization OrganizationSummary `json:"organization"`
}

func (s *service) SelectOrganization(ctx context.Context, input SelectOrganizationInput) (*SelectOrganizationResult, error) {
	membership, err := s.activeMembership(ctx, input.UserID, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	newAccessID, refreshToken, err := s.session.Switch(ctx, input.AccessTokenID, input.OrganizationID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	orgID := input.OrganizationID
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID:               input.UserID,
		ActiveOrganizationID: &orgID,
		Role:                 membership.Role,
		JTI:                  newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SelectOrganizationResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Organization: OrganizationSummary{
			ID:        membership.OrganizationID,
			Name:      membership.OrganizationName,
			Slug:      membership.OrganizationSlug,
			Role:      membership.Role,
			IsPrimary: membership.IsPrimary,
		},
	}, nil
}
