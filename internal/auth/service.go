package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/users"
	pkgAuth "github.com/vinco/vinco-backend/pkg/auth"
	"github.com/vinco/vinco-backend/pkg/auth/session"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/db/models"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, accessTokenID string) error
	SelectOrganization(ctx context.Context, input SelectOrganizationInput) (*SelectOrganizationResult, error)
}

type service struct {
	users       userRepository
	memberships membershipsRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	now         func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type membershipsRepository interface {
	ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]memberships.MembershipWithOrganization, error)
	GetMembershipWithOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*memberships.MembershipWithOrganization, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, owner session.Owner) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, session.Owner, error)
	Switch(ctx context.Context, oldAccessID string, organizationID uuid.UUID) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo        userRepository
	MembershipsRepo membershipsRepository
	SessionManager  sessionManager
	JWTConfig       config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.MembershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		memberships: params.MembershipsRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login verifies credentials and opens a session in the primary
// organization, falling back to the first active membership.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	rows, err := s.memberships.ListUserOrganizations(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list organizations")
	}

	organizations := make([]OrganizationSummary, 0, len(rows))
	var active *memberships.MembershipWithOrganization
	for i, m := range rows {
		if !m.OrganizationActive {
			continue
		}
		organizations = append(organizations, OrganizationSummary{
			ID:        m.OrganizationID,
			Name:      m.OrganizationName,
			Slug:      m.OrganizationSlug,
			Role:      m.Role,
			IsPrimary: m.IsPrimary,
		})
		if active == nil || (m.IsPrimary && !active.IsPrimary) {
			active = &rows[i]
		}
	}
	if active == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no active organization membership")
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	orgID := active.OrganizationID
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:               user.ID,
		ActiveOrganizationID: &orgID,
		Role:                 active.Role,
		JTI:                  accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID, session.Owner{UserID: user.ID, OrganizationID: &orgID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:          accessToken,
		RefreshToken:         refreshToken,
		ActiveOrganizationID: orgID,
		Organizations:        organizations,
		User:                 users.FromModel(user),
	}, nil
}

// Refresh rotates the refresh token and re-reads the membership so role
// changes and deactivated organizations take effect on the next token.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error) {
	newAccessID, refreshToken, owner, err := s.session.Rotate(ctx, input.AccessTokenID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if owner.OrganizationID == nil {
		_ = s.session.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session has no organization")
	}

	membership, err := s.activeMembership(ctx, owner.UserID, *owner.OrganizationID)
	if err != nil {
		_ = s.session.Revoke(ctx, newAccessID)
		return nil, err
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID:               owner.UserID,
		ActiveOrganizationID: owner.OrganizationID,
		Role:                 membership.Role,
		JTI:                  newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, ActiveOrganizationID: owner.OrganizationID}, nil
}

func (s *service) Logout(ctx context.Context, accessTokenID string) error {
	if strings.TrimSpace(accessTokenID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}
	if err := s.session.Revoke(ctx, accessTokenID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) activeMembership(ctx context.Context, userID, organizationID uuid.UUID) (*memberships.MembershipWithOrganization, error) {
	membership, err := s.memberships.GetMembershipWithOrganization(ctx, userID, organizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization membership required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
	}
	if !membership.OrganizationActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization is inactive")
	}
	return membership, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) (time.Time, error) {
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return now, nil
}
