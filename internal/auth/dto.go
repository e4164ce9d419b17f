package auth

import (
	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/internal/users"
	"github.com/vinco/vinco-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OrganizationSummary describes an organization the user can act in.
type OrganizationSummary struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	Role      enums.MemberRole `json:"role"`
	IsPrimary bool             `json:"is_primary"`
}

// LoginResponse contains the tokens, user, and organization list produced by a successful login.
type LoginResponse struct {
	AccessToken          string                `json:"access_token"`
	RefreshToken         string                `json:"refresh_token"`
	ActiveOrganizationID uuid.UUID             `json:"active_organization_id"`
	Organizations        []OrganizationSummary `json:"organizations"`
	User                 *users.UserDTO        `json:"user"`
}

// TokenPair is returned by refresh and organization selection.
type TokenPair struct {
	AccessToken          string     `json:"access_token"`
	RefreshToken         string     `json:"refresh_token"`
	ActiveOrganizationID *uuid.UUID `json:"active_organization_id,omitempty"`
}

// RefreshInput identifies the session being rotated.
type RefreshInput struct {
	AccessTokenID string
	RefreshToken  string
}
