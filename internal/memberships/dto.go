package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Role           enums.MemberRole `json:"role"`
	IsPrimary      bool             `json:"is_primary"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// MembershipWithOrganization includes basic organization metadata + membership info.
type MembershipWithOrganization struct {
	MembershipID       uuid.UUID        `json:"membership_id"`
	OrganizationID     uuid.UUID        `json:"organization_id"`
	UserID             uuid.UUID        `json:"user_id"`
	OrganizationName   string           `json:"organization_name"`
	OrganizationSlug   string           `json:"organization_slug"`
	OrganizationActive bool             `json:"organization_active"`
	Role               enums.MemberRole `json:"role"`
	IsPrimary          bool             `json:"is_primary"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// OrganizationUserDTO mixes membership metadata with the associated user profile.
type OrganizationUserDTO struct {
	MembershipID   uuid.UUID        `json:"membership_id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Email          string           `json:"email"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Role           enums.MemberRole `json:"role"`
	IsPrimary      bool             `json:"is_primary"`
	CreatedAt      time.Time        `json:"created_at"`
	LastLoginAt    *time.Time       `json:"last_login_at,omitempty"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.OrganizationMember) *MembershipDTO {
	if m == nil {
		return nil
	}

	return &MembershipDTO{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           m.Role,
		IsPrimary:      m.IsPrimary,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
