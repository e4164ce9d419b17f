package organizations

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

// OrganizationDTO exposes tenant data in API responses.
type OrganizationDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	IsActive     bool      `json:"is_active"`
	Address      *string   `json:"address,omitempty"`
	TaxNumber    *string   `json:"tax_number,omitempty"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateOrganizationDTO holds creation-time data for a new organization.
type CreateOrganizationDTO struct {
	Name         string
	Slug         string
	Address      *string
	TaxNumber    *string
	ContactEmail *string
	ContactPhone *string
}

// UpdateOrganizationInput captures the mutable organization fields.
type UpdateOrganizationInput struct {
	Name         *string
	Address      *string
	TaxNumber    *string
	ContactEmail *string
	ContactPhone *string
}

// AddMemberInput captures the data required to add a user to an organization.
type AddMemberInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      enums.MemberRole
}

// FromModel maps the persisted organization into a DTO.
func FromModel(m *models.Organization) *OrganizationDTO {
	if m == nil {
		return nil
	}
	return &OrganizationDTO{
		ID:           m.ID,
		Name:         m.Name,
		Slug:         m.Slug,
		IsActive:     m.IsActive,
		Address:      m.Address,
		TaxNumber:    m.TaxNumber,
		ContactEmail: m.ContactEmail,
		ContactPhone: m.ContactPhone,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ToModel converts the DTO into an active organization.
func (c CreateOrganizationDTO) ToModel() *models.Organization {
	return &models.Organization{
		Name:         strings.TrimSpace(c.Name),
		Slug:         c.Slug,
		IsActive:     true,
		Address:      cleanStringPtr(c.Address),
		TaxNumber:    cleanStringPtr(c.TaxNumber),
		ContactEmail: cleanStringPtr(c.ContactEmail),
		ContactPhone: cleanStringPtr(c.ContactPhone),
	}
}

func cleanStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
