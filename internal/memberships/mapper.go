package memberships

import (
	"time"

	"github.com/vinco/vinco-backend/pkg/db/models"
)

type membershipWithOrganizationRow struct {
	models.OrganizationMember
	OrganizationName   string `gorm:"column:organization_name"`
	OrganizationSlug   string `gorm:"column:organization_slug"`
	OrganizationActive bool   `gorm:"column:organization_active"`
}

func membershipWithOrganizationFromRow(row membershipWithOrganizationRow) MembershipWithOrganization {
	return MembershipWithOrganization{
		MembershipID:       row.ID,
		OrganizationID:     row.OrganizationID,
		UserID:             row.UserID,
		OrganizationName:   row.OrganizationName,
		OrganizationSlug:   row.OrganizationSlug,
		OrganizationActive: row.OrganizationActive,
		Role:               row.Role,
		IsPrimary:          row.IsPrimary,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func membershipRowsToDTO(rows []membershipWithOrganizationRow) []MembershipWithOrganization {
	out := make([]MembershipWithOrganization, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipWithOrganizationFromRow(row))
	}
	return out
}

type organizationUserRow struct {
	models.OrganizationMember
	Email       string     `gorm:"column:email"`
	FirstName   string     `gorm:"column:first_name"`
	LastName    string     `gorm:"column:last_name"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func organizationUsersFromRows(rows []organizationUserRow) []OrganizationUserDTO {
	out := make([]OrganizationUserDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, OrganizationUserDTO{
			MembershipID:   row.ID,
			OrganizationID: row.OrganizationID,
			UserID:         row.UserID,
			Email:          row.Email,
			FirstName:      row.FirstName,
			LastName:       row.LastName,
			Role:           row.Role,
			IsPrimary:      row.IsPrimary,
			CreatedAt:      row.CreatedAt,
			LastLoginAt:    row.LastLoginAt,
		})
	}
	return out
}
