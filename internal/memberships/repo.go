package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

const membershipWithOrganizationColumns = "organization_members.*, organizations.name AS organization_name, " +
	"organizations.slug AS organization_slug, organizations.is_active AS organization_active"

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUserOrganizations returns the organizations a user belongs to, primary
// membership first.
func (r *Repository) ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]MembershipWithOrganization, error) {
	var rows []membershipWithOrganizationRow

	err := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Select(membershipWithOrganizationColumns).
		Joins("JOIN organizations ON organizations.id = organization_members.organization_id").
		Where("organization_members.user_id = ?", userID).
		Order("organization_members.is_primary DESC").
		Order("organization_members.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return membershipRowsToDTO(rows), nil
}

// GetMembership retrieves a membership by user and organization.
func (r *Repository) GetMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.OrganizationMember, error) {
	var membership models.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// CreateMembership persists a new membership record.
func (r *Repository) CreateMembership(ctx context.Context, organizationID, userID uuid.UUID, role enums.MemberRole, primary bool) (*models.OrganizationMember, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", role)
	}

	membership := &models.OrganizationMember{
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		IsPrimary:      primary,
	}

	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// UserHasRole reports whether the user holds one of the provided roles for the organization.
func (r *Repository) UserHasRole(ctx context.Context, userID, organizationID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("user_id = ? AND organization_id = ? AND role IN ?", userID, organizationID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetMembershipWithOrganization returns membership details joined with
// organization metadata. Missing memberships yield gorm.ErrRecordNotFound.
func (r *Repository) GetMembershipWithOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*MembershipWithOrganization, error) {
	var row membershipWithOrganizationRow
	res := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Select(membershipWithOrganizationColumns).
		Joins("JOIN organizations ON organizations.id = organization_members.organization_id").
		Where("organization_members.user_id = ? AND organization_members.organization_id = ?", userID, organizationID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	dto := membershipWithOrganizationFromRow(row)
	return &dto, nil
}

// ListOrganizationUsers returns memberships for the organization along with user metadata.
func (r *Repository) ListOrganizationUsers(ctx context.Context, organizationID uuid.UUID) ([]OrganizationUserDTO, error) {
	var rows []organizationUserRow
	err := r.db.WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Select("organization_members.*, users.email, users.first_name, users.last_name, users.last_login_at").
		Joins("JOIN users ON users.id = organization_members.user_id").
		Where("organization_members.organization_id = ?", organizationID).
		Order("organization_members.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return organizationUsersFromRows(rows), nil
}
