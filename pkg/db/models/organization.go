package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/pkg/enums"
)

// Organization is the tenant boundary; every domain row carries its id.
type Organization struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	Address      *string   `gorm:"column:address"`
	TaxNumber    *string   `gorm:"column:tax_number;uniqueIndex"`
	ContactEmail *string   `gorm:"column:contact_email"`
	ContactPhone *string   `gorm:"column:contact_phone"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrganizationMember links a user with an organization and captures their role.
type OrganizationMember struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:uq_org_members_org_user"`
	UserID         uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_org_members_org_user"`
	Role           enums.MemberRole `gorm:"column:role;type:text;not null"`
	IsPrimary      bool             `gorm:"column:is_primary;not null;default:false"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
