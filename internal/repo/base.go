package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Scoped restricts a query to rows owned by the organization.
func (b Base) Scoped(ctx context.Context, orgID uuid.UUID) *gorm.DB {
	return b.DB(ctx).Where("organization_id = ?", orgID)
}

// ForUpdate adds a row lock to the query. Drivers without row locks ignore it.
func (b Base) ForUpdate(ctx context.Context, orgID uuid.UUID) *gorm.DB {
	return b.Scoped(ctx, orgID).Clauses(clause.Locking{Strength: "UPDATE"})
}
