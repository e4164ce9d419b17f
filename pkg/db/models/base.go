package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a zero primary key before insert so rows created through
// sqlite (which has no gen_random_uuid) get the same identifiers as Postgres.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *User) BeforeCreate(*gorm.DB) error               { assignID(&m.ID); return nil }
func (m *Organization) BeforeCreate(*gorm.DB) error       { assignID(&m.ID); return nil }
func (m *OrganizationMember) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
func (m *Supplier) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
func (m *GrapeVariety) BeforeCreate(*gorm.DB) error       { assignID(&m.ID); return nil }
func (m *Vineyard) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
func (m *Harvest) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *HarvestAllocation) BeforeCreate(*gorm.DB) error  { assignID(&m.ID); return nil }
func (m *Cellar) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *Tank) BeforeCreate(*gorm.DB) error               { assignID(&m.ID); return nil }
func (m *TankHistory) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
func (m *Bottle) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *Closure) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *Label) BeforeCreate(*gorm.DB) error              { assignID(&m.ID); return nil }
func (m *Box) BeforeCreate(*gorm.DB) error                { assignID(&m.ID); return nil }
func (m *Bottling) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }

// All lists every persisted model in dependency order. Tests use it with
// AutoMigrate; production schemas come from the goose migrations.
func All() []any {
	return []any{
		&User{},
		&Organization{},
		&OrganizationMember{},
		&Supplier{},
		&GrapeVariety{},
		&Vineyard{},
		&Harvest{},
		&Cellar{},
		&Tank{},
		&HarvestAllocation{},
		&Bottle{},
		&Closure{},
		&Label{},
		&Box{},
		&Bottling{},
		&TankHistory{},
	}
}
