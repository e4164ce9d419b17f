package packaging

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
)

// record adapts one material model so CRUD can stay kind-agnostic.
type record interface {
	model() any
	assign(orgID uuid.UUID, input MaterialInput)
	dto() Material
}

func newRecord(kind enums.MaterialKind) (record, error) {
	switch kind {
	case enums.MaterialKindBottle:
		return &bottleRecord{}, nil
	case enums.MaterialKindClosure:
		return &closureRecord{}, nil
	case enums.MaterialKindLabel:
		return &labelRecord{}, nil
	case enums.MaterialKindBox:
		return &boxRecord{}, nil
	}
	return nil, unknownKind(kind)
}

func inventoryFrom(input MaterialInput) models.Inventory {
	return models.Inventory{
		Name:         strings.TrimSpace(input.Name),
		Dimensions:   trimmed(input.Dimensions),
		Supplier:     trimmed(input.Supplier),
		Price:        input.Price,
		Stock:        input.Stock,
		MinimumStock: input.MinimumStock,
	}
}

type bottleRecord struct{ m models.Bottle }

func (r *bottleRecord) model() any { return &r.m }

func (r *bottleRecord) assign(orgID uuid.UUID, input MaterialInput) {
	r.m.OrganizationID = orgID
	r.m.Inventory = inventoryFrom(input)
	r.m.BottleType = input.BottleType
	r.m.VolumeML = input.VolumeML
	r.m.GlassColor = input.GlassColor
}

func (r *bottleRecord) dto() Material { return fromBottle(r.m) }

type closureRecord struct{ m models.Closure }

func (r *closureRecord) model() any { return &r.m }

func (r *closureRecord) assign(orgID uuid.UUID, input MaterialInput) {
	r.m.OrganizationID = orgID
	r.m.Inventory = inventoryFrom(input)
	r.m.ClosureType = input.ClosureType
	r.m.Material = enums.ClosureMaterial(input.Material)
}

func (r *closureRecord) dto() Material { return fromClosure(r.m) }

type labelRecord struct{ m models.Label }

func (r *labelRecord) model() any { return &r.m }

func (r *labelRecord) assign(orgID uuid.UUID, input MaterialInput) {
	r.m.OrganizationID = orgID
	r.m.Inventory = inventoryFrom(input)
	r.m.LabelType = input.LabelType
	r.m.Material = enums.LabelMaterial(input.Material)
}

func (r *labelRecord) dto() Material { return fromLabel(r.m) }

type boxRecord struct{ m models.Box }

func (r *boxRecord) model() any { return &r.m }

func (r *boxRecord) assign(orgID uuid.UUID, input MaterialInput) {
	r.m.OrganizationID = orgID
	r.m.Inventory = inventoryFrom(input)
	r.m.BoxType = input.BoxType
	r.m.Material = enums.BoxMaterial(input.Material)
	r.m.BottleCapacity = input.BottleCapacity
}

func (r *boxRecord) dto() Material { return fromBox(r.m) }
