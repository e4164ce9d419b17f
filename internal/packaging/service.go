package packaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/pagination"
)

// Service manages packaging stock and bottlings. A bottling moves wine out
// of a tank through the ledger and consumes material stock in the same
// transaction.
type Service interface {
	CreateMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, input MaterialInput) (*Material, error)
	GetMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) (*Material, error)
	ListMaterials(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, lowOnly bool) ([]Material, error)
	UpdateMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID, input MaterialInput) (*Material, error)
	DeleteMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) error
	LowStock(ctx context.Context, orgID uuid.UUID) (*LowStockReport, error)

	CreateBottling(ctx context.Context, orgID, actorID uuid.UUID, input BottlingInput) (*Bottling, error)
	GetBottling(ctx context.Context, orgID, id uuid.UUID) (*Bottling, error)
	ListBottlings(ctx context.Context, orgID uuid.UUID, filter BottlingFilter, params pagination.Params) ([]Bottling, string, error)
	UpdateBottling(ctx context.Context, orgID, actorID, id uuid.UUID, input BottlingUpdate) (*Bottling, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	ledger ledger.Service
	tx     txRunner
}

func NewService(repo Repository, ledgerSvc ledger.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "packaging repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: repo, ledger: ledgerSvc, tx: tx}, nil
}

func (s *service) CreateMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, input MaterialInput) (*Material, error) {
	if err := validateMaterial(kind, input); err != nil {
		return nil, err
	}
	record, err := newRecord(kind)
	if err != nil {
		return nil, err
	}
	record.assign(orgID, input)
	if err := s.repo.CreateMaterial(ctx, kind, record.model()); err != nil {
		return nil, err
	}
	out := record.dto()
	return &out, nil
}

func (s *service) GetMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) (*Material, error) {
	record, err := s.load(ctx, s.repo, orgID, kind, id)
	if err != nil {
		return nil, err
	}
	out := record.dto()
	return &out, nil
}

func (s *service) ListMaterials(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, lowOnly bool) ([]Material, error) {
	var out []Material
	switch kind {
	case enums.MaterialKindBottle:
		var rows []models.Bottle
		if err := s.repo.ListMaterials(ctx, orgID, kind, lowOnly, &rows); err != nil {
			return nil, err
		}
		out = mapRows(rows, fromBottle)
	case enums.MaterialKindClosure:
		var rows []models.Closure
		if err := s.repo.ListMaterials(ctx, orgID, kind, lowOnly, &rows); err != nil {
			return nil, err
		}
		out = mapRows(rows, fromClosure)
	case enums.MaterialKindLabel:
		var rows []models.Label
		if err := s.repo.ListMaterials(ctx, orgID, kind, lowOnly, &rows); err != nil {
			return nil, err
		}
		out = mapRows(rows, fromLabel)
	case enums.MaterialKindBox:
		var rows []models.Box
		if err := s.repo.ListMaterials(ctx, orgID, kind, lowOnly, &rows); err != nil {
			return nil, err
		}
		out = mapRows(rows, fromBox)
	default:
		return nil, unknownKind(kind)
	}
	return out, nil
}

func (s *service) UpdateMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID, input MaterialInput) (*Material, error) {
	if err := validateMaterial(kind, input); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, s.repo, orgID, kind, id)
	if err != nil {
		return nil, err
	}
	record.assign(orgID, input)
	if err := s.repo.SaveMaterial(ctx, kind, record.model()); err != nil {
		return nil, err
	}
	out := record.dto()
	return &out, nil
}

func (s *service) DeleteMaterial(ctx context.Context, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) error {
	rec, err := s.load(ctx, s.repo, orgID, kind, id)
	if err != nil {
		return err
	}
	used, err := s.repo.CountBottlingsUsing(ctx, orgID, kind, id)
	if err != nil {
		return err
	}
	if used > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s is used by %d bottling(s)", kind, used)
	}
	return s.repo.DeleteMaterial(ctx, orgID, kind, rec.model())
}

func (s *service) LowStock(ctx context.Context, orgID uuid.UUID) (*LowStockReport, error) {
	report := &LowStockReport{}
	targets := []struct {
		kind enums.MaterialKind
		dst  *[]Material
	}{
		{enums.MaterialKindBottle, &report.Bottles},
		{enums.MaterialKindClosure, &report.Closures},
		{enums.MaterialKindLabel, &report.Labels},
		{enums.MaterialKindBox, &report.Boxes},
	}
	for _, target := range targets {
		rows, err := s.ListMaterials(ctx, orgID, target.kind, true)
		if err != nil {
			return nil, err
		}
		*target.dst = rows
		report.Total += len(rows)
	}
	return report, nil
}

func (s *service) CreateBottling(ctx context.Context, orgID, actorID uuid.UUID, input BottlingInput) (*Bottling, error) {
	if input.TankID == uuid.Nil {
		return nil, pkgerrors.FieldError("tank_id", "tank is required")
	}
	if input.BottleID == uuid.Nil {
		return nil, pkgerrors.FieldError("bottle_id", "bottle is required")
	}
	if err := validateBottling(input.Quantity, input.Date.IsZero()); err != nil {
		return nil, err
	}

	var out Bottling
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var bottle models.Bottle
		if err := repo.GetMaterial(ctx, orgID, enums.MaterialKindBottle, input.BottleID, &bottle); err != nil {
			return err
		}

		bottling := &models.Bottling{
			OrganizationID: orgID,
			TankID:         input.TankID,
			BottleID:       bottle.ID,
			ClosureID:      input.ClosureID,
			LabelID:        input.LabelID,
			BoxID:          input.BoxID,
			BottlingDate:   input.Date,
			Quantity:       input.Quantity,
			Volume:         models.BottledVolume(input.Quantity, bottle.VolumeML),
			Notes:          trimmed(input.Notes),
		}
		bottling.ResolveStatus()
		if err := s.prepare(ctx, repo, orgID, bottling); err != nil {
			return err
		}

		if err := s.consume(ctx, repo, orgID, usageOf(bottling), nil); err != nil {
			return err
		}
		if err := repo.CreateBottling(ctx, bottling); err != nil {
			return err
		}
		note := fmt.Sprintf("Bottled %d x %s", bottling.Quantity, bottle.Name)
		if err := s.apply(ctx, tx, orgID, actorID, bottling, bottling.Volume.Neg(), note); err != nil {
			return err
		}
		out = toBottling(*bottling)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) GetBottling(ctx context.Context, orgID, id uuid.UUID) (*Bottling, error) {
	bottling, err := s.repo.GetBottling(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	out := toBottling(*bottling)
	return &out, nil
}

func (s *service) ListBottlings(ctx context.Context, orgID uuid.UUID, filter BottlingFilter, params pagination.Params) ([]Bottling, string, error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListBottlings(ctx, orgID, filter, params)
	if err != nil {
		return nil, "", err
	}
	rows, next := pagination.Page(rows, params.Limit, func(b models.Bottling) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	out := make([]Bottling, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBottling(row))
	}
	return out, next, nil
}

func (s *service) UpdateBottling(ctx context.Context, orgID, actorID, id uuid.UUID, input BottlingUpdate) (*Bottling, error) {
	if err := validateBottling(input.Quantity, input.Date.IsZero()); err != nil {
		return nil, err
	}

	var out Bottling
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bottling, err := repo.LockBottling(ctx, orgID, id)
		if err != nil {
			return err
		}
		if input.TankID != nil && *input.TankID != bottling.TankID {
			return pkgerrors.FieldError("tank_id", "tank cannot be changed after bottling")
		}
		if input.BottleID != nil && *input.BottleID != bottling.BottleID {
			return pkgerrors.FieldError("bottle_id", "bottle cannot be changed after bottling")
		}
		var bottle models.Bottle
		if err := repo.GetMaterial(ctx, orgID, enums.MaterialKindBottle, bottling.BottleID, &bottle); err != nil {
			return err
		}

		before := usageOf(bottling)
		previousVolume := bottling.Volume
		previousQty := bottling.Quantity

		bottling.ClosureID = input.ClosureID
		bottling.LabelID = input.LabelID
		bottling.BoxID = input.BoxID
		bottling.BottlingDate = input.Date
		bottling.Quantity = input.Quantity
		bottling.Volume = models.BottledVolume(input.Quantity, bottle.VolumeML)
		bottling.Notes = trimmed(input.Notes)
		bottling.ResolveStatus()
		if err := s.prepare(ctx, repo, orgID, bottling); err != nil {
			return err
		}

		if err := s.consume(ctx, repo, orgID, usageOf(bottling), before); err != nil {
			return err
		}
		if err := repo.SaveBottling(ctx, bottling); err != nil {
			return err
		}
		if delta := bottling.Volume.Sub(previousVolume); !delta.IsZero() {
			note := fmt.Sprintf("Updated bottling from %d to %d bottles", previousQty, bottling.Quantity)
			if err := s.apply(ctx, tx, orgID, actorID, bottling, delta.Neg(), note); err != nil {
				return err
			}
		}
		out = toBottling(*bottling)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// prepare checks the bottled volume survives rounding and records how many
// boxes the bottling packs into, so later edits return exactly that count.
func (s *service) prepare(ctx context.Context, repo Repository, orgID uuid.UUID, b *models.Bottling) error {
	if b.Volume.IsZero() {
		return pkgerrors.FieldError("quantity", "bottled volume rounds to zero litres")
	}
	b.BoxesUsed = 0
	if b.BoxID == nil {
		return nil
	}
	var box models.Box
	if err := repo.GetMaterial(ctx, orgID, enums.MaterialKindBox, *b.BoxID, &box); err != nil {
		return err
	}
	b.BoxesUsed = box.BoxesFor(b.Quantity)
	return nil
}

// usage is the material consumption of one bottling.
type usage struct {
	bottle  uuid.UUID
	qty     int
	closure *uuid.UUID
	label   *uuid.UUID
	box     *uuid.UUID
	boxes   int
}

func usageOf(b *models.Bottling) *usage {
	return &usage{bottle: b.BottleID, qty: b.Quantity, closure: b.ClosureID, label: b.LabelID, box: b.BoxID, boxes: b.BoxesUsed}
}

type stockMove struct {
	kind  enums.MaterialKind
	id    uuid.UUID
	delta int
}

// consume moves stock from the previous usage (if any) to the next one.
// Returns are applied before consumption so swapping between materials
// never fails on stock the bottling already holds.
func (s *service) consume(ctx context.Context, repo Repository, orgID uuid.UUID, next, prev *usage) error {
	var returns []stockMove
	if prev != nil {
		returns = prev.moves()
	}
	takes := next.moves()
	for i := range takes {
		takes[i].delta = -takes[i].delta
	}

	for _, m := range netMoves(returns, takes) {
		if err := repo.AdjustStock(ctx, orgID, m.kind, m.id, m.delta); err != nil {
			if errors.Is(err, ErrInsufficientStock) {
				return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "insufficient %s stock", m.kind).
					WithDetails(map[string]string{string(m.kind) + "_id": "not enough stock"})
			}
			return err
		}
	}
	return nil
}

// moves lists the units a usage holds per material.
func (u *usage) moves() []stockMove {
	out := []stockMove{{kind: enums.MaterialKindBottle, id: u.bottle, delta: u.qty}}
	if u.closure != nil {
		out = append(out, stockMove{kind: enums.MaterialKindClosure, id: *u.closure, delta: u.qty})
	}
	if u.label != nil {
		out = append(out, stockMove{kind: enums.MaterialKindLabel, id: *u.label, delta: u.qty})
	}
	if u.box != nil && u.boxes > 0 {
		out = append(out, stockMove{kind: enums.MaterialKindBox, id: *u.box, delta: u.boxes})
	}
	return out
}

// netMoves folds returns and takes on the same material into one delta,
// keeping returns ahead of takes.
func netMoves(returns, takes []stockMove) []stockMove {
	type key struct {
		kind enums.MaterialKind
		id   uuid.UUID
	}
	totals := make(map[key]int)
	var order []key
	for _, m := range append(append([]stockMove{}, returns...), takes...) {
		k := key{m.kind, m.id}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] += m.delta
	}

	var positive, negative []stockMove
	for _, k := range order {
		delta := totals[k]
		switch {
		case delta > 0:
			positive = append(positive, stockMove{kind: k.kind, id: k.id, delta: delta})
		case delta < 0:
			negative = append(negative, stockMove{kind: k.kind, id: k.id, delta: delta})
		}
	}
	return append(positive, negative...)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, orgID, actorID uuid.UUID, b *models.Bottling, volume decimal.Decimal, note string) error {
	tankID, bottlingID := b.TankID, b.ID
	_, err := s.ledger.Apply(ctx, tx, ledger.Mutation{
		OrganizationID: orgID,
		TankID:         tankID,
		Operation:      enums.TankOperationBottling,
		Volume:         volume,
		Date:           b.BottlingDate,
		SourceTankID:   &tankID,
		BottlingID:     &bottlingID,
		Notes:          note,
		ActorID:        actorRef(actorID),
	})
	return err
}

func (s *service) load(ctx context.Context, repo Repository, orgID uuid.UUID, kind enums.MaterialKind, id uuid.UUID) (record, error) {
	rec, err := newRecord(kind)
	if err != nil {
		return nil, err
	}
	if err := repo.GetMaterial(ctx, orgID, kind, id, rec.model()); err != nil {
		return nil, err
	}
	return rec, nil
}

func validateBottling(quantity int, missingDate bool) error {
	if quantity <= 0 {
		return pkgerrors.FieldError("quantity", "quantity must be a positive number")
	}
	if missingDate {
		return pkgerrors.FieldError("bottling_date", "bottling date is required")
	}
	return nil
}

func validateMaterial(kind enums.MaterialKind, input MaterialInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.FieldError("name", "name is required")
	}
	if input.Stock < 0 {
		return pkgerrors.FieldError("stock", "stock cannot be negative")
	}
	if input.MinimumStock < 0 {
		return pkgerrors.FieldError("minimum_stock", "minimum stock cannot be negative")
	}
	if input.Price.Valid && input.Price.Decimal.IsNegative() {
		return pkgerrors.FieldError("price", "price cannot be negative")
	}

	switch kind {
	case enums.MaterialKindBottle:
		if !input.BottleType.IsValid() {
			return pkgerrors.FieldError("bottle_type", "invalid bottle type")
		}
		if input.VolumeML <= 0 {
			return pkgerrors.FieldError("volume", "volume must be a positive number of millilitres")
		}
		if !input.GlassColor.IsValid() {
			return pkgerrors.FieldError("glass_color", "invalid glass color")
		}
	case enums.MaterialKindClosure:
		if !input.ClosureType.IsValid() {
			return pkgerrors.FieldError("closure_type", "invalid closure type")
		}
		if !enums.ClosureMaterial(input.Material).IsValid() {
			return pkgerrors.FieldError("material", "invalid closure material")
		}
	case enums.MaterialKindLabel:
		if !input.LabelType.IsValid() {
			return pkgerrors.FieldError("label_type", "invalid label type")
		}
		if !enums.LabelMaterial(input.Material).IsValid() {
			return pkgerrors.FieldError("material", "invalid label material")
		}
	case enums.MaterialKindBox:
		if !input.BoxType.IsValid() {
			return pkgerrors.FieldError("box_type", "invalid box type")
		}
		if !enums.BoxMaterial(input.Material).IsValid() {
			return pkgerrors.FieldError("material", "invalid box material")
		}
		if input.BottleCapacity <= 0 {
			return pkgerrors.FieldError("bottle_capacity", "bottle capacity must be a positive number")
		}
	default:
		return unknownKind(kind)
	}
	return nil
}

func unknownKind(kind enums.MaterialKind) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown material kind %q", kind)
}

func mapRows[T any](rows []T, fn func(T) Material) []Material {
	out := make([]Material, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func actorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
