package organizations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/users"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/db/dbtest"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fixture struct {
	conn    *gorm.DB
	svc     Service
	org     *models.Organization
	owner   *models.User
	member  *models.User
	members *memberships.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, "organizations")
	ctx := context.Background()

	orgRepo := NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	svc, err := NewService(orgRepo, membershipRepo, userRepo, testPasswordConfig)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	org, err := orgRepo.Create(ctx, CreateOrganizationDTO{Name: "Vinarija Krauthaker", Slug: "vinarija-krauthaker"})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	owner, err := userRepo.Create(ctx, users.CreateUserDTO{Email: "owner@example.com", PasswordHash: "x", FirstName: "Iva", LastName: "Kovač"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	member, err := userRepo.Create(ctx, users.CreateUserDTO{Email: "member@example.com", PasswordHash: "x", FirstName: "Marko", LastName: "Babić"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := membershipRepo.CreateMembership(ctx, org.ID, owner.ID, enums.MemberRoleOwner, true); err != nil {
		t.Fatalf("create owner membership: %v", err)
	}
	if _, err := membershipRepo.CreateMembership(ctx, org.ID, member.ID, enums.MemberRoleMember, true); err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return fixture{conn: conn, svc: svc, org: org, owner: owner, member: member, members: membershipRepo}
}

func strPtr(v string) *string { return &v }

func TestNewServiceRequiresRepositories(t *testing.T) {
	if _, err := NewService(nil, nil, nil, testPasswordConfig); err == nil {
		t.Fatal("expected error creating service without repositories")
	}
}

func TestServiceGetByID(t *testing.T) {
	f := newFixture(t)

	dto, err := f.svc.GetByID(context.Background(), f.org.ID)
	if err != nil {
		t.Fatalf("get organization: %v", err)
	}
	if dto.Slug != "vinarija-krauthaker" || !dto.IsActive {
		t.Fatalf("unexpected organization %+v", dto)
	}

	_, err = f.svc.GetByID(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.member.ID, f.org.ID, UpdateOrganizationInput{Name: strPtr("Other")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for plain member, got %v", err)
	}

	dto, err := f.svc.Update(ctx, f.owner.ID, f.org.ID, UpdateOrganizationInput{
		Name:         strPtr("  Krauthaker d.o.o. "),
		TaxNumber:    strPtr("12345678901"),
		ContactEmail: strPtr(""),
	})
	if err != nil {
		t.Fatalf("update organization: %v", err)
	}
	if dto.Name != "Krauthaker d.o.o." {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.TaxNumber == nil || *dto.TaxNumber != "12345678901" {
		t.Fatalf("expected tax number to be set, got %v", dto.TaxNumber)
	}
	if dto.ContactEmail != nil {
		t.Fatalf("expected empty contact email to clear, got %v", *dto.ContactEmail)
	}

	other := &models.Organization{Name: "Other", Slug: "other", IsActive: true, TaxNumber: strPtr("99999999999")}
	if err := f.conn.Create(other).Error; err != nil {
		t.Fatalf("create other organization: %v", err)
	}
	_, err = f.svc.Update(ctx, f.owner.ID, f.org.ID, UpdateOrganizationInput{TaxNumber: strPtr("99999999999")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for duplicate tax number, got %v", err)
	}

	_, err = f.svc.Update(ctx, f.owner.ID, f.org.ID, UpdateOrganizationInput{Name: strPtr(" ")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestServiceAddMemberCreatesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dto, tempPassword, err := f.svc.AddMember(ctx, f.owner.ID, f.org.ID, AddMemberInput{
		Email:     "New.Hire@Example.com",
		FirstName: "Petra",
		LastName:  "Novak",
		Role:      enums.MemberRoleAdmin,
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if dto.Email != "new.hire@example.com" || dto.Role != enums.MemberRoleAdmin {
		t.Fatalf("unexpected member %+v", dto)
	}
	if len(tempPassword) != tempPasswordLength {
		t.Fatalf("expected temp password, got %q", tempPassword)
	}

	var user models.User
	if err := f.conn.Where("email = ?", "new.hire@example.com").First(&user).Error; err != nil {
		t.Fatalf("load new user: %v", err)
	}
	ok, err := security.VerifyPassword(tempPassword, user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected temp password to verify, ok=%v err=%v", ok, err)
	}

	members, err := f.svc.ListMembers(ctx, f.org.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
}

func TestServiceAddMemberRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.AddMember(ctx, f.member.ID, f.org.ID, AddMemberInput{Email: "x@example.com"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, _, err = f.svc.AddMember(ctx, f.owner.ID, f.org.ID, AddMemberInput{Email: "member@example.com"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for existing member, got %v", err)
	}

	_, _, err = f.svc.AddMember(ctx, f.owner.ID, f.org.ID, AddMemberInput{Email: "x@example.com", Role: enums.MemberRoleOwner})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for owner role, got %v", err)
	}

	_, _, err = f.svc.AddMember(ctx, f.owner.ID, f.org.ID, AddMemberInput{Email: "not-an-email"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for email, got %v", err)
	}

	second := &models.Organization{Name: "Second", Slug: "second", IsActive: true}
	if err := f.conn.Create(second).Error; err != nil {
		t.Fatalf("create organization: %v", err)
	}
	if _, err := f.members.CreateMembership(ctx, second.ID, f.owner.ID, enums.MemberRoleOwner, false); err != nil {
		t.Fatalf("create membership: %v", err)
	}
	dto, tempPassword, err := f.svc.AddMember(ctx, f.owner.ID, second.ID, AddMemberInput{Email: "member@example.com"})
	if err != nil {
		t.Fatalf("add existing user: %v", err)
	}
	if tempPassword != "" {
		t.Fatalf("existing users keep their password, got %q", tempPassword)
	}
	if dto.Role != enums.MemberRoleMember {
		t.Fatalf("expected default member role, got %s", dto.Role)
	}
}

func TestServiceListMineSkipsInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := &models.Organization{Name: "Closed", Slug: "closed", IsActive: true}
	if err := f.conn.Create(inactive).Error; err != nil {
		t.Fatalf("create organization: %v", err)
	}
	if err := f.conn.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate organization: %v", err)
	}
	if _, err := f.members.CreateMembership(ctx, inactive.ID, f.owner.ID, enums.MemberRoleOwner, false); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	mine, err := f.svc.ListMine(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].OrganizationID != f.org.ID {
		t.Fatalf("expected only the active organization, got %+v", mine)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Vinarija Krauthaker":  "vinarija-krauthaker",
		"  Podrum Šćepanović ": "podrum-scepanovic",
		"Đurđevac & Sinovi":    "durdevac-sinovi",
		"!!!":                  "organization",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)

	slug, err := UniqueSlug(context.Background(), repo, "Vinarija Krauthaker")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if slug != "vinarija-krauthaker-2" {
		t.Fatalf("expected suffixed slug, got %q", slug)
	}

	ids, err := repo.ListActiveIDs(context.Background())
	if err != nil {
		t.Fatalf("list active ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.org.ID {
		t.Fatalf("unexpected active ids %v", ids)
	}
}
