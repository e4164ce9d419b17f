package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/organizations"
	"github.com/vinco/vinco-backend/pkg/enums"
)

type stubOrganizationService struct {
	organizations.Service

	org        *organizations.OrganizationDTO
	members    []memberships.OrganizationUserDTO
	mine       []memberships.MembershipWithOrganization
	tempPass   string
	err        error
	lastAdd    organizations.AddMemberInput
	lastUpdate organizations.UpdateOrganizationInput
	lastOrg    uuid.UUID
	lastUser   uuid.UUID
}

func (s *stubOrganizationService) GetByID(_ context.Context, id uuid.UUID) (*organizations.OrganizationDTO, error) {
	s.lastOrg = id
	return s.org, s.err
}

func (s *stubOrganizationService) Update(_ context.Context, userID, orgID uuid.UUID, input organizations.UpdateOrganizationInput) (*organizations.OrganizationDTO, error) {
	s.lastUser, s.lastOrg, s.lastUpdate = userID, orgID, input
	return s.org, s.err
}

func (s *stubOrganizationService) ListMembers(_ context.Context, orgID uuid.UUID) ([]memberships.OrganizationUserDTO, error) {
	s.lastOrg = orgID
	return s.members, s.err
}

func (s *stubOrganizationService) AddMember(_ context.Context, actorID, orgID uuid.UUID, input organizations.AddMemberInput) (*memberships.OrganizationUserDTO, string, error) {
	s.lastUser, s.lastOrg, s.lastAdd = actorID, orgID, input
	if s.err != nil {
		return nil, "", s.err
	}
	return &memberships.OrganizationUserDTO{OrganizationID: orgID, Email: input.Email, Role: input.Role}, s.tempPass, nil
}

func (s *stubOrganizationService) ListMine(_ context.Context, userID uuid.UUID) ([]memberships.MembershipWithOrganization, error) {
	s.lastUser = userID
	return s.mine, s.err
}

func TestOrganizationCurrentUsesActiveOrganization(t *testing.T) {
	scope := newScope()
	svc := &stubOrganizationService{org: &organizations.OrganizationDTO{ID: scope.OrganizationID, Name: "Vinarija"}}

	rec := serve(t, scope, http.MethodGet, "/organization", "/organization", "", OrganizationCurrent(svc, nil))
	expectStatus(t, rec, http.StatusOK)
	if svc.lastOrg != scope.OrganizationID {
		t.Fatalf("expected lookup of %s got %s", scope.OrganizationID, svc.lastOrg)
	}
}

func TestOrganizationCurrentRequiresActiveOrganization(t *testing.T) {
	scope := &requestScope{UserID: uuid.New()}
	rec := serve(t, scope, http.MethodGet, "/organization", "/organization", "", OrganizationCurrent(&stubOrganizationService{}, nil))
	expectStatus(t, rec, http.StatusForbidden)
}

func TestOrganizationUpdatePassesPartialFields(t *testing.T) {
	scope := newScope()
	svc := &stubOrganizationService{org: &organizations.OrganizationDTO{ID: scope.OrganizationID}}

	rec := serve(t, scope, http.MethodPatch, "/organization", "/organization",
		`{"contact_email":"ured@vinarija.hr"}`, OrganizationUpdate(svc, nil))
	expectStatus(t, rec, http.StatusOK)

	if svc.lastUpdate.Name != nil {
		t.Fatalf("expected name untouched")
	}
	if svc.lastUpdate.ContactEmail == nil || *svc.lastUpdate.ContactEmail != "ured@vinarija.hr" {
		t.Fatalf("unexpected contact email %+v", svc.lastUpdate.ContactEmail)
	}
	if svc.lastUser != scope.UserID {
		t.Fatalf("expected actor %s", scope.UserID)
	}
}

func TestOrganizationUpdateRejectsInvalidEmail(t *testing.T) {
	rec := serve(t, newScope(), http.MethodPatch, "/organization", "/organization",
		`{"contact_email":"nope"}`, OrganizationUpdate(&stubOrganizationService{}, nil))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestOrganizationAddMemberReturnsTemporaryPassword(t *testing.T) {
	scope := newScope()
	svc := &stubOrganizationService{tempPass: "Tmp#pass1"}

	rec := serve(t, scope, http.MethodPost, "/members", "/members",
		`{"email":"marko@vinarija.hr","first_name":"Marko","last_name":"Horvat","role":"member"}`,
		OrganizationAddMember(svc, nil))
	expectStatus(t, rec, http.StatusCreated)

	var body struct {
		Member            memberships.OrganizationUserDTO `json:"member"`
		TemporaryPassword string                          `json:"temporary_password"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &body); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if body.TemporaryPassword != "Tmp#pass1" {
		t.Fatalf("expected temporary password, got %q", body.TemporaryPassword)
	}
	if svc.lastAdd.Role != enums.MemberRoleMember {
		t.Fatalf("expected member role got %s", svc.lastAdd.Role)
	}
}

func TestOrganizationAddMemberRejectsOwnerRole(t *testing.T) {
	rec := serve(t, newScope(), http.MethodPost, "/members", "/members",
		`{"email":"marko@vinarija.hr","first_name":"Marko","last_name":"Horvat","role":"owner"}`,
		OrganizationAddMember(&stubOrganizationService{}, nil))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestOrganizationMembersAndMine(t *testing.T) {
	scope := newScope()
	svc := &stubOrganizationService{
		members: []memberships.OrganizationUserDTO{{UserID: scope.UserID, Role: enums.MemberRoleOwner}},
		mine:    []memberships.MembershipWithOrganization{{OrganizationID: scope.OrganizationID}},
	}

	rec := serve(t, scope, http.MethodGet, "/members", "/members", "", OrganizationMembers(svc, nil))
	expectStatus(t, rec, http.StatusOK)
	if env := decodeEnvelope(t, rec); env.Meta == nil || env.Meta.Count != 1 {
		t.Fatalf("expected one member, got %+v", env.Meta)
	}

	noOrg := &requestScope{UserID: scope.UserID}
	rec = serve(t, noOrg, http.MethodGet, "/mine", "/mine", "", MyOrganizations(svc, nil))
	expectStatus(t, rec, http.StatusOK)
	if svc.lastUser != scope.UserID {
		t.Fatalf("expected list for %s", scope.UserID)
	}
}
