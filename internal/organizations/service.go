package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/users"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/security"
)

const tempPasswordLength = 16

type organizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	TaxNumberTaken(ctx context.Context, taxNumber string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, org *models.Organization) error
}

type membershipsRepository interface {
	UserHasRole(ctx context.Context, userID, organizationID uuid.UUID, roles ...enums.MemberRole) (bool, error)
	ListOrganizationUsers(ctx context.Context, organizationID uuid.UUID) ([]memberships.OrganizationUserDTO, error)
	ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]memberships.MembershipWithOrganization, error)
	GetMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.OrganizationMember, error)
	CreateMembership(ctx context.Context, organizationID, userID uuid.UUID, role enums.MemberRole, primary bool) (*models.OrganizationMember, error)
}

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// Service exposes organization and membership operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*OrganizationDTO, error)
	Update(ctx context.Context, userID, organizationID uuid.UUID, input UpdateOrganizationInput) (*OrganizationDTO, error)
	ListMembers(ctx context.Context, organizationID uuid.UUID) ([]memberships.OrganizationUserDTO, error)
	AddMember(ctx context.Context, actorID, organizationID uuid.UUID, input AddMemberInput) (*memberships.OrganizationUserDTO, string, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]memberships.MembershipWithOrganization, error)
}

type service struct {
	repo        organizationRepository
	memberships membershipsRepository
	users       usersRepository
	passwordCfg config.PasswordConfig
}

// NewService builds an organization service with the provided repositories.
func NewService(repo organizationRepository, memberships membershipsRepository, usersRepo usersRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if memberships == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		repo:        repo,
		memberships: memberships,
		users:       usersRepo,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*OrganizationDTO, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "organization")
	}
	return FromModel(org), nil
}

func (s *service) Update(ctx context.Context, userID, organizationID uuid.UUID, input UpdateOrganizationInput) (*OrganizationDTO, error) {
	if err := s.requireManager(ctx, userID, organizationID); err != nil {
		return nil, err
	}

	org, err := s.repo.FindByID(ctx, organizationID)
	if err != nil {
		return nil, db.MapError(err, "organization")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.FieldError("name", "name is required")
		}
		org.Name = name
	}
	if input.Address != nil {
		org.Address = cleanStringPtr(input.Address)
	}
	if input.TaxNumber != nil {
		org.TaxNumber = cleanStringPtr(input.TaxNumber)
		if org.TaxNumber != nil {
			taken, err := s.repo.TaxNumberTaken(ctx, *org.TaxNumber, org.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check tax number")
			}
			if taken {
				return nil, pkgerrors.FieldError("tax_number", "tax number already registered")
			}
		}
	}
	if input.ContactEmail != nil {
		org.ContactEmail = cleanStringPtr(input.ContactEmail)
	}
	if input.ContactPhone != nil {
		org.ContactPhone = cleanStringPtr(input.ContactPhone)
	}

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, db.MapError(err, "organization")
	}
	return FromModel(org), nil
}

func (s *service) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]memberships.OrganizationUserDTO, error) {
	members, err := s.memberships.ListOrganizationUsers(ctx, organizationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organization users")
	}
	return members, nil
}

// AddMember attaches a user to the organization, creating the account with a
// temporary password when the email is unknown. The password is returned
// only for newly created accounts.
func (s *service) AddMember(ctx context.Context, actorID, organizationID uuid.UUID, input AddMemberInput) (*memberships.OrganizationUserDTO, string, error) {
	if err := s.requireManager(ctx, actorID, organizationID); err != nil {
		return nil, "", err
	}

	email := users.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", pkgerrors.FieldError("email", "a valid email is required")
	}
	role := input.Role
	if role == "" {
		role = enums.MemberRoleMember
	}
	if !role.IsValid() || role == enums.MemberRoleOwner {
		return nil, "", pkgerrors.FieldError("role", "role must be admin or member")
	}

	var tempPassword string
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, tempPassword, err = s.createNewUser(ctx, email, input.FirstName, input.LastName)
		if err != nil {
			return nil, "", err
		}
	case err != nil:
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	if _, err := s.memberships.GetMembership(ctx, user.ID, organizationID); err == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeConflict, "user is already a member of this organization")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}

	if _, err := s.memberships.CreateMembership(ctx, organizationID, user.ID, role, false); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}

	member, err := s.fetchMember(ctx, organizationID, user.ID)
	if err != nil {
		return nil, "", err
	}
	return member, tempPassword, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]memberships.MembershipWithOrganization, error) {
	rows, err := s.memberships.ListUserOrganizations(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizations")
	}
	active := make([]memberships.MembershipWithOrganization, 0, len(rows))
	for _, row := range rows {
		if row.OrganizationActive {
			active = append(active, row)
		}
	}
	return active, nil
}

func (s *service) requireManager(ctx context.Context, userID, organizationID uuid.UUID) error {
	ok, err := s.memberships.UserHasRole(ctx, userID, organizationID, enums.MemberRoleOwner, enums.MemberRoleAdmin)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient organization role")
	}
	return nil
}

func (s *service) createNewUser(ctx context.Context, email, firstName, lastName string) (*models.User, string, error) {
	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, tempPassword, nil
}

func (s *service) fetchMember(ctx context.Context, organizationID, userID uuid.UUID) (*memberships.OrganizationUserDTO, error) {
	members, err := s.memberships.ListOrganizationUsers(ctx, organizationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organization users")
	}
	for _, m := range members {
		if m.UserID == userID {
			return &m, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
}
