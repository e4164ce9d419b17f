package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/organizations"
	"github.com/vinco/vinco-backend/internal/users"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/db/models"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/security"
)

// RegisterRequest contains the payload required for onboarding a new winery.
type RegisterRequest struct {
	FirstName        string  `json:"first_name" validate:"required"`
	LastName         string  `json:"last_name" validate:"required"`
	Email            string  `json:"email" validate:"required,email"`
	Password         string  `json:"password" validate:"required"`
	OrganizationName string  `json:"organization_name" validate:"required"`
	Address          *string `json:"address,omitempty"`
	TaxNumber        *string `json:"tax_number,omitempty"`
	ContactEmail     *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone     *string `json:"contact_phone,omitempty"`
}

// RegisterResponse describes the accounts created by registration.
type RegisterResponse struct {
	User         *users.UserDTO                 `json:"user"`
	Organization *organizations.OrganizationDTO `json:"organization"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerOrganizationRepository interface {
	Create(ctx context.Context, dto organizations.CreateOrganizationDTO) (*models.Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	TaxNumberTaken(ctx context.Context, taxNumber string, exclude uuid.UUID) (bool, error)
}

type registerMembershipRepository interface {
	CreateMembership(ctx context.Context, organizationID, userID uuid.UUID, role enums.MemberRole, primary bool) (*models.OrganizationMember, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// Repository factories default to the gorm-backed repositories.
type RegisterServiceParams struct {
	TxRunner txRunner
	UserRepoFactory         func(tx *gorm.DB) registerUserRepository
	OrganizationRepoFactory func(tx *gorm.DB) registerOrganizationRepository
	MembershipRepoFactory   func(tx *gorm.DB) registerMembershipRepository
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	tx txRunner
	userRepoFactory func(tx *gorm.DB) registerUserRepository
	orgRepoFactory  func(tx *gorm.DB) registerOrganizationRepository
	memberFactory   func(tx *gorm.DB) registerMembershipRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	svc := &registerService{
		tx:              params.TxRunner,
		userRepoFactory: params.UserRepoFactory,
		orgRepoFactory:  params.OrganizationRepoFactory,
		memberFactory:   params.MembershipRepoFactory,
		passwordCfg:     params.PasswordConfig,
	}
	if svc.userRepoFactory == nil {
		svc.userRepoFactory = func(tx *gorm.DB) registerUserRepository { return users.NewRepository(tx) }
	}
	if svc.orgRepoFactory == nil {
		svc.orgRepoFactory = func(tx *gorm.DB) registerOrganizationRepository { return organizations.NewRepository(tx) }
	}
	if svc.memberFactory == nil {
		svc.memberFactory = func(tx *gorm.DB) registerMembershipRepository { return memberships.NewRepository(tx) }
	}
	return svc, nil
}

// Register creates the user, the organization and the owner membership in
// one transaction.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.FieldError("email", "email is required")
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		return nil, pkgerrors.FieldError("organization_name", "organization name is required")
	}
	if reason := security.CheckPasswordPolicy(req.Password); reason != "" {
		return nil, pkgerrors.FieldError("password", reason)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var out RegisterResponse
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepoFactory(tx)
		orgRepo := s.orgRepoFactory(tx)
		membershipRepo := s.memberFactory(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if req.TaxNumber != nil && strings.TrimSpace(*req.TaxNumber) != "" {
			taken, err := orgRepo.TaxNumberTaken(ctx, strings.TrimSpace(*req.TaxNumber), uuid.Nil)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check tax number")
			}
			if taken {
				return pkgerrors.FieldError("tax_number", "tax number already registered")
			}
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
		})
		if err != nil {
			return db.MapError(err, "user")
		}

		slug, err := organizations.UniqueSlug(ctx, orgRepo, req.OrganizationName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate slug")
		}
		org, err := orgRepo.Create(ctx, organizations.CreateOrganizationDTO{
			Name:         req.OrganizationName,
			Slug:         slug,
			Address:      req.Address,
			TaxNumber:    req.TaxNumber,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
		})
		if err != nil {
			return db.MapError(err, "organization")
		}

		if _, err := membershipRepo.CreateMembership(ctx, org.ID, user.ID, enums.MemberRoleOwner, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
		}

		out = RegisterResponse{User: users.FromModel(user), Organization: organizations.FromModel(org)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
