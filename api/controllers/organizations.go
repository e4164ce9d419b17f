package controllers

import (
	"net/http"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/api/validators"
	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/organizations"
	"github.com/vinco/vinco-backend/pkg/enums"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/logger"
)

type updateOrganizationRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Address      *string `json:"address,omitempty"`
	TaxNumber    *string `json:"tax_number,omitempty" validate:"omitempty,max=64"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
}

type addMemberRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=admin member"`
}

type addMemberResponse struct {
	Member            *memberships.OrganizationUserDTO `json:"member"`
	TemporaryPassword string                           `json:"temporary_password,omitempty"`
}

// OrganizationCurrent returns the active organization.
func OrganizationCurrent(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("organization"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := svc.GetByID(r.Context(), scope.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

// OrganizationUpdate applies a partial update to the active organization.
func OrganizationUpdate(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("organization"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrganizationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := svc.Update(r.Context(), scope.UserID, scope.OrganizationID, organizations.UpdateOrganizationInput{
			Name:         body.Name,
			Address:      body.Address,
			TaxNumber:    body.TaxNumber,
			ContactEmail: body.ContactEmail,
			ContactPhone: body.ContactPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

func OrganizationMembers(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("organization"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		members, err := svc.ListMembers(r.Context(), scope.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, members, "")
	}
}

// OrganizationAddMember attaches a user by email, creating the account when
// it does not exist yet. The temporary password is only returned for new
// accounts.
func OrganizationAddMember(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("organization"))
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseMemberRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.FieldError("role", err.Error()))
			return
		}

		member, tempPassword, err := svc.AddMember(r.Context(), scope.UserID, scope.OrganizationID, organizations.AddMemberInput{
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Role:      role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, addMemberResponse{Member: member, TemporaryPassword: tempPassword})
	}
}

// MyOrganizations lists every organization the caller belongs to. It does
// not require an active organization.
func MyOrganizations(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("organization"))
			return
		}
		userID, err := userFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, rows, "")
	}
}
