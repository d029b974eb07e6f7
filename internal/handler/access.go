package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

// PermissionChecker answers whether a doctor currently holds a patient's grant.
type PermissionChecker interface {
	Allowed(ctx context.Context, patientAddress, doctorAddress string) (bool, error)
}

// Access decides whether a caller may see or change a patient's data.
// Patients reach their own data, admins reach everything, and doctors need
// a grant from the patient unless enforcement is switched off.
type Access struct {
	perms   PermissionChecker
	enforce bool
}

func NewAccess(perms PermissionChecker, enforce bool) *Access {
	return &Access{perms: perms, enforce: enforce}
}

func (a *Access) Patient(ctx context.Context, actor model.Actor, patientAddress string) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if model.SameAddress(actor.Address, patientAddress) {
			return nil
		}
	case model.RoleDoctor:
		if !a.enforce {
			return nil
		}
		ok, err := a.perms.Allowed(ctx, patientAddress, actor.Address)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return apperrors.Forbidden("doctor has no access to this patient")
	}
	return apperrors.Forbidden("access to this patient is not allowed")
}

// Self allows only the patient themself, or an admin.
func (a *Access) Self(actor model.Actor, patientAddress string) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.Role == model.RolePatient && model.SameAddress(actor.Address, patientAddress) {
		return nil
	}
	return apperrors.Forbidden("only the patient may view this")
}

// BindError hands a request binding failure to the error middlewares.
func BindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
}
