package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/security"
	"go-admin-console/pkg/validator"
)

type AdminService interface {
	CreateAdmin(ctx context.Context, actor Actor, req *CreateAdminRequest) (*model.Admin, error)
	UpdateAdmin(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateAdminRequest) (*model.Admin, error)
	DeleteAdmin(ctx context.Context, actor Actor, id uuid.UUID) error
	SuspendAdmin(ctx context.Context, actor Actor, id uuid.UUID) (*model.Admin, error)
	ActivateAdmin(ctx context.Context, actor Actor, id uuid.UUID) (*model.Admin, error)
	DeactivateAdmin(ctx context.Context, actor Actor, id uuid.UUID) (*model.Admin, error)
	ResetPassword(ctx context.Context, actor Actor, id uuid.UUID, newPassword string) error
	GetAdmin(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	ListAdmins(ctx context.Context, filter repository.AdminFilter, page repository.Page) (*ListResult[model.AdminResponse], error)
}

type CreateAdminRequest struct {
	FullName          string    `json:"full_name" validate:"required,max=255"`
	Email             string    `json:"email" validate:"required,email,max=255"`
	Password          string    `json:"password" validate:"required,max=128"`
	Phone             string    `json:"phone" validate:"max=30"`
	Department        string    `json:"department" validate:"max=100"`
	RoleID            uuid.UUID `json:"role_id" validate:"uuid_required"`
	CustomPermissions []string  `json:"custom_permissions"`
}

// UpdateAdminRequest is a partial update; nil fields are left untouched.
type UpdateAdminRequest struct {
	FullName          *string    `json:"full_name,omitempty" validate:"omitempty,min=1,max=255"`
	Email             *string    `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password          *string    `json:"password,omitempty" validate:"omitempty,max=128"`
	Phone             *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	Department        *string    `json:"department,omitempty" validate:"omitempty,max=100"`
	RoleID            *uuid.UUID `json:"role_id,omitempty"`
	CustomPermissions *[]string  `json:"custom_permissions,omitempty"`
}

func (r *UpdateAdminRequest) empty() bool {
	return r.FullName == nil && r.Email == nil && r.Password == nil && r.Phone == nil &&
		r.Department == nil && r.RoleID == nil && r.CustomPermissions == nil
}

// touchesProfile reports whether the patch edits anything besides the login
// identifier and the password.
func (r *UpdateAdminRequest) touchesProfile() bool {
	return r.FullName != nil || r.Phone != nil || r.Department != nil ||
		r.RoleID != nil || r.CustomPermissions != nil
}

type adminService struct {
	Deps
}

func NewAdminService(deps Deps) AdminService {
	return &adminService{Deps: deps}
}

func (s *adminService) CreateAdmin(ctx context.Context, actor Actor, req *CreateAdminRequest) (*model.Admin, error) {
	// 1. Authorize and validate request
	if err := actor.authorize(model.PermAdminsCreate); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if err := checkPermissions(req.CustomPermissions); err != nil {
		return nil, err
	}

	// 2. Check password against the current policy
	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return nil, err
	}
	if violations := security.ValidatePassword(policy.PasswordPolicy, req.Password); len(violations) > 0 {
		return nil, &ValidationError{Message: "password does not satisfy the security policy", Violations: violations, Err: ErrWeakPassword}
	}

	now := s.now()
	roleID := req.RoleID
	admin := &model.Admin{
		FullName:          strings.TrimSpace(req.FullName),
		Email:             model.NormalizeEmail(req.Email),
		Phone:             req.Phone,
		Department:        req.Department,
		RoleID:            &roleID,
		CustomPermissions: model.NormalizePermissions(req.CustomPermissions),
		Status:            model.StatusActive,
	}
	admin.CreatedBy = actor.name()
	admin.UpdatedBy = actor.name()
	if err := admin.SetPassword(req.Password, now); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// 3. Persist; the role is share-locked so it cannot be deleted underneath us
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		role, err := tx.Roles().ShareLockByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidRole
			}
			return err
		}
		if err := ensureEmailFree(ctx, tx, admin.Email, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Admins().Create(ctx, admin); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return duplicateEmail()
			}
			return err
		}
		admin.Role = role
		return tx.ActivityLogs().Create(ctx, actor.logEntry(now, model.ActionAdminCreated, admin.ID.String(),
			fmt.Sprintf("Created admin %s with role %s", admin.Email, role.Name)))
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *adminService) UpdateAdmin(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateAdminRequest) (*model.Admin, error) {
	if err := actor.authorize(model.PermAdminsUpdate); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if req.empty() {
		return nil, &ValidationError{Message: "no fields to update"}
	}
	if req.RoleID != nil && *req.RoleID == uuid.Nil {
		return nil, ErrInvalidRole
	}
	if req.CustomPermissions != nil {
		if err := checkPermissions(*req.CustomPermissions); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		policy, err := s.Store.Policies().Get(ctx)
		if err != nil {
			return nil, err
		}
		if violations := security.ValidatePassword(policy.PasswordPolicy, *req.Password); len(violations) > 0 {
			return nil, &ValidationError{Message: "password does not satisfy the security policy", Violations: violations, Err: ErrWeakPassword}
		}
	}

	now := s.now()
	var admin *model.Admin
	var changed []string
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		admin, err = tx.Admins().LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if admin.IsProtected && req.touchesProfile() {
			return ErrProtectedResource
		}

		if req.Email != nil {
			email := model.NormalizeEmail(*req.Email)
			if email != admin.Email {
				if err := ensureEmailFree(ctx, tx, email, admin.ID); err != nil {
					return err
				}
				admin.Email = email
				changed = append(changed, "email")
			}
		}
		if req.RoleID != nil {
			role, err := tx.Roles().ShareLockByID(ctx, *req.RoleID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrInvalidRole
				}
				return err
			}
			admin.RoleID = &role.ID
			admin.Role = role
			changed = append(changed, "role")
		}
		if req.FullName != nil {
			admin.FullName = strings.TrimSpace(*req.FullName)
			changed = append(changed, "full_name")
		}
		if req.Phone != nil {
			admin.Phone = *req.Phone
			changed = append(changed, "phone")
		}
		if req.Department != nil {
			admin.Department = *req.Department
			changed = append(changed, "department")
		}
		if req.CustomPermissions != nil {
			admin.CustomPermissions = model.NormalizePermissions(*req.CustomPermissions)
			changed = append(changed, "custom_permissions")
		}
		if req.Password != nil {
			if err := admin.SetPassword(*req.Password, now); err != nil {
				return errors.New("failed to hash password")
			}
			changed = append(changed, "password")
		}
		admin.UpdatedBy = actor.name()

		if err := tx.Admins().Update(ctx, admin); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return duplicateEmail()
			}
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(now, model.ActionAdminUpdated, admin.ID.String(),
			fmt.Sprintf("Updated admin %s (%s)", admin.Email, strings.Join(changed, ", "))))
	})
	if err != nil {
		return nil, err
	}

	if req.Password != nil {
		if err := s.Sessions.RevokeAll(ctx, admin.ID); err != nil {
			return nil, err
		}
	}
	return admin, nil
}

func (s *adminService) DeleteAdmin(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.authorize(model.PermAdminsDelete); err != nil {
		return err
	}

	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		admin, err := tx.Admins().LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if admin.IsProtected {
			return ErrProtectedResource
		}
		if err := tx.Admins().Delete(ctx, admin.ID); err != nil {
			return mapNotFound(err, "admin")
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(s.now(), model.ActionAdminDeleted, admin.ID.String(),
			fmt.Sprintf("Deleted admin %s", admin.Email)))
	})
	if err != nil {
		return err
	}

	if err := s.Sessions.RevokeAll(ctx, id); err != nil {
		return err
	}
	s.publish("admin_deleted", map[string]interface{}{"admin_id": id})
	return nil
}

func (s *adminService) SuspendAdmin(ctx context.Context, actor Actor, id uuid.UUID) (*model.Admin, error) {
	return s.transition(ctx, actor, id, model.PermAdminsSuspend, model.StatusSuspended, model.ActionAdminSuspended)
}

func (s *adminService) ActivateAdmin(ctx context.Context, actor Actor, id uuid.UUID) (*model.Admin, error) {
	return s.transition(ctx, actor, id, model.PermAdminsActivate, model.StatusActive, model.ActionAdminActivated)
}

func (s *adminService) DeactivateAdmin(ctx context.Context, actor Actor, id uuid.UUID) (*model.Admin, error) {
	return s.transition(ctx, actor, id, model.PermAdminsDeactivate, model.StatusDeactivated, model.ActionAdminDeactivated)
}

func (s *adminService) transition(ctx context.Context, actor Actor, id uuid.UUID, perm model.Permission, to model.AccountStatus, action model.ActionType) (*model.Admin, error) {
	if err := actor.authorize(perm); err != nil {
		return nil, err
	}

	var admin *model.Admin
	var from model.AccountStatus
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		admin, err = tx.Admins().LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if admin.IsProtected {
			return ErrProtectedResource
		}
		from = admin.Status
		next, err := admin.Status.Transition(to)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		admin.Status = next
		admin.UpdatedBy = actor.name()
		if err := tx.Admins().Update(ctx, admin); err != nil {
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(s.now(), action, admin.ID.String(),
			fmt.Sprintf("Changed status of %s from %s to %s", admin.Email, from, to)))
	})
	if err != nil {
		return nil, err
	}

	if to != model.StatusActive {
		if err := s.Sessions.RevokeAll(ctx, admin.ID); err != nil {
			return nil, err
		}
	}
	s.publish("admin_status_changed", map[string]interface{}{
		"admin_id": admin.ID,
		"from":     from,
		"to":       to,
	})
	return admin, nil
}

func (s *adminService) ResetPassword(ctx context.Context, actor Actor, id uuid.UUID, newPassword string) error {
	if err := actor.authorize(model.PermAdminsResetPassword); err != nil {
		return err
	}

	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return err
	}
	if violations := security.ValidatePassword(policy.PasswordPolicy, newPassword); len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}

	now := s.now()
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		admin, err := tx.Admins().LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if err := admin.SetPassword(newPassword, now); err != nil {
			return errors.New("failed to hash password")
		}
		admin.UpdatedBy = actor.name()
		if err := tx.Admins().Update(ctx, admin); err != nil {
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(now, model.ActionPasswordReset, admin.ID.String(),
			fmt.Sprintf("Reset password of %s", admin.Email)))
	})
	if err != nil {
		return err
	}
	return s.Sessions.RevokeAll(ctx, id)
}

func (s *adminService) GetAdmin(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	admin, err := s.Store.Admins().FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "admin")
	}
	return admin, nil
}

func (s *adminService) ListAdmins(ctx context.Context, filter repository.AdminFilter, page repository.Page) (*ListResult[model.AdminResponse], error) {
	page = page.Normalize()
	admins, total, err := s.Store.Admins().FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	data := make([]model.AdminResponse, len(admins))
	for i := range admins {
		data[i] = admins[i].ToResponse()
	}
	return newListResult(data, total, page), nil
}

func ensureEmailFree(ctx context.Context, tx repository.Store, email string, self uuid.UUID) error {
	existing, err := tx.Admins().FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return duplicateEmail()
	}
	return nil
}

func duplicateEmail() error {
	return &ValidationError{Message: ErrDuplicateEmail.Error(), Err: ErrDuplicateEmail}
}
