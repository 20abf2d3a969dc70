package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/pkg/validator"
)

type RoleService interface {
	CreateRole(ctx context.Context, actor Actor, req *CreateRoleRequest) (*model.Role, error)
	UpdateRole(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateRoleRequest) (*model.Role, error)
	DeleteRole(ctx context.Context, actor Actor, id uuid.UUID) error
	GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error)
	ListRoles(ctx context.Context, filter repository.RoleFilter) ([]model.Role, error)
	ListPermissionModules() []model.PermissionModule
}

type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions"`
}

type UpdateRoleRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Permissions *[]string `json:"permissions,omitempty"`
}

type roleService struct {
	Deps
}

func NewRoleService(deps Deps) RoleService {
	return &roleService{Deps: deps}
}

func (s *roleService) CreateRole(ctx context.Context, actor Actor, req *CreateRoleRequest) (*model.Role, error) {
	// 1. Authorize and validate request
	if err := actor.authorize(model.PermRolesCreate); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Message: "role name is required"}
	}
	if err := checkPermissions(req.Permissions); err != nil {
		return nil, err
	}

	role := &model.Role{
		Name:        name,
		Description: req.Description,
		Permissions: model.NormalizePermissions(req.Permissions),
	}
	role.CreatedBy = actor.name()
	role.UpdatedBy = actor.name()

	// 2. Check uniqueness and persist with its audit entry
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		if err := ensureRoleNameFree(ctx, tx, name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Roles().Create(ctx, role); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrDuplicateName
			}
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(s.now(), model.ActionRoleCreated, role.ID.String(),
			fmt.Sprintf("Created role %s", role.Name)))
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *roleService) UpdateRole(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateRoleRequest) (*model.Role, error) {
	if err := actor.authorize(model.PermRolesUpdate); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, &ValidationError{Message: "role name is required"}
	}
	if req.Permissions != nil {
		if err := checkPermissions(*req.Permissions); err != nil {
			return nil, err
		}
	}

	var role *model.Role
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		role, err = tx.Roles().LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "role")
		}
		if role.IsSystemRole {
			return ErrProtectedResource
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if model.RoleNameKey(name) != role.NameKey {
				if err := ensureRoleNameFree(ctx, tx, name, role.ID); err != nil {
					return err
				}
			}
			role.Name = name
		}
		if req.Description != nil {
			role.Description = *req.Description
		}
		if req.Permissions != nil {
			role.Permissions = model.NormalizePermissions(*req.Permissions)
		}
		role.UpdatedBy = actor.name()

		if err := tx.Roles().Update(ctx, role); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrDuplicateName
			}
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(s.now(), model.ActionRoleUpdated, role.ID.String(),
			fmt.Sprintf("Updated role %s", role.Name)))
	})
	if err != nil {
		return nil, err
	}

	s.publish("role_updated", map[string]interface{}{"role_id": role.ID})
	return role, nil
}

func (s *roleService) DeleteRole(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.authorize(model.PermRolesDelete); err != nil {
		return err
	}

	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		role, err := tx.Roles().LockByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "role")
		}
		if role.IsSystemRole {
			return ErrProtectedResource
		}
		// The role row lock blocks concurrent assignments, which share-lock it.
		inUse, err := tx.Admins().CountByRole(ctx, role.ID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return fmt.Errorf("%w: role is assigned to %d admin(s)", ErrResourceInUse, inUse)
		}
		if err := tx.Roles().Delete(ctx, role.ID); err != nil {
			return mapNotFound(err, "role")
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(s.now(), model.ActionRoleDeleted, role.ID.String(),
			fmt.Sprintf("Deleted role %s", role.Name)))
	})
	if err != nil {
		return err
	}

	s.publish("role_deleted", map[string]interface{}{"role_id": id})
	return nil
}

func (s *roleService) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	role, err := s.Store.Roles().FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "role")
	}
	return role, nil
}

func (s *roleService) ListRoles(ctx context.Context, filter repository.RoleFilter) ([]model.Role, error) {
	roles, err := s.Store.Roles().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []model.Role{}
	}
	return roles, nil
}

func (s *roleService) ListPermissionModules() []model.PermissionModule {
	return model.ListPermissionModules()
}

func ensureRoleNameFree(ctx context.Context, tx repository.Store, name string, self uuid.UUID) error {
	existing, err := tx.Roles().FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return ErrDuplicateName
	}
	return nil
}
