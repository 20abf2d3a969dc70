package repository

import (
	"context"
	"errors"

	"go-admin-console/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	FindAll(ctx context.Context, filter RoleFilter) ([]model.Role, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	// LockByID takes an exclusive row lock; callers must be inside Store.Transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	// ShareLockByID takes a shared row lock so the role cannot be deleted concurrently.
	ShareLockByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	SeedDefaults(ctx context.Context) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context, filter RoleFilter) ([]model.Role, error) {
	var roles []model.Role
	query := r.db.WithContext(ctx).Order("is_system_role DESC, name ASC")
	if filter.Search != "" {
		query = query.Where("name_key LIKE ?", "%"+model.RoleNameKey(filter.Search)+"%")
	}
	if filter.SystemRole != nil {
		query = query.Where("is_system_role = ?", *filter.SystemRole)
	}
	err := query.Find(&roles).Error
	return roles, translate(err)
}

func (r *roleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name_key = ?", model.RoleNameKey(name)).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&role, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) ShareLockByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}).First(&role, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	role.NameKey = model.RoleNameKey(role.Name)
	return translate(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) Update(ctx context.Context, role *model.Role) error {
	role.NameKey = model.RoleNameKey(role.Name)
	return translate(r.db.WithContext(ctx).Save(role).Error)
}

func (r *roleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Role{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaults creates the system roles if they don't exist
func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	for _, defaultRole := range model.DefaultRoles {
		_, err := r.FindByName(ctx, defaultRole.Name)
		if errors.Is(err, ErrNotFound) {
			role := defaultRole
			role.CreatedBy = "system"
			role.UpdatedBy = "system"
			if err := r.Create(ctx, &role); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
