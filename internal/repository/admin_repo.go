package repository

import (
	"context"
	"time"

	"go-admin-console/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	// FindProtected returns the protected super admin, whatever its login.
	FindProtected(ctx context.Context) (*model.Admin, error)
	// LockByID takes an exclusive row lock; callers must be inside Store.Transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
	FindAll(ctx context.Context, filter AdminFilter, page Page) ([]model.Admin, int64, error)
	CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error)
	Create(ctx context.Context, admin *model.Admin) error
	Update(ctx context.Context, admin *model.Admin) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetLockedUntil(ctx context.Context, id uuid.UUID, until time.Time) error
}

type adminRepo struct {
	db *gorm.DB
}

func NewAdminRepo(db *gorm.DB) AdminRepository {
	return &adminRepo{db}
}

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", model.NormalizeEmail(email)).First(&admin).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *adminRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Preload("Role").First(&admin, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *adminRepo) FindProtected(ctx context.Context) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Preload("Role").Where("is_protected = ?", true).First(&admin).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *adminRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Role").
		First(&admin, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *adminRepo) FindAll(ctx context.Context, filter AdminFilter, page Page) ([]model.Admin, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Admin{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RoleID != nil {
		query = query.Where("role_id = ?", *filter.RoleID)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	page = page.Normalize()
	var admins []model.Admin
	err := query.Preload("Role").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&admins).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return admins, total, nil
}

func (r *adminRepo) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Admin{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, translate(err)
}

func (r *adminRepo) Create(ctx context.Context, admin *model.Admin) error {
	admin.Email = model.NormalizeEmail(admin.Email)
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(admin).Error)
}

func (r *adminRepo) Update(ctx context.Context, admin *model.Admin) error {
	admin.Email = model.NormalizeEmail(admin.Email)
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(admin).Error)
}

func (r *adminRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Admin{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&model.Admin{}).Where("id = ?", id).Update("last_login_at", at).Error)
}

func (r *adminRepo) SetLockedUntil(ctx context.Context, id uuid.UUID, until time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&model.Admin{}).Where("id = ?", id).Update("locked_until", until).Error)
}
