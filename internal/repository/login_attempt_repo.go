package repository

import (
	"context"
	"time"

	"go-admin-console/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *model.LoginAttempt) error
	// CountFailuresSince counts lockout-relevant failures after since.
	CountFailuresSince(ctx context.Context, adminID uuid.UUID, since time.Time) (int, error)
	// KnownIPs lists the distinct addresses of the admin's successful logins.
	KnownIPs(ctx context.Context, adminID uuid.UUID) ([]string, error)
	FindAll(ctx context.Context, filter LoginAttemptFilter, page Page) ([]model.LoginAttempt, int64, error)
}

type loginAttemptRepo struct {
	db *gorm.DB
}

func NewLoginAttemptRepo(db *gorm.DB) LoginAttemptRepository {
	return &loginAttemptRepo{db: db}
}

func (r *loginAttemptRepo) Create(ctx context.Context, attempt *model.LoginAttempt) error {
	return translate(r.db.WithContext(ctx).Create(attempt).Error)
}

func (r *loginAttemptRepo) CountFailuresSince(ctx context.Context, adminID uuid.UUID, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LoginAttempt{}).
		Where("admin_id = ? AND success = ? AND timestamp > ?", adminID, false, since).
		Where("failure_reason IN ?", model.LockoutFailureReasons).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return int(count), nil
}

func (r *loginAttemptRepo) KnownIPs(ctx context.Context, adminID uuid.UUID) ([]string, error) {
	var ips []string
	err := r.db.WithContext(ctx).Model(&model.LoginAttempt{}).
		Distinct("ip_address").
		Where("admin_id = ? AND success = ?", adminID, true).
		Pluck("ip_address", &ips).Error
	return ips, translate(err)
}

func (r *loginAttemptRepo) FindAll(ctx context.Context, filter LoginAttemptFilter, page Page) ([]model.LoginAttempt, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.LoginAttempt{})
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.Suspicious != nil {
		query = query.Where("suspicious = ?", *filter.Suspicious)
	}
	if filter.StartDate != nil {
		query = query.Where("timestamp >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("timestamp <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	page = page.Normalize()
	var attempts []model.LoginAttempt
	err := query.Order("timestamp DESC").Limit(page.Limit).Offset(page.Offset()).Find(&attempts).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return attempts, total, nil
}
