package repository

import (
	"context"

	"go-admin-console/internal/model"

	"gorm.io/gorm"
)

// ActivityLogRepository is append-only: there is no update or delete.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	FindAll(ctx context.Context, filter ActivityLogFilter, page Page) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *activityLogRepo) FindAll(ctx context.Context, filter ActivityLogFilter, page Page) ([]model.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.PerformedBy != nil {
		query = query.Where("performed_by = ?", *filter.PerformedBy)
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
	var entries []model.ActivityLog
	err := query.Order("timestamp DESC").Limit(page.Limit).Offset(page.Offset()).Find(&entries).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return entries, total, nil
}
