package service

import (
	"context"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
)

// AuditService reads the append-only activity and login trails
type AuditService interface {
	ListActivityLogs(ctx context.Context, filter repository.ActivityLogFilter, page repository.Page) (*ListResult[model.ActivityLog], error)
	ListLoginHistory(ctx context.Context, filter repository.LoginAttemptFilter, page repository.Page) (*ListResult[model.LoginAttempt], error)
}

type auditService struct {
	Deps
}

func NewAuditService(deps Deps) AuditService {
	return &auditService{Deps: deps}
}

func (s *auditService) ListActivityLogs(ctx context.Context, filter repository.ActivityLogFilter, page repository.Page) (*ListResult[model.ActivityLog], error) {
	page = page.Normalize()
	logs, total, err := s.Store.ActivityLogs().FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return newListResult(logs, total, page), nil
}

func (s *auditService) ListLoginHistory(ctx context.Context, filter repository.LoginAttemptFilter, page repository.Page) (*ListResult[model.LoginAttempt], error) {
	page = page.Normalize()
	attempts, total, err := s.Store.LoginAttempts().FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return newListResult(attempts, total, page), nil
}
