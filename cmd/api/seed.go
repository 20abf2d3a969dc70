package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-admin-console/internal/config"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/service"
)

// seed prepares a fresh database and reports the protected super admin it created.
func seed(ctx context.Context, store repository.Store, cfg *config.Config, log *zap.Logger) error {
	result, err := service.Seed(ctx, store, time.Now, service.SeedOptions{
		Login:    cfg.SuperAdminLogin,
		FullName: cfg.SuperAdminName,
		Password: cfg.SuperAdminPassword,
	})
	if err != nil {
		return err
	}
	if result.Admin == nil {
		return nil
	}

	if result.GeneratedPassword != "" {
		log.Warn("protected super admin created with a generated password, change it after first login",
			zap.String("login", result.Admin.Email),
			zap.String("password", result.GeneratedPassword))
	} else {
		log.Info("protected super admin created", zap.String("login", result.Admin.Email))
	}
	return nil
}
