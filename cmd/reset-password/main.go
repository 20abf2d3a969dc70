package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"go-admin-console/internal/config"
	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/security"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/cache"
	"go-admin-console/pkg/database"
	applog "go-admin-console/pkg/logger"
)

func main() {
	login := flag.String("login", "", "login identifier of the admin (defaults to SUPER_ADMIN_LOGIN)")
	password := flag.String("password", "", "new password; must satisfy the current security policy")
	flag.Parse()

	// 1. Load Env
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := applog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if *login == "" {
		*login = cfg.SuperAdminLogin
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: reset-password -login <email> -password <new password>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DSN(), zlog, gormlogger.Warn)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	store := repository.NewStore(db)

	// 3. Check the password against the policy
	policy, err := store.Policies().Get(ctx)
	if err != nil {
		zlog.Fatal("failed to load security policy", zap.Error(err))
	}
	if violations := security.ValidatePassword(policy.PasswordPolicy, *password); len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.Message
		}
		zlog.Fatal("password rejected by security policy", zap.String("violations", strings.Join(msgs, "; ")))
	}

	// 4. Update and audit
	var admin *model.Admin
	now := time.Now()
	err = store.Transaction(ctx, func(tx repository.Store) error {
		found, err := tx.Admins().FindByEmail(ctx, *login)
		if err != nil {
			return fmt.Errorf("admin %s: %w", *login, err)
		}
		admin, err = tx.Admins().LockByID(ctx, found.ID)
		if err != nil {
			return err
		}
		if err := admin.SetPassword(*password, now); err != nil {
			return err
		}
		admin.UpdatedBy = "system"
		if err := tx.Admins().Update(ctx, admin); err != nil {
			return err
		}
		return tx.ActivityLogs().Create(ctx, &model.ActivityLog{
			Timestamp:        now,
			ActionType:       model.ActionPasswordReset,
			PerformedByEmail: "system",
			TargetID:         admin.ID.String(),
			Description:      fmt.Sprintf("Reset password of %s from the command line", admin.Email),
		})
	})
	if err != nil {
		zlog.Fatal("password reset failed", zap.Error(err))
	}

	// 5. Revoke live sessions
	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		zlog.Warn("password reset but sessions were not revoked", zap.Error(err))
		return
	}
	defer redisClient.Close()
	if err := session.NewStore(redisClient, cfg.SessionPrefix).RevokeAll(ctx, admin.ID); err != nil {
		zlog.Warn("password reset but sessions were not revoked", zap.Error(err))
		return
	}

	zlog.Info("password reset", zap.String("login", admin.Email))
}
