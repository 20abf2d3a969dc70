package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
)

// SeedOptions describe the protected super admin created on first start.
type SeedOptions struct {
	Login    string
	FullName string
	// Password is generated when empty.
	Password string
}

// SeedResult reports what Seed created. Admin is nil when the protected
// account already existed.
type SeedResult struct {
	Admin             *model.Admin
	GeneratedPassword string
}

// Seed creates the system roles, the policy document and the protected super
// admin when they don't exist. It is safe to run on every start.
func Seed(ctx context.Context, store repository.Store, now func() time.Time, opts SeedOptions) (*SeedResult, error) {
	result := &SeedResult{}
	err := store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Roles().SeedDefaults(ctx); err != nil {
			return err
		}
		if err := tx.Policies().SeedDefaults(ctx); err != nil {
			return err
		}

		// The protected account may have changed its login since it was seeded.
		_, err := tx.Admins().FindProtected(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		role, err := tx.Roles().FindByName(ctx, model.RoleSuperAdmin)
		if err != nil {
			return err
		}

		password := opts.Password
		if password == "" {
			password = "Adm-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16] + "9x"
			result.GeneratedPassword = password
		}

		admin := &model.Admin{
			FullName:    opts.FullName,
			Email:       opts.Login,
			RoleID:      &role.ID,
			Status:      model.StatusActive,
			IsProtected: true,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"
		if err := admin.SetPassword(password, now()); err != nil {
			return err
		}
		if err := tx.Admins().Create(ctx, admin); err != nil {
			return err
		}
		result.Admin = admin
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
