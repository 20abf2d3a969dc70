package repository

import (
	"context"
	"errors"

	"go-admin-console/internal/model"

	"gorm.io/gorm"
)

type PolicyRepository interface {
	Get(ctx context.Context) (*model.SecurityPolicy, error)
	// Save writes policy if the stored version still equals expectedVersion and
	// bumps the version; otherwise it returns ErrConflict.
	Save(ctx context.Context, policy *model.SecurityPolicy, expectedVersion int) error
	SeedDefaults(ctx context.Context) error
}

type policyRepo struct {
	db *gorm.DB
}

func NewPolicyRepo(db *gorm.DB) PolicyRepository {
	return &policyRepo{db: db}
}

func (r *policyRepo) Get(ctx context.Context) (*model.SecurityPolicy, error) {
	var policy model.SecurityPolicy
	if err := r.db.WithContext(ctx).First(&policy, model.SecurityPolicyID).Error; err != nil {
		return nil, translate(err)
	}
	return &policy, nil
}

func (r *policyRepo) Save(ctx context.Context, policy *model.SecurityPolicy, expectedVersion int) error {
	policy.ID = model.SecurityPolicyID
	policy.Version = expectedVersion + 1
	res := r.db.WithContext(ctx).
		Model(&model.SecurityPolicy{}).
		Where("id = ? AND version = ?", model.SecurityPolicyID, expectedVersion).
		Select("*").
		Updates(policy)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		policy.Version = expectedVersion
		return ErrConflict
	}
	return nil
}

// SeedDefaults creates the policy document if it doesn't exist
func (r *policyRepo) SeedDefaults(ctx context.Context) error {
	_, err := r.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		policy := model.DefaultSecurityPolicy()
		return translate(r.db.WithContext(ctx).Create(&policy).Error)
	}
	return err
}
