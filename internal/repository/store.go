package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-admin-console/internal/model"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrConflict     = errors.New("record was modified concurrently")
)

// translate maps GORM errors onto repository errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}

// Store groups the repositories that share one database handle. Repositories
// obtained from the Store passed to Transaction's callback run inside that
// transaction.
type Store interface {
	Roles() RoleRepository
	Admins() AdminRepository
	Policies() PolicyRepository
	LoginAttempts() LoginAttemptRepository
	ActivityLogs() ActivityLogRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// Page selects a slice of a list result. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps page and limit into the supported range
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// RoleFilter narrows role listings
type RoleFilter struct {
	Search     string
	SystemRole *bool
}

// AdminFilter narrows admin listings
type AdminFilter struct {
	Search     string
	Status     model.AccountStatus
	RoleID     *uuid.UUID
	Department string
}

// ActivityLogFilter narrows activity log listings
type ActivityLogFilter struct {
	ActionType  model.ActionType
	PerformedBy *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
}

// LoginAttemptFilter narrows login history listings
type LoginAttemptFilter struct {
	AdminID    *uuid.UUID
	Success    *bool
	Suspicious *bool
	StartDate  *time.Time
	EndDate    *time.Time
}

type gormStore struct {
	db *gorm.DB
}

// NewStore wires the GORM-backed repositories
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Roles() RoleRepository                 { return NewRoleRepo(s.db) }
func (s *gormStore) Admins() AdminRepository               { return NewAdminRepo(s.db) }
func (s *gormStore) Policies() PolicyRepository            { return NewPolicyRepo(s.db) }
func (s *gormStore) LoginAttempts() LoginAttemptRepository { return NewLoginAttemptRepo(s.db) }
func (s *gormStore) ActivityLogs() ActivityLogRepository   { return NewActivityLogRepo(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// AutoMigrate creates or updates the schema for every entity
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.Admin{},
		&model.SecurityPolicy{},
		&model.LoginAttempt{},
		&model.ActivityLog{},
	)
}
