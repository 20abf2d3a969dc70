package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"go-admin-console/internal/access"
	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
)

// SessionStore keeps live sessions and pending second-factor challenges.
// Implemented by session.Store.
type SessionStore interface {
	Create(ctx context.Context, adminID uuid.UUID, ttl time.Duration) (string, error)
	Validate(ctx context.Context, sessionID string) (uuid.UUID, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeAll(ctx context.Context, adminID uuid.UUID) error
	RevokeOthers(ctx context.Context, adminID uuid.UUID, keep string) error
	CreateChallenge(ctx context.Context, adminID uuid.UUID, ttl time.Duration) (string, error)
	PeekChallenge(ctx context.Context, challengeID string) (uuid.UUID, error)
	ConsumeChallenge(ctx context.Context, challengeID string) error
}

// Notifier pushes console events to connected clients. Implemented by ws.Hub.
type Notifier interface {
	Publish(eventType string, payload []byte)
}

// Deps are the collaborators shared by every service
type Deps struct {
	Store    repository.Store
	Sessions SessionStore
	Notifier Notifier
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// publish hands an event to the notifier, which must not block.
func (d Deps) publish(eventType string, payload map[string]interface{}) {
	if d.Notifier == nil {
		return
	}
	payload["type"] = eventType
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	d.Notifier.Publish(eventType, msg)
}

// Actor is the authenticated admin performing an operation.
type Actor struct {
	Admin     *model.Admin
	IPAddress string
	SessionID string
}

// authorize runs the access evaluator; a denial is never audited.
func (a Actor) authorize(required model.Permission) error {
	if a.Admin == nil || a.Admin.Status != model.StatusActive {
		return ErrForbidden
	}
	if !access.Authorize(a.Admin, required) {
		return ErrForbidden
	}
	return nil
}

func (a Actor) logEntry(now time.Time, action model.ActionType, targetID, description string) *model.ActivityLog {
	entry := &model.ActivityLog{
		Timestamp:   now,
		ActionType:  action,
		TargetID:    targetID,
		Description: description,
		IPAddress:   a.IPAddress,
	}
	if a.Admin != nil {
		id := a.Admin.ID
		entry.PerformedBy = &id
		entry.PerformedByEmail = a.Admin.Email
	} else {
		entry.PerformedByEmail = "system"
	}
	return entry
}

func (a Actor) name() string {
	if a.Admin == nil {
		return "system"
	}
	return a.Admin.ID.String()
}

// Pagination is the list envelope metadata
type Pagination struct {
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Total int64 `json:"total"`
	Limit int   `json:"limit"`
}

// ListResult is a page of T plus pagination metadata
type ListResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newListResult[T any](data []T, total int64, page repository.Page) *ListResult[T] {
	page = page.Normalize()
	pages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	if data == nil {
		data = []T{}
	}
	return &ListResult[T]{
		Data:       data,
		Pagination: Pagination{Page: page.Page, Pages: pages, Total: total, Limit: page.Limit},
	}
}
