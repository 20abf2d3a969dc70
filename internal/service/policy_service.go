package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/security"
	"go-admin-console/pkg/validator"
)

type PolicyService interface {
	GetPolicy(ctx context.Context) (*model.SecurityPolicy, error)
	UpdatePolicy(ctx context.Context, actor Actor, req *UpdatePolicyRequest) (*model.SecurityPolicy, error)
	ValidatePassword(ctx context.Context, candidate string) ([]security.Violation, error)
}

// UpdatePolicyRequest replaces the whole policy document. Version must be the
// version the caller read.
type UpdatePolicyRequest struct {
	Version        int                  `json:"version" validate:"gte=1"`
	PasswordPolicy model.PasswordPolicy `json:"password_policy"`
	LoginSecurity  model.LoginSecurity  `json:"login_security"`
	IPRestrictions model.IPRestrictions `json:"ip_restrictions"`
}

type policyService struct {
	Deps
}

func NewPolicyService(deps Deps) PolicyService {
	return &policyService{Deps: deps}
}

func (s *policyService) GetPolicy(ctx context.Context) (*model.SecurityPolicy, error) {
	return s.Store.Policies().Get(ctx)
}

func (s *policyService) UpdatePolicy(ctx context.Context, actor Actor, req *UpdatePolicyRequest) (*model.SecurityPolicy, error) {
	if err := actor.authorize(model.PermSecurityUpdate); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	policy := &model.SecurityPolicy{
		ID:             model.SecurityPolicyID,
		PasswordPolicy: req.PasswordPolicy,
		LoginSecurity:  req.LoginSecurity,
		IPRestrictions: model.IPRestrictions{
			Enabled:    req.IPRestrictions.Enabled,
			AllowedIPs: canonicalIPs(req.IPRestrictions.AllowedIPs),
			BlockedIPs: canonicalIPs(req.IPRestrictions.BlockedIPs),
		},
		UpdatedAt: s.now(),
		UpdatedBy: actor.name(),
	}

	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Policies().Save(ctx, policy, req.Version); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrConflict
			}
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(policy.UpdatedAt, model.ActionPolicyUpdated, "security_policy",
			"Updated security policy"))
	})
	if err != nil {
		return nil, err
	}

	s.publish("security_policy_updated", map[string]interface{}{"version": policy.Version})
	return policy, nil
}

func (s *policyService) ValidatePassword(ctx context.Context, candidate string) ([]security.Violation, error) {
	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return nil, err
	}
	violations := security.ValidatePassword(policy.PasswordPolicy, candidate)
	if violations == nil {
		violations = []security.Violation{}
	}
	return violations, nil
}

// canonicalIPs trims, canonicalizes and de-duplicates an address list.
func canonicalIPs(list []string) pq.StringArray {
	seen := make(map[string]struct{}, len(list))
	out := pq.StringArray{}
	for _, raw := range list {
		ip := strings.TrimSpace(raw)
		if parsed := net.ParseIP(ip); parsed != nil {
			ip = parsed.String()
		}
		if _, ok := seen[ip]; ok || ip == "" {
			continue
		}
		seen[ip] = struct{}{}
		out = append(out, ip)
	}
	return out
}
