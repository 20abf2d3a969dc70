package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-admin-console/internal/access"
	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/security"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/jwt"
	"go-admin-console/pkg/validator"
)

// LoginResult is the decision of one login evaluation
type LoginResult string

const (
	LoginAllowed              LoginResult = "allowed"
	LoginDenied               LoginResult = "denied"
	LoginLocked               LoginResult = "locked"
	LoginAwaitingSecondFactor LoginResult = "awaiting_second_factor"
)

// dummyHash keeps the unknown-account path as slow as a real password check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type AuthService interface {
	// EvaluateLoginAttempt applies the login rules and records the attempt.
	// It never issues a session.
	EvaluateLoginAttempt(ctx context.Context, req *LoginRequest) (*LoginOutcome, error)
	// Login evaluates the attempt and opens a session when it is allowed.
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	VerifySecondFactor(ctx context.Context, req *SecondFactorRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	ChangePassword(ctx context.Context, actor Actor, req *ChangePasswordRequest) error
	Authenticate(ctx context.Context, token string) (*model.Admin, *jwt.Claims, error)
	SessionExpiry(ctx context.Context, loginAt time.Time) (time.Time, error)
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type SecondFactorRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=128"`
}

// LoginOutcome is the result of EvaluateLoginAttempt. Reason is precise and
// meant for the audit trail; use PublicReason for responses.
type LoginOutcome struct {
	Result          LoginResult
	Reason          string
	LockedUntil     time.Time
	Admin           *model.Admin
	ChallengeID     string
	Enrollment      *security.TOTPKey
	PasswordExpired bool

	policy *model.SecurityPolicy
}

// PublicReason hides whether an account exists or is inactive.
func (o *LoginOutcome) PublicReason() string {
	switch o.Reason {
	case model.FailureIPBlocked, model.FailureIPNotAllowed, model.FailureInvalidSecondFactor, model.FailureAccountLocked:
		return o.Reason
	}
	return model.FailureInvalidCredentials
}

type LoginResponse struct {
	Result          LoginResult          `json:"result"`
	Reason          string               `json:"reason,omitempty"`
	LockedUntil     *time.Time           `json:"locked_until,omitempty"`
	Token           string               `json:"token,omitempty"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
	Admin           *model.AdminResponse `json:"admin,omitempty"`
	Permissions     []string             `json:"permissions,omitempty"`
	PasswordExpired bool                 `json:"password_expired,omitempty"`
	ChallengeID     string               `json:"challenge_id,omitempty"`
	Enrollment      *security.TOTPKey    `json:"enrollment,omitempty"`
}

// AuthOptions tune the second factor
type AuthOptions struct {
	TOTPIssuer      string
	SecondFactorTTL time.Duration
}

type authService struct {
	Deps
	tokens *jwt.Manager
	opts   AuthOptions
}

func NewAuthService(deps Deps, tokens *jwt.Manager, opts AuthOptions) AuthService {
	if opts.TOTPIssuer == "" {
		opts.TOTPIssuer = "Admin Console"
	}
	if opts.SecondFactorTTL <= 0 {
		opts.SecondFactorTTL = 5 * time.Minute
	}
	return &authService{Deps: deps, tokens: tokens, opts: opts}
}

func (s *authService) EvaluateLoginAttempt(ctx context.Context, req *LoginRequest) (*LoginOutcome, error) {
	now := s.now()
	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return nil, err
	}

	identifier := model.NormalizeEmail(req.Email)
	attempt := &model.LoginAttempt{
		Identifier: identifier,
		Timestamp:  now,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}

	// 1. IP restrictions are checked before anything about the account
	if reason := security.CheckIP(policy.IPRestrictions, req.IPAddress); reason != "" {
		if admin, err := s.Store.Admins().FindByEmail(ctx, identifier); err == nil {
			attempt.AdminID = &admin.ID
			if attempt.Suspicious, err = s.isNewIP(ctx, s.Store, admin.ID, req.IPAddress); err != nil {
				return nil, err
			}
		}
		attempt.FailureReason = reason
		if err := s.Store.LoginAttempts().Create(ctx, attempt); err != nil {
			return nil, err
		}
		return &LoginOutcome{Result: LoginDenied, Reason: reason, policy: policy}, nil
	}

	outcome := &LoginOutcome{policy: policy}
	var lockedOut bool
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		// 2. Resolve the account
		found, err := tx.Admins().FindByEmail(ctx, identifier)
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			attempt.FailureReason = model.FailureUnknownAccount
			outcome.Result, outcome.Reason = LoginDenied, model.FailureInvalidCredentials
			return tx.LoginAttempts().Create(ctx, attempt)
		}
		if err != nil {
			return err
		}

		// Attempts on one account are serialized by its row lock.
		admin, err := tx.Admins().LockByID(ctx, found.ID)
		if err != nil {
			return err
		}
		attempt.AdminID = &admin.ID
		passwordOK := admin.CheckPassword(req.Password)
		if attempt.Suspicious, err = s.isNewIP(ctx, tx, admin.ID, req.IPAddress); err != nil {
			return err
		}

		// 3. Only active accounts may sign in
		if admin.Status != model.StatusActive {
			attempt.FailureReason = model.FailureAccountInactive
			outcome.Result, outcome.Reason = LoginDenied, model.FailureAccountInactive
			return tx.LoginAttempts().Create(ctx, attempt)
		}

		// 4. Lockout
		failures, locked, until, err := s.lockoutState(ctx, tx, policy, admin, now)
		if err != nil {
			return err
		}
		if locked {
			attempt.FailureReason = model.FailureAccountLocked
			outcome.Result, outcome.Reason, outcome.LockedUntil = LoginLocked, model.FailureAccountLocked, until
			return tx.LoginAttempts().Create(ctx, attempt)
		}

		// 5. Credentials
		if !passwordOK {
			attempt.FailureReason = model.FailureInvalidCredentials
			outcome.Result, outcome.Reason = LoginDenied, model.FailureInvalidCredentials
			lockedOut, err = s.recordFailure(ctx, tx, policy, admin, attempt, failures)
			return err
		}

		outcome.Admin = admin
		outcome.PasswordExpired = security.PasswordExpired(policy.PasswordPolicy, admin.PasswordChangedAt, now)

		// 6. Second factor; the attempt is recorded once the code is verified
		if policy.LoginSecurity.Require2FA {
			outcome.Result = LoginAwaitingSecondFactor
			if !admin.TOTPEnabled {
				key, err := security.GenerateTOTP(s.opts.TOTPIssuer, admin.Email)
				if err != nil {
					return err
				}
				admin.TOTPSecret = key.Secret
				if err := tx.Admins().Update(ctx, admin); err != nil {
					return err
				}
				outcome.Enrollment = key
			}
			return nil
		}

		attempt.Success = true
		outcome.Result = LoginAllowed
		if err := tx.LoginAttempts().Create(ctx, attempt); err != nil {
			return err
		}
		return tx.Admins().UpdateLastLogin(ctx, admin.ID, now)
	})
	if err != nil {
		return nil, err
	}

	if outcome.Result == LoginAwaitingSecondFactor {
		outcome.ChallengeID, err = s.Sessions.CreateChallenge(ctx, outcome.Admin.ID, s.opts.SecondFactorTTL)
		if err != nil {
			return nil, err
		}
	}
	if lockedOut {
		s.publish("account_locked", map[string]interface{}{"admin_id": attempt.AdminID, "ip_address": req.IPAddress})
	}
	return outcome, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	outcome, err := s.EvaluateLoginAttempt(ctx, req)
	if err != nil {
		return nil, err
	}

	switch outcome.Result {
	case LoginAllowed:
		return s.openSession(ctx, outcome.Admin, outcome.policy, outcome.PasswordExpired)
	case LoginAwaitingSecondFactor:
		return &LoginResponse{
			Result:          outcome.Result,
			ChallengeID:     outcome.ChallengeID,
			Enrollment:      outcome.Enrollment,
			PasswordExpired: outcome.PasswordExpired,
		}, nil
	case LoginLocked:
		until := outcome.LockedUntil
		return &LoginResponse{Result: outcome.Result, Reason: outcome.PublicReason(), LockedUntil: &until}, nil
	}
	return &LoginResponse{Result: outcome.Result, Reason: outcome.PublicReason()}, nil
}

func (s *authService) VerifySecondFactor(ctx context.Context, req *SecondFactorRequest) (*LoginResponse, error) {
	adminID, err := s.Sessions.PeekChallenge(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, session.ErrChallengeNotFound) {
			return nil, ErrChallengeExpired
		}
		return nil, err
	}
	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var admin *model.Admin
	var passwordExpired, lockedOut, enrolled bool
	resp := &LoginResponse{}
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		admin, err = tx.Admins().LockByID(ctx, adminID)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		attempt := &model.LoginAttempt{
			AdminID:    &admin.ID,
			Identifier: admin.Email,
			Timestamp:  now,
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
		}

		if attempt.Suspicious, err = s.isNewIP(ctx, tx, admin.ID, req.IPAddress); err != nil {
			return err
		}

		if admin.Status != model.StatusActive {
			attempt.FailureReason = model.FailureAccountInactive
			resp.Result, resp.Reason = LoginDenied, model.FailureInvalidCredentials
			return tx.LoginAttempts().Create(ctx, attempt)
		}
		failures, locked, until, err := s.lockoutState(ctx, tx, policy, admin, now)
		if err != nil {
			return err
		}
		if locked {
			attempt.FailureReason = model.FailureAccountLocked
			resp.Result, resp.Reason, resp.LockedUntil = LoginLocked, model.FailureAccountLocked, &until
			return tx.LoginAttempts().Create(ctx, attempt)
		}

		if !security.ValidateTOTP(req.Code, admin.TOTPSecret, now) {
			attempt.FailureReason = model.FailureInvalidSecondFactor
			resp.Result, resp.Reason = LoginDenied, model.FailureInvalidSecondFactor
			lockedOut, err = s.recordFailure(ctx, tx, policy, admin, attempt, failures)
			return err
		}

		// The challenge is single use; a concurrent verification loses here.
		if err := s.Sessions.ConsumeChallenge(ctx, req.ChallengeID); err != nil {
			if errors.Is(err, session.ErrChallengeNotFound) {
				return ErrChallengeExpired
			}
			return err
		}
		if !admin.TOTPEnabled {
			admin.TOTPEnabled = true
			enrolled = true
			if err := tx.Admins().Update(ctx, admin); err != nil {
				return err
			}
			self := Actor{Admin: admin, IPAddress: req.IPAddress}
			if err := tx.ActivityLogs().Create(ctx, self.logEntry(now, model.ActionTwoFactorEnabled, admin.ID.String(),
				fmt.Sprintf("Enrolled second factor for %s", admin.Email))); err != nil {
				return err
			}
		}

		attempt.Success = true
		resp.Result = LoginAllowed
		passwordExpired = security.PasswordExpired(policy.PasswordPolicy, admin.PasswordChangedAt, now)
		if err := tx.LoginAttempts().Create(ctx, attempt); err != nil {
			return err
		}
		return tx.Admins().UpdateLastLogin(ctx, admin.ID, now)
	})
	if err != nil {
		return nil, err
	}

	if lockedOut {
		s.publish("account_locked", map[string]interface{}{"admin_id": admin.ID, "ip_address": req.IPAddress})
	}
	if enrolled {
		s.publish("two_factor_enabled", map[string]interface{}{"admin_id": admin.ID})
	}
	if resp.Result != LoginAllowed {
		return resp, nil
	}
	return s.openSession(ctx, admin, policy, passwordExpired)
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.Revoke(ctx, sessionID)
}

func (s *authService) ChangePassword(ctx context.Context, actor Actor, req *ChangePasswordRequest) error {
	if actor.Admin == nil {
		return ErrUnauthenticated
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return newValidationError(errs)
	}
	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return err
	}
	if violations := security.ValidatePassword(policy.PasswordPolicy, req.NewPassword); len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}

	now := s.now()
	err = s.Store.Transaction(ctx, func(tx repository.Store) error {
		admin, err := tx.Admins().LockByID(ctx, actor.Admin.ID)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if !admin.CheckPassword(req.CurrentPassword) {
			return ErrWrongPassword
		}
		if err := admin.SetPassword(req.NewPassword, now); err != nil {
			return errors.New("failed to hash password")
		}
		admin.UpdatedBy = admin.ID.String()
		if err := tx.Admins().Update(ctx, admin); err != nil {
			return err
		}
		return tx.ActivityLogs().Create(ctx, actor.logEntry(now, model.ActionPasswordChanged, admin.ID.String(),
			fmt.Sprintf("%s changed their password", admin.Email)))
	})
	if err != nil {
		return err
	}
	return s.Sessions.RevokeOthers(ctx, actor.Admin.ID, actor.SessionID)
}

// Authenticate resolves a bearer token to a live session of an active admin.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.Admin, *jwt.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}
	owner, err := s.Sessions.Validate(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	if owner != claims.AdminID {
		return nil, nil, ErrUnauthenticated
	}
	admin, err := s.Store.Admins().FindByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	if admin.Status != model.StatusActive {
		return nil, nil, ErrAccountNotActive
	}
	return admin, claims, nil
}

func (s *authService) SessionExpiry(ctx context.Context, loginAt time.Time) (time.Time, error) {
	policy, err := s.Store.Policies().Get(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return security.SessionExpiry(policy.LoginSecurity, loginAt), nil
}

func (s *authService) openSession(ctx context.Context, admin *model.Admin, policy *model.SecurityPolicy, passwordExpired bool) (*LoginResponse, error) {
	now := s.now()
	sessionID, err := s.Sessions.Create(ctx, admin.ID, policy.LoginSecurity.SessionTimeout())
	if err != nil {
		return nil, err
	}
	expiresAt := security.SessionExpiry(policy.LoginSecurity, now)
	token, err := s.tokens.GenerateToken(admin.ID, admin.Email, sessionID, now, expiresAt)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	profile := admin.ToResponse()
	return &LoginResponse{
		Result:          LoginAllowed,
		Token:           token,
		ExpiresAt:       &expiresAt,
		Admin:           &profile,
		Permissions:     access.EffectivePermissions(admin).Strings(),
		PasswordExpired: passwordExpired,
	}, nil
}

func (s *authService) lockoutState(ctx context.Context, tx repository.Store, policy *model.SecurityPolicy, admin *model.Admin, now time.Time) (int, bool, time.Time, error) {
	if locked, until := security.Lockout(admin.LockedUntil, now); locked {
		return 0, true, until, nil
	}
	since := security.LockoutWindowStart(policy.LoginSecurity, now, admin.LastLoginAt, admin.LockedUntil)
	failures, err := tx.LoginAttempts().CountFailuresSince(ctx, admin.ID, since)
	if err != nil {
		return 0, false, time.Time{}, err
	}
	return failures, false, time.Time{}, nil
}

// recordFailure appends a credential failure and locks the account when it
// reaches the threshold. The caller holds the admin row lock.
func (s *authService) recordFailure(ctx context.Context, tx repository.Store, policy *model.SecurityPolicy, admin *model.Admin, attempt *model.LoginAttempt, failures int) (bool, error) {
	lockedOut := security.TriggersLockout(policy.LoginSecurity, failures)
	if lockedOut {
		attempt.Suspicious = true
		until := security.LockoutEnd(policy.LoginSecurity, attempt.Timestamp)
		if err := tx.Admins().SetLockedUntil(ctx, admin.ID, until); err != nil {
			return false, err
		}
		admin.LockedUntil = &until
	}
	return lockedOut, tx.LoginAttempts().Create(ctx, attempt)
}

func (s *authService) isNewIP(ctx context.Context, tx repository.Store, adminID uuid.UUID, ip string) (bool, error) {
	known, err := tx.LoginAttempts().KnownIPs(ctx, adminID)
	if err != nil {
		return false, err
	}
	return security.IsNewIP(known, ip), nil
}
