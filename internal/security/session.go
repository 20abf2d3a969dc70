package security

import (
	"time"

	"go-admin-console/internal/model"
)

// SessionExpiry returns loginAt + sessionTimeoutMinutes.
func SessionExpiry(policy model.LoginSecurity, loginAt time.Time) time.Time {
	return loginAt.Add(policy.SessionTimeout())
}

// PasswordExpired reports whether the password is older than passwordExpiryDays.
// A zero expiry disables rotation; an unknown change date counts as expired.
func PasswordExpired(policy model.PasswordPolicy, changedAt *time.Time, now time.Time) bool {
	if policy.PasswordExpiryDays <= 0 {
		return false
	}
	if changedAt == nil {
		return true
	}
	return !now.Before(changedAt.AddDate(0, 0, policy.PasswordExpiryDays))
}
