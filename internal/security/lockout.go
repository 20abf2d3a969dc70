package security

import (
	"time"

	"go-admin-console/internal/model"
)

// LockoutWindowStart is the earliest timestamp whose failures still count:
// the latest of (now - lockout duration), the last successful login and the
// end of the previous lockout, so only consecutive failures are counted and a
// served lockout starts a fresh count.
func LockoutWindowStart(policy model.LoginSecurity, now time.Time, lastLogin, lockedUntil *time.Time) time.Time {
	start := now.Add(-policy.LockoutDuration())
	if lastLogin != nil && lastLogin.After(start) {
		start = *lastLogin
	}
	if lockedUntil != nil && lockedUntil.After(start) {
		start = *lockedUntil
	}
	return start
}

// Lockout reports whether a recorded lockout is still in force, and until when.
func Lockout(lockedUntil *time.Time, now time.Time) (bool, time.Time) {
	if lockedUntil == nil || !now.Before(*lockedUntil) {
		return false, time.Time{}
	}
	return true, *lockedUntil
}

// TriggersLockout reports whether one more failure on top of failures reaches the threshold.
func TriggersLockout(policy model.LoginSecurity, failures int) bool {
	return failures+1 >= policy.MaxLoginAttempts
}

// LockoutEnd is when a lockout triggered by a failure at lastFailure lifts.
func LockoutEnd(policy model.LoginSecurity, lastFailure time.Time) time.Time {
	return lastFailure.Add(policy.LockoutDuration())
}

// IsNewIP reports whether ip has never been used for a successful login by an
// account that already has successful logins on record.
func IsNewIP(knownIPs []string, ip string) bool {
	if len(knownIPs) == 0 {
		return false
	}
	return !containsIP(knownIPs, ip)
}
