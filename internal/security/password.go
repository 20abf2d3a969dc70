// Package security evaluates passwords, login attempts and sessions against
// the security policy document. The policy is always passed in by the caller.
package security

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"go-admin-console/internal/model"
)

// Violation codes returned by ValidatePassword
const (
	ViolationMinLength   = "min_length"
	ViolationUppercase   = "uppercase"
	ViolationLowercase   = "lowercase"
	ViolationNumber      = "number"
	ViolationSpecialChar = "special_char"
)

// Violation is one failed password rule.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidatePassword checks candidate against every rule of the policy and
// returns all violations. An empty result means the password is acceptable.
func ValidatePassword(policy model.PasswordPolicy, candidate string) []Violation {
	var violations []Violation

	if utf8.RuneCountInString(candidate) < policy.MinLength {
		violations = append(violations, Violation{
			Code:    ViolationMinLength,
			Message: fmt.Sprintf("must be at least %d characters", policy.MinLength),
		})
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if policy.RequireUppercase && !hasUpper {
		violations = append(violations, Violation{Code: ViolationUppercase, Message: "must contain an uppercase letter"})
	}
	if policy.RequireLowercase && !hasLower {
		violations = append(violations, Violation{Code: ViolationLowercase, Message: "must contain a lowercase letter"})
	}
	if policy.RequireNumbers && !hasNumber {
		violations = append(violations, Violation{Code: ViolationNumber, Message: "must contain a number"})
	}
	if policy.RequireSpecialChars && !hasSpecial {
		violations = append(violations, Violation{Code: ViolationSpecialChar, Message: "must contain a special character"})
	}

	return violations
}
