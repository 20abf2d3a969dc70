package security

import (
	"net"
	"strings"

	"go-admin-console/internal/model"
)

// CheckIP applies the allow/deny lists. It returns the failure reason, or ""
// when the address may proceed. Matching is exact on the canonical address.
func CheckIP(r model.IPRestrictions, ip string) string {
	if !r.Enabled {
		return ""
	}
	if containsIP(r.BlockedIPs, ip) {
		return model.FailureIPBlocked
	}
	if len(r.AllowedIPs) > 0 && !containsIP(r.AllowedIPs, ip) {
		return model.FailureIPNotAllowed
	}
	return ""
}

func containsIP(list []string, ip string) bool {
	want := canonicalIP(ip)
	for _, entry := range list {
		if canonicalIP(entry) == want {
			return true
		}
	}
	return false
}

func canonicalIP(s string) string {
	s = strings.TrimSpace(s)
	if parsed := net.ParseIP(s); parsed != nil {
		return parsed.String()
	}
	return s
}
