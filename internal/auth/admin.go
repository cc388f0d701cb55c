package auth

import (
	"crypto/subtle"
	"strings"
)

// Admins is the set of Steam ids allowed to moderate.
type Admins map[string]struct{}

// ParseAdmins reads a comma separated id list.
func ParseAdmins(raw string) Admins {
	a := make(Admins)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			a[id] = struct{}{}
		}
	}
	return a
}

// IsAdmin reports whether steamID is in the allowlist.
func (a Admins) IsAdmin(steamID string) bool {
	if steamID == "" {
		return false
	}
	_, ok := a[steamID]
	return ok
}

// TokenEqual compares an operator token in constant time.
func TokenEqual(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
