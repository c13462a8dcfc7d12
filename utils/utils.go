package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(workspaceID uint, resourceID, path string) string {
	return fmt.Sprintf("rl:%d:%s:%s", workspaceID, resourceID, path)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// DisplayNameFromEmail derives a human-readable name from the local part of
// an address, e.g. "jane.doe@acme.com" -> "Jane Doe".
func DisplayNameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return email
	}
	return strings.Join(words, " ")
}
