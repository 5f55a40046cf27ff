package utils

import (
	"strings"
)

// NormalizeEmailAddress reduces a sender field to the bare lowercase
// address, so "Alice <ALICE@Example.com>" and "alice@example.com" resolve
// to the same user.
func NormalizeEmailAddress(email string) string {
	email = strings.TrimSpace(email)

	// Handle display-name forms like "Name <email@domain.com>"
	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		startIdx := strings.LastIndex(email, "<") + 1
		endIdx := strings.LastIndex(email, ">")
		if startIdx > 0 && endIdx > startIdx {
			email = email[startIdx:endIdx]
		}
	}

	return strings.ToLower(strings.TrimSpace(email))
}
