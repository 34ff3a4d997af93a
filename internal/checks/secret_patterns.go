package checks

import (
	"fmt"
	"unicode/utf8"

	"policygate/internal/scan"
)

// SecretPatterns is the credential catalogue matched against tracked files.
var SecretPatterns = []scan.Pattern{
	scan.MustPattern("private-key", `-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----`),
	scan.MustPattern("workos-api-key", `\bsk_(?:live|test)_[A-Za-z0-9]{16,}`),
	scan.MustPattern("github-token", `\bgh[pousr]_[A-Za-z0-9]{36,}`),
	scan.MustPattern("aws-access-key", `\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
	scan.MustPattern("slack-token", `\bxox[abprs]-[A-Za-z0-9-]{10,}`),
	scan.MustPattern("stripe-restricted-key", `\brk_live_[A-Za-z0-9]{20,}`),
	scan.MustPattern("generic-secret-assignment", `(?i)\b(?:api[_-]?key|client[_-]?secret|secret|token|password|passwd)\b["']?\s*[:=]\s*["'][A-Za-z0-9_\-+/=]{16,}["']`),
}

// DefaultSecretExcludes are tracked-path prefixes never scanned.
var DefaultSecretExcludes = []string{
	"dist/",
	"build/",
	"convex/_generated/",
	"imports/",
	"reports/",
	"coverage/",
	"node_modules/",
}

// Redact masks a matched secret down to its first four characters and its
// length.
func Redact(s string) string {
	n := utf8.RuneCountInString(s)
	if n <= 4 {
		return fmt.Sprintf("****(%d chars)", n)
	}
	prefix := []rune(s)[:4]
	return fmt.Sprintf("%s****(%d chars)", string(prefix), n)
}
