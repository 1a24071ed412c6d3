package extract

import (
	"regexp"
	"strings"
)

// Placeholder tokens written in place of sensitive values.
const (
	RedactedEmail  = "[REDACTED_EMAIL]"
	RedactedNumber = "[REDACTED_NUMBER]"
	RedactedPhone  = "[REDACTED_PHONE]"
)

var (
	redactEmailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	redactHandlePattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\b`)
	// UTR numbers, account numbers, long card sequences.
	redactDigitsPattern = regexp.MustCompile(`\b\d{6,}\b`)
	redactPhonePattern  = regexp.MustCompile(`(?:\+?\d{1,3}[-\s.]*)?\d{10,13}`)
	collapseSpaces      = regexp.MustCompile(`[ \t]+`)
)

// Redact replaces emails, UPI handles, long digit runs and phone-like
// sequences with placeholder tokens so account/UTR numbers are never stored
// verbatim. Runs before any bill text is persisted.
func Redact(text string) string {
	if text == "" {
		return text
	}
	s := redactEmailPattern.ReplaceAllString(text, RedactedEmail)
	s = redactHandlePattern.ReplaceAllString(s, RedactedEmail)
	s = redactDigitsPattern.ReplaceAllString(s, RedactedNumber)
	s = redactPhonePattern.ReplaceAllString(s, RedactedPhone)
	s = collapseSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
