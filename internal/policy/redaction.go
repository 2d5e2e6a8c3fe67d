package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
)

// RedactPII masks emails and phone numbers. Conversation ids are phone
// numbers, so anything user-facing that ends up in a log line goes through
// here first.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

// Preview redacts and truncates a message body for log output.
func Preview(input string, max int) string {
	out, _ := RedactPII(input)
	if max > 0 && len(out) > max {
		out = out[:max] + "…"
	}
	return out
}
