package logging

import (
	"regexp"
)

const (
	// MaxRequestLogLength is the maximum length of a free-form request to log
	MaxRequestLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match bearer tokens in headers or pasted requests
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.=]+`)

	// Pattern to match potential API keys
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeRequest truncates and redacts a free-form request before
// it is logged. Agent-supplied text can carry pasted credentials.
func SanitizeRequest(request string) string {
	if request == "" {
		return ""
	}

	sanitized := request
	if len(sanitized) > MaxRequestLogLength {
		sanitized = sanitized[:MaxRequestLogLength] + "..."
	}

	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError redacts error messages that might contain sensitive
// data. Use this before logging any error from tenant API calls.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()
	sanitized := bearerPattern.ReplaceAllString(errStr, "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}
