package logger

import (
	"log/slog"
	"strings"
)

// The secret material this tool handles is encryption keys and the
// passphrases they derive from. Attributes whose keys mention them are
// masked before any handler sees the record.
var sensitiveKeySubstrings = []string{
	"passphrase",
	"password",
	"secret",
	"key",
	"credential",
}

const redactedValue = "***REDACTED***"

// IsSensitiveKey reports whether an attribute key names secret material.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// redactSensitive masks string attributes with sensitive keys, walking
// into groups so nested attributes get the same treatment.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			a.Value = slog.StringValue(redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			masked[i] = redactSensitive(attr)
		}
		a.Value = slog.GroupValue(masked...)
	}
	return a
}
