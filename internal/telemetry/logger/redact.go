package logger

import (
	"log/slog"
	"strings"
)

// Key fragments that mark an attribute as a credential.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"credential",
	"api_key",
}

// Authorization schemes whose parameter is masked wherever it appears.
var authSchemes = []string{"Bearer ", "Basic "}

const redacted = "***REDACTED***"

func redact(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redacted)
		}
		if masked, ok := maskScheme(v); ok {
			return slog.String(a.Key, masked)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskScheme keeps the scheme name of an Authorization-style value and
// hides its parameter.
func maskScheme(v string) (string, bool) {
	for _, scheme := range authSchemes {
		if len(v) > len(scheme) && strings.EqualFold(v[:len(scheme)], scheme) {
			return v[:len(scheme)] + "***", true
		}
	}
	return v, false
}

// IsSensitiveKey reports whether an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
