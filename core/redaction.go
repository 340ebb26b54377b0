package core

import (
	"net/url"
	"strings"
)

const RedactedValue = "[REDACTED]"

func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			if value == nil {
				target[key] = nil
				continue
			}
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

// RedactURL masks credential query parameters such as zapikey. Unparseable
// input is returned unchanged.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}
	pairs := strings.Split(parsed.RawQuery, "&")
	for i, pair := range pairs {
		key, _, hasValue := strings.Cut(pair, "=")
		decoded, decodeErr := url.QueryUnescape(key)
		if decodeErr != nil {
			decoded = key
		}
		if hasValue && shouldRedactKey(decoded) {
			pairs[i] = key + "=" + url.QueryEscape(RedactedValue)
		}
	}
	parsed.RawQuery = strings.Join(pairs, "&")
	return parsed.String()
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isTraceabilityKey(key) {
		return false
	}
	sensitiveTokens := []string{
		"password",
		"secret",
		"token",
		"authorization",
		"auth_key",
		"authkey",
		"api_key",
		"apikey",
		"credential",
		"signature",
	}
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

func isTraceabilityKey(key string) bool {
	switch key {
	case "survey_id",
		"response_id",
		"survey",
		"event",
		"plugin_name",
		"scope_type",
		"scope_id",
		"trace_id",
		"request_id":
		return true
	default:
		return false
	}
}
