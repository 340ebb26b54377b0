package core

import (
	"strings"
	"testing"
)

func TestRedactSensitiveMapPreservesTraceabilityMetadata(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"survey":     7,
		"event":      "afterSurveyComplete",
		"zapikey":    "K",
		"token":      "respondent-token",
		"empty_auth": nil,
		"nested":     map[string]any{"api_key": "key_1", "survey_id": 7},
		"items":      []any{map[string]any{"password": "p"}},
	})

	if redacted["survey"] != 7 || redacted["event"] != "afterSurveyComplete" {
		t.Fatalf("expected traceability keys to remain visible, got %#v", redacted)
	}
	if redacted["zapikey"] != RedactedValue || redacted["token"] != RedactedValue {
		t.Fatalf("expected credentials redacted, got %#v", redacted)
	}
	nested := redacted["nested"].(map[string]any)
	if nested["api_key"] != RedactedValue || nested["survey_id"] != 7 {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	item := redacted["items"].([]any)[0].(map[string]any)
	if item["password"] != RedactedValue {
		t.Fatalf("expected slice items redacted, got %#v", item)
	}
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("https://flow.example.com/hook?zapikey=secret&isdebug=false")
	if strings.Contains(got, "secret") {
		t.Fatalf("expected zapikey masked, got %q", got)
	}
	if !strings.Contains(got, "isdebug=false") {
		t.Fatalf("expected other params kept, got %q", got)
	}
	if plain := RedactURL("https://flow.example.com/hook"); plain != "https://flow.example.com/hook" {
		t.Fatalf("expected url without query unchanged, got %q", plain)
	}
}
