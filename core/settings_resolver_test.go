package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newResolverWith(t *testing.T, global map[string]string, survey map[string]string) *SettingsResolver {
	t.Helper()
	store := NewMemorySettingsStore()
	if err := seedSettings(store, GlobalScope(), global); err != nil {
		t.Fatalf("seed global: %v", err)
	}
	if err := seedSettings(store, SurveyScope(7), survey); err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	return NewSettingsResolver(store, DefaultPluginName, DefaultSettingsSchema())
}

func TestSettingsResolver_CompiledDefaultsWhenNothingStored(t *testing.T) {
	resolver := newResolverWith(t, nil, nil)

	resolved, err := resolver.ResolveAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if resolved.URL != DefaultWebhookURL {
		t.Fatalf("expected default url, got %q", resolved.URL)
	}
	if resolved.AuthToken != "" {
		t.Fatalf("expected empty auth token, got %q", resolved.AuthToken)
	}
	if !resolved.SendToken {
		t.Fatalf("expected send token default on")
	}
	if resolved.Method != MethodPost {
		t.Fatalf("expected POST default, got %q", resolved.Method)
	}
	if resolved.Enabled != UseGlobal || resolved.GlobalEnabled != UseOff {
		t.Fatalf("expected survey=2 global=0, got %d/%d", resolved.Enabled, resolved.GlobalEnabled)
	}
	if resolved.HookEnabled() {
		t.Fatalf("expected hook disabled by default")
	}
	if resolved.DebugMode {
		t.Fatalf("expected debug mode off by default")
	}
}

func TestSettingsResolver_GlobalValueWhenOverrideDisabled(t *testing.T) {
	resolver := newResolverWith(t,
		map[string]string{SettingURL: "https://global.example.com/hook", SettingAuthToken: "global-key"},
		map[string]string{
			SettingURLOverwrite:       "0",
			SettingURL:                "https://survey.example.com/hook",
			SettingAuthTokenOverwrite: "0",
			SettingAuthToken:          "survey-key",
		},
	)

	url, err := resolver.Resolve(context.Background(), SettingURL, 7)
	if err != nil {
		t.Fatalf("resolve url: %v", err)
	}
	if url != "https://global.example.com/hook" {
		t.Fatalf("expected global url with override off, got %q", url)
	}
	key, err := resolver.Resolve(context.Background(), SettingAuthToken, 7)
	if err != nil {
		t.Fatalf("resolve auth token: %v", err)
	}
	if key != "global-key" {
		t.Fatalf("expected global key with override off, got %q", key)
	}
}

func TestSettingsResolver_SurveyValueWhenOverrideEnabled(t *testing.T) {
	resolver := newResolverWith(t,
		map[string]string{SettingURL: "https://global.example.com/hook", SettingAuthToken: "global-key"},
		map[string]string{
			SettingURLOverwrite:       "1",
			SettingURL:                "https://survey.example.com/hook",
			SettingAuthTokenOverwrite: "1",
			SettingAuthToken:          "survey-key",
		},
	)

	resolved, err := resolver.ResolveAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if resolved.URL != "https://survey.example.com/hook" {
		t.Fatalf("expected survey url, got %q", resolved.URL)
	}
	if resolved.AuthToken != "survey-key" {
		t.Fatalf("expected survey key, got %q", resolved.AuthToken)
	}
}

func TestSettingsResolver_BlankSurveyOverrideFallsBackToGlobal(t *testing.T) {
	resolver := newResolverWith(t,
		map[string]string{SettingURL: "https://global.example.com/hook"},
		map[string]string{SettingURLOverwrite: "1", SettingURL: "  "},
	)

	url, err := resolver.Resolve(context.Background(), SettingURL, 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://global.example.com/hook" {
		t.Fatalf("expected blank survey value to fall through, got %q", url)
	}
}

func TestSettingsResolver_SurveyScopedSettingsBeatGlobal(t *testing.T) {
	resolver := newResolverWith(t,
		map[string]string{SettingRequestType: "0", SettingAnswersToSend: "G1", SettingSendToken: "1"},
		map[string]string{SettingRequestType: "1", SettingAnswersToSend: " Q1, Q2 ,,Q1", SettingSendToken: "0"},
	)

	resolved, err := resolver.ResolveAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if resolved.Method != MethodGet {
		t.Fatalf("expected GET from survey scope, got %q", resolved.Method)
	}
	if !reflect.DeepEqual(resolved.AnswerCodes, []string{"Q1", "Q2"}) {
		t.Fatalf("expected trimmed deduplicated codes, got %#v", resolved.AnswerCodes)
	}
	if resolved.SendToken {
		t.Fatalf("expected survey send token off")
	}
}

func TestSettingsResolver_OtherSurveysDoNotLeak(t *testing.T) {
	resolver := newResolverWith(t, nil, map[string]string{SettingUse: "1", SettingDebugMode: "1"})

	resolved, err := resolver.ResolveAll(context.Background(), 8)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if resolved.HookEnabled() || resolved.DebugMode {
		t.Fatalf("expected survey 8 to see only defaults, got %#v", resolved)
	}
}

func TestSettingsResolver_UseTriState(t *testing.T) {
	cases := []struct {
		name   string
		global string
		survey string
		want   bool
	}{
		{name: "survey off global on", global: "1", survey: "0", want: false},
		{name: "survey off global off", global: "0", survey: "0", want: false},
		{name: "survey defers global off", global: "0", survey: "2", want: false},
		{name: "survey defers global unset", global: "", survey: "2", want: false},
		{name: "survey defers global on", global: "1", survey: "2", want: true},
		{name: "survey on global off", global: "0", survey: "1", want: true},
		{name: "survey unset global on", global: "1", survey: "", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			global := map[string]string{}
			if tc.global != "" {
				global[SettingUse] = tc.global
			}
			survey := map[string]string{}
			if tc.survey != "" {
				survey[SettingUse] = tc.survey
			}
			resolver := newResolverWith(t, global, survey)
			enabled, err := resolver.HookEnabled(context.Background(), 7)
			if err != nil {
				t.Fatalf("hook enabled: %v", err)
			}
			if enabled != tc.want {
				t.Fatalf("expected enabled=%v, got %v", tc.want, enabled)
			}
		})
	}
}

func TestSettingsResolver_ResolveUseReturnsEffectiveSwitch(t *testing.T) {
	cases := []struct {
		name   string
		global string
		survey string
		want   string
	}{
		{name: "survey defers to global on", global: "1", survey: "2", want: "1"},
		{name: "survey unset defers to global off", global: "0", want: "0"},
		{name: "survey unset and nothing stored", want: "0"},
		{name: "survey default defers to global on", global: "1", want: "1"},
		{name: "survey on wins over global off", global: "0", survey: "1", want: "1"},
		{name: "survey off wins over global on", global: "1", survey: "0", want: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			global := map[string]string{}
			if tc.global != "" {
				global[SettingUse] = tc.global
			}
			survey := map[string]string{}
			if tc.survey != "" {
				survey[SettingUse] = tc.survey
			}
			value, err := newResolverWith(t, global, survey).Resolve(context.Background(), SettingUse, 7)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if value != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, value)
			}
		})
	}
}

func TestSettingsResolver_UnknownSetting(t *testing.T) {
	resolver := newResolverWith(t, nil, nil)

	_, err := resolver.Resolve(context.Background(), "sNope", 7)
	if !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected unknown setting error, got %v", err)
	}
}

func TestSettingsResolver_StoreFailureFallsBackToDefaults(t *testing.T) {
	resolver := NewSettingsResolver(failingSettingsStore{err: errors.New("db down")}, "", DefaultSettingsSchema())

	resolved, err := resolver.ResolveAll(context.Background(), 7)
	if err == nil {
		t.Fatalf("expected read error to be reported")
	}
	if resolved.URL != DefaultWebhookURL {
		t.Fatalf("expected default url on failure, got %q", resolved.URL)
	}
	if resolved.HookEnabled() {
		t.Fatalf("expected hook disabled on failure")
	}
	if resolver.Plugin() != DefaultPluginName {
		t.Fatalf("expected default plugin name, got %q", resolver.Plugin())
	}
}

func TestSplitAnswerCodes(t *testing.T) {
	if codes := SplitAnswerCodes("   "); codes != nil {
		t.Fatalf("expected nil for blank input, got %#v", codes)
	}
	got := SplitAnswerCodes("Q1,Q2 , Q3")
	if !reflect.DeepEqual(got, []string{"Q1", "Q2", "Q3"}) {
		t.Fatalf("unexpected codes %#v", got)
	}
}
