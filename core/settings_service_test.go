package core

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestSaveSurveySettings_RoundTripsThroughDescribe(t *testing.T) {
	store := NewMemorySettingsStore()
	svc, err := newTestService(store, nil, &jsonRenderer{}, &recordingDispatcher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	err = svc.SaveSurveySettings(ctx, 7, map[string]string{
		SettingUse:          " 1 ",
		SettingURLOverwrite: "1",
		SettingURL:          "https://survey.example.com/hook",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	form, err := svc.DescribeSurveySettings(ctx, 7)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if form.Plugin != DefaultPluginName || form.Scope != SurveyScope(7) {
		t.Fatalf("unexpected form header %#v", form)
	}
	use, ok := form.Field(SettingUse)
	if !ok || use.Current != "1" || !use.HasValue {
		t.Fatalf("expected trimmed stored bUse, got %#v", use)
	}
	debug, ok := form.Field(SettingDebugMode)
	if !ok || debug.Current != "0" || debug.HasValue {
		t.Fatalf("expected default debug mode, got %#v", debug)
	}
	if len(form.Fields) != len(DefaultSettingsSchema().Survey) {
		t.Fatalf("expected every survey field, got %d", len(form.Fields))
	}

	resolved, err := svc.ResolveSettings(ctx, 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.HookEnabled() || resolved.URL != "https://survey.example.com/hook" {
		t.Fatalf("expected saved values to drive resolution, got %#v", resolved)
	}
}

func TestSaveSurveySettings_OverwritesValues(t *testing.T) {
	store := NewMemorySettingsStore()
	svc, err := newTestService(store, nil, &jsonRenderer{}, &recordingDispatcher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	if err := svc.SaveSurveySettings(ctx, 7, map[string]string{SettingAnswersToSend: "Q1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.SaveSurveySettings(ctx, 7, map[string]string{SettingAnswersToSend: "Q2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	value, found, err := store.Get(ctx, DefaultPluginName, SettingAnswersToSend, SurveyScope(7))
	if err != nil || !found || value != "Q2" {
		t.Fatalf("expected overwritten value Q2, got %q found=%v err=%v", value, found, err)
	}
}

func TestSaveSettings_RejectsUnknownKeysAndBadOptions(t *testing.T) {
	store := NewMemorySettingsStore()
	svc, err := newTestService(store, nil, &jsonRenderer{}, &recordingDispatcher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	err = svc.SaveGlobalSettings(ctx, map[string]string{
		SettingUse:          "2",
		SettingURLOverwrite: "1",
		SettingURL:          "https://ok.example.com",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors error, got %T", err)
	}
	if richErr.TextCode != ServiceErrorBadInput {
		t.Fatalf("expected bad input text code, got %q", richErr.TextCode)
	}
	stored, err := store.List(ctx, DefaultPluginName, GlobalScope())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected nothing written on validation failure, got %#v", stored)
	}

	if err := svc.SaveSurveySettings(ctx, 0, map[string]string{SettingUse: "1"}); err == nil {
		t.Fatalf("expected invalid survey id error")
	}
	if _, err := svc.DescribeSurveySettings(ctx, -1); err == nil {
		t.Fatalf("expected invalid survey id error")
	}
}

func TestDescribeGlobalSettings_ListsGlobalSchema(t *testing.T) {
	svc, err := newTestService(NewMemorySettingsStore(), nil, &jsonRenderer{}, &recordingDispatcher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	form, err := svc.DescribeGlobalSettings(context.Background())
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if _, ok := form.Field(SettingURLOverwrite); ok {
		t.Fatalf("override flags are survey only")
	}
	url, ok := form.Field(SettingURL)
	if !ok || url.Current != DefaultWebhookURL {
		t.Fatalf("expected default url in global form, got %#v", url)
	}
}
