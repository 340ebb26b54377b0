package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	opts "github.com/goliatone/go-options"
)

const (
	layerDefaults = "defaults"
	layerGlobal   = "global"
	layerSurvey   = "survey"
)

// SettingsResolver computes effective setting values with the precedence
// survey override > global value > compiled default.
type SettingsResolver struct {
	store  SettingsStore
	plugin string
	schema SettingsSchema
}

func NewSettingsResolver(store SettingsStore, plugin string, schema SettingsSchema) *SettingsResolver {
	plugin = strings.TrimSpace(plugin)
	if plugin == "" {
		plugin = DefaultPluginName
	}
	return &SettingsResolver{store: store, plugin: plugin, schema: schema}
}

func (r *SettingsResolver) Plugin() string {
	if r == nil {
		return ""
	}
	return r.plugin
}

func (r *SettingsResolver) Schema() SettingsSchema {
	if r == nil {
		return DefaultSettingsSchema()
	}
	return r.schema
}

// Resolve returns the effective value of a single setting. For bUse that is
// "1" or "0", with a survey value of 2 deferring to the global switch. Store
// read failures are returned together with the best effort value.
func (r *SettingsResolver) Resolve(ctx context.Context, name string, surveyID int) (string, error) {
	if r == nil {
		return "", fmt.Errorf("core: settings resolver is nil")
	}
	name = strings.TrimSpace(name)
	if _, ok := r.schema.Defaults()[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	if name == SettingUse {
		global, survey, readErr := r.readScopes(ctx, surveyID)
		values, mergeErr := r.cascade(global, survey)
		err := errors.Join(readErr, mergeErr, r.checkGlobalUse(global))
		effective := ResolvedSettings{
			Enabled:       ParseUseMode(r.surveyUse(survey)),
			GlobalEnabled: ParseUseMode(values[SettingUse]),
		}
		if effective.HookEnabled() {
			return "1", err
		}
		return "0", err
	}
	merged, readErr := r.merged(ctx, surveyID)
	return merged[name], readErr
}

// ResolveAll resolves every setting the event flow needs for one survey.
func (r *SettingsResolver) ResolveAll(ctx context.Context, surveyID int) (ResolvedSettings, error) {
	if r == nil {
		return ResolvedSettings{}, fmt.Errorf("core: settings resolver is nil")
	}
	global, survey, readErr := r.readScopes(ctx, surveyID)
	values, mergeErr := r.cascade(global, survey)

	return ResolvedSettings{
		SurveyID:        surveyID,
		Enabled:         ParseUseMode(r.surveyUse(survey)),
		GlobalEnabled:   ParseUseMode(values[SettingUse]),
		URL:             strings.TrimSpace(values[SettingURL]),
		AuthToken:       strings.TrimSpace(values[SettingAuthToken]),
		SendToken:       strings.TrimSpace(values[SettingSendToken]) == "1",
		AnswerCodes:     SplitAnswerCodes(values[SettingAnswersToSend]),
		Method:          ParseRequestMethod(values[SettingRequestType]),
		PayloadTemplate: strings.TrimSpace(values[SettingPayloadTemplate]),
		DebugMode:       strings.TrimSpace(values[SettingDebugMode]) == "1",
	}, errors.Join(readErr, mergeErr)
}

// HookEnabled reports whether deliveries fire for the survey.
func (r *SettingsResolver) HookEnabled(ctx context.Context, surveyID int) (bool, error) {
	resolved, err := r.ResolveAll(ctx, surveyID)
	return resolved.HookEnabled(), err
}

func (r *SettingsResolver) merged(ctx context.Context, surveyID int) (map[string]string, error) {
	global, survey, readErr := r.readScopes(ctx, surveyID)
	values, mergeErr := r.cascade(global, survey)
	return values, errors.Join(readErr, mergeErr)
}

func (r *SettingsResolver) readScopes(ctx context.Context, surveyID int) (map[string]string, map[string]string, error) {
	if r.store == nil {
		return map[string]string{}, map[string]string{}, nil
	}
	var readErr error
	global, err := r.store.List(ctx, r.plugin, GlobalScope())
	if err != nil {
		readErr = errors.Join(readErr, fmt.Errorf("core: read global settings: %w", err))
		global = map[string]string{}
	}
	survey := map[string]string{}
	if surveyID > 0 {
		survey, err = r.store.List(ctx, r.plugin, SurveyScope(surveyID))
		if err != nil {
			readErr = errors.Join(readErr, fmt.Errorf("core: read survey %d settings: %w", surveyID, err))
			survey = map[string]string{}
		}
	}
	return global, survey, readErr
}

// cascade merges defaults, global and survey layers with go-options. bUse is
// resolved separately because its survey value is tri-state.
func (r *SettingsResolver) cascade(global map[string]string, survey map[string]string) (map[string]string, error) {
	defaults := r.schema.Defaults()
	defaultLayer := make(map[string]any, len(defaults))
	for name, value := range defaults {
		defaultLayer[name] = value
	}
	globalLayer := r.layer(ScopeTypeGlobal, global, nil)
	surveyLayer := r.layer(ScopeTypeSurvey, survey, func(def SettingDefinition) bool {
		if def.Name == SettingUse {
			return false
		}
		if def.OverrideFlag == "" {
			return true
		}
		return r.surveyValue(survey, def.OverrideFlag) == "1"
	})

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope(layerDefaults, 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any](layerDefaults),
		),
		opts.NewLayer(
			opts.NewScope(layerGlobal, 10),
			globalLayer,
			opts.WithSnapshotID[map[string]any](layerGlobal),
		),
		opts.NewLayer(
			opts.NewScope(layerSurvey, 20),
			surveyLayer,
			opts.WithSnapshotID[map[string]any](layerSurvey),
		),
	)
	if err != nil {
		return stringValues(defaultLayer), fmt.Errorf("core: settings stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return stringValues(defaultLayer), fmt.Errorf("core: settings merge failed: %w", err)
	}
	return stringValues(merged.Value), nil
}

// layer keeps the stored values declared for the scope. Blank strings count as
// unset so they fall through to the next layer.
func (r *SettingsResolver) layer(
	scope string,
	stored map[string]string,
	include func(SettingDefinition) bool,
) map[string]any {
	out := map[string]any{}
	for name, value := range stored {
		def, ok := r.schema.Lookup(scope, name)
		if !ok {
			continue
		}
		if include != nil && !include(def) {
			continue
		}
		if def.Type == SettingTypeString && strings.TrimSpace(value) == "" {
			continue
		}
		out[name] = value
	}
	return out
}

func (r *SettingsResolver) surveyValue(survey map[string]string, name string) string {
	if value, ok := survey[name]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if def, ok := r.schema.Lookup(ScopeTypeSurvey, name); ok {
		return def.Default
	}
	return ""
}

func (r *SettingsResolver) surveyUse(survey map[string]string) string {
	return r.surveyValue(survey, SettingUse)
}

func (r *SettingsResolver) checkGlobalUse(global map[string]string) error {
	value, ok := global[SettingUse]
	if !ok {
		return nil
	}
	if def, found := r.schema.Lookup(ScopeTypeGlobal, SettingUse); found && !def.AllowsValue(value) {
		return fmt.Errorf("core: global %s has invalid value %q", SettingUse, value)
	}
	return nil
}

func stringValues(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		switch typed := value.(type) {
		case string:
			out[key] = typed
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(typed)
		}
	}
	return out
}

// SplitAnswerCodes parses the comma separated question code list.
func SplitAnswerCodes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		code := strings.TrimSpace(part)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}
