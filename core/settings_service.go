package core

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SettingsField struct {
	SettingDefinition
	Current  string
	HasValue bool
}

// SettingsForm is what a host renders on its plugin settings page.
type SettingsForm struct {
	Plugin string
	Scope  Scope
	Fields []SettingsField
}

func (f SettingsForm) Field(name string) (SettingsField, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return SettingsField{}, false
}

func (s *Service) DescribeSurveySettings(ctx context.Context, surveyID int) (form SettingsForm, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "describe_survey_settings", err, map[string]any{
			"survey_id": surveyID,
		})
	}()
	if surveyID <= 0 {
		return SettingsForm{}, settingsValidationError("survey_id", "survey id must be positive")
	}
	return s.describeSettings(ctx, SurveyScope(surveyID))
}

func (s *Service) DescribeGlobalSettings(ctx context.Context) (form SettingsForm, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "describe_global_settings", err, nil)
	}()
	return s.describeSettings(ctx, GlobalScope())
}

func (s *Service) describeSettings(ctx context.Context, scope Scope) (SettingsForm, error) {
	if s == nil {
		return SettingsForm{}, fmt.Errorf("core: service is nil")
	}
	stored, err := s.settingsStore.List(ctx, s.config.PluginName, scope)
	if err != nil {
		return SettingsForm{}, s.mapError(err)
	}
	defs := s.schema.definitions(scope.Type)
	form := SettingsForm{
		Plugin: s.config.PluginName,
		Scope:  scope,
		Fields: make([]SettingsField, 0, len(defs)),
	}
	for _, def := range defs {
		field := SettingsField{SettingDefinition: def, Current: def.Default}
		if value, ok := stored[def.Name]; ok {
			field.Current = value
			field.HasValue = true
		}
		form.Fields = append(form.Fields, field)
	}
	return form, nil
}

// SaveSurveySettings persists submitted values for one survey. Keys not
// declared for the survey scope are rejected before anything is written.
func (s *Service) SaveSurveySettings(ctx context.Context, surveyID int, values map[string]string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "save_survey_settings", err, map[string]any{
			"survey_id": surveyID,
			"keys":      sortedKeys(values),
		})
	}()
	if surveyID <= 0 {
		return settingsValidationError("survey_id", "survey id must be positive")
	}
	return s.saveSettings(ctx, SurveyScope(surveyID), values)
}

func (s *Service) SaveGlobalSettings(ctx context.Context, values map[string]string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "save_global_settings", err, map[string]any{
			"keys": sortedKeys(values),
		})
	}()
	return s.saveSettings(ctx, GlobalScope(), values)
}

func (s *Service) saveSettings(ctx context.Context, scope Scope, values map[string]string) error {
	if s == nil {
		return fmt.Errorf("core: service is nil")
	}
	if len(values) == 0 {
		return nil
	}
	keys := sortedKeys(values)
	fieldErrors := make([]goerrors.FieldError, 0)
	for _, name := range keys {
		def, ok := s.schema.Lookup(scope.Type, name)
		if !ok {
			fieldErrors = append(fieldErrors, goerrors.FieldError{
				Field:   name,
				Message: fmt.Sprintf("unknown %s setting", scope.Type),
			})
			continue
		}
		if !def.AllowsValue(values[name]) {
			fieldErrors = append(fieldErrors, goerrors.FieldError{
				Field:   name,
				Message: fmt.Sprintf("value %q is not an allowed option", values[name]),
			})
		}
	}
	if len(fieldErrors) > 0 {
		return goerrors.NewValidation("core: settings validation failed", fieldErrors...).
			WithCode(http.StatusBadRequest).
			WithTextCode(ServiceErrorBadInput)
	}

	for _, name := range keys {
		value := values[name]
		if def, _ := s.schema.Lookup(scope.Type, name); def.Type == SettingTypeSelect {
			value = strings.TrimSpace(value)
		}
		if err := s.settingsStore.Set(ctx, s.config.PluginName, name, scope, value); err != nil {
			return s.mapError(fmt.Errorf("core: save setting %s: %w", name, err))
		}
	}
	return nil
}

func settingsValidationError(field string, message string) error {
	return goerrors.NewValidation("core: settings validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ServiceErrorBadInput)
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
