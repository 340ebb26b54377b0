package command

import (
	"strings"

	"github.com/goliatone/go-surveyhooks/core"
)

const (
	TypeSurveyCompleted    = "surveyhooks.command.survey_completed"
	TypeSurveyAutosaved    = "surveyhooks.command.survey_autosaved"
	TypeBeforePageRender   = "surveyhooks.command.before_page_render"
	TypeSaveSurveySettings = "surveyhooks.command.settings.save_survey"
	TypeSaveGlobalSettings = "surveyhooks.command.settings.save_global"
)

// SurveyCompletedMessage may carry a page sink; when set it receives the debug
// trace of the delivery.
type SurveyCompletedMessage struct {
	SurveyID   int
	ResponseID int64
	Content    core.ContentSink
}

func (SurveyCompletedMessage) Type() string { return TypeSurveyCompleted }

func (m SurveyCompletedMessage) Validate() error {
	return validateSurveyID(m.SurveyID)
}

// SurveyAutosavedMessage may carry a page sink; when set it receives the debug
// trace of the delivery.
type SurveyAutosavedMessage struct {
	SurveyID   int
	ResponseID int64
	Content    core.ContentSink
}

func (SurveyAutosavedMessage) Type() string { return TypeSurveyAutosaved }

func (m SurveyAutosavedMessage) Validate() error {
	return validateSurveyID(m.SurveyID)
}

// BeforePageRenderMessage carries the sink that receives the debug trace.
type BeforePageRenderMessage struct {
	SurveyID int
	Content  core.ContentSink
}

func (BeforePageRenderMessage) Type() string { return TypeBeforePageRender }

func (m BeforePageRenderMessage) Validate() error {
	if err := validateSurveyID(m.SurveyID); err != nil {
		return err
	}
	if m.Content == nil {
		return commandValidationError("content", "content sink is required")
	}
	return nil
}

type SaveSurveySettingsMessage struct {
	SurveyID int
	Values   map[string]string
}

func (SaveSurveySettingsMessage) Type() string { return TypeSaveSurveySettings }

func (m SaveSurveySettingsMessage) Validate() error {
	if err := validateSurveyID(m.SurveyID); err != nil {
		return err
	}
	return validateValues(m.Values)
}

type SaveGlobalSettingsMessage struct {
	Values map[string]string
}

func (SaveGlobalSettingsMessage) Type() string { return TypeSaveGlobalSettings }

func (m SaveGlobalSettingsMessage) Validate() error {
	return validateValues(m.Values)
}

func validateSurveyID(surveyID int) error {
	if surveyID <= 0 {
		return commandValidationError("survey_id", "survey id must be positive")
	}
	return nil
}

func validateValues(values map[string]string) error {
	if len(values) == 0 {
		return commandValidationError("values", "at least one setting value is required")
	}
	for name := range values {
		if strings.TrimSpace(name) == "" {
			return commandValidationError("values", "setting name is required")
		}
	}
	return nil
}
