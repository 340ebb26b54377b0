package query

import (
	"strings"

	"github.com/goliatone/go-surveyhooks/core"
)

const (
	TypeDescribeSurveySettings = "surveyhooks.query.settings.describe_survey"
	TypeDescribeGlobalSettings = "surveyhooks.query.settings.describe_global"
	TypeResolveSettings        = "surveyhooks.query.settings.resolve"
	TypeResolveSetting         = "surveyhooks.query.setting.resolve"
	TypeFetchResponse          = "surveyhooks.query.response.fetch"
)

type DescribeSurveySettingsMessage struct {
	SurveyID int
}

func (DescribeSurveySettingsMessage) Type() string { return TypeDescribeSurveySettings }

func (m DescribeSurveySettingsMessage) Validate() error {
	return validateSurveyID(m.SurveyID)
}

type DescribeGlobalSettingsMessage struct{}

func (DescribeGlobalSettingsMessage) Type() string { return TypeDescribeGlobalSettings }

func (DescribeGlobalSettingsMessage) Validate() error { return nil }

type ResolveSettingsMessage struct {
	SurveyID int
}

func (ResolveSettingsMessage) Type() string { return TypeResolveSettings }

func (m ResolveSettingsMessage) Validate() error {
	return validateSurveyID(m.SurveyID)
}

// ResolveSettingMessage resolves one setting; a zero SurveyID reads the
// global value.
type ResolveSettingMessage struct {
	Name     string
	SurveyID int
}

func (ResolveSettingMessage) Type() string { return TypeResolveSetting }

func (m ResolveSettingMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return queryValidationError("name", "setting name is required")
	}
	if m.SurveyID < 0 {
		return queryValidationError("survey_id", "survey id must be >= 0")
	}
	return nil
}

type FetchResponseMessage struct {
	Request core.FetchRequest
}

func (FetchResponseMessage) Type() string { return TypeFetchResponse }

func (m FetchResponseMessage) Validate() error {
	if err := validateSurveyID(m.Request.SurveyID); err != nil {
		return err
	}
	if m.Request.ResponseID < 0 {
		return queryValidationError("response_id", "response id must be >= 0")
	}
	return nil
}

func validateSurveyID(surveyID int) error {
	if surveyID <= 0 {
		return queryValidationError("survey_id", "survey id must be positive")
	}
	return nil
}
