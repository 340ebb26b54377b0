package surveyhooks

import (
	"fmt"

	surveycommand "github.com/goliatone/go-surveyhooks/command"
	surveyquery "github.com/goliatone/go-surveyhooks/query"
)

// CommandQueryService is the surface the facade delegates to. *Service
// satisfies it.
type CommandQueryService interface {
	surveycommand.EventService
	surveycommand.SettingsService
	surveyquery.SettingsFormReader
	surveyquery.SettingsReader
	surveyquery.ResponseReader
}

type Commands struct {
	SurveyCompleted    *surveycommand.SurveyCompletedCommand
	SurveyAutosaved    *surveycommand.SurveyAutosavedCommand
	BeforePageRender   *surveycommand.BeforePageRenderCommand
	SaveSurveySettings *surveycommand.SaveSurveySettingsCommand
	SaveGlobalSettings *surveycommand.SaveGlobalSettingsCommand
}

type Queries struct {
	DescribeSurveySettings *surveyquery.DescribeSurveySettingsQuery
	DescribeGlobalSettings *surveyquery.DescribeGlobalSettingsQuery
	ResolveSettings        *surveyquery.ResolveSettingsQuery
	ResolveSetting         *surveyquery.ResolveSettingQuery
	FetchResponse          *surveyquery.FetchResponseQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("surveyhooks: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SurveyCompleted:    surveycommand.NewSurveyCompletedCommand(service),
		SurveyAutosaved:    surveycommand.NewSurveyAutosavedCommand(service),
		BeforePageRender:   surveycommand.NewBeforePageRenderCommand(service),
		SaveSurveySettings: surveycommand.NewSaveSurveySettingsCommand(service),
		SaveGlobalSettings: surveycommand.NewSaveGlobalSettingsCommand(service),
	}
	facade.queries = Queries{
		DescribeSurveySettings: surveyquery.NewDescribeSurveySettingsQuery(service),
		DescribeGlobalSettings: surveyquery.NewDescribeGlobalSettingsQuery(service),
		ResolveSettings:        surveyquery.NewResolveSettingsQuery(service),
		ResolveSetting:         surveyquery.NewResolveSettingQuery(service),
		FetchResponse:          surveyquery.NewFetchResponseQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
