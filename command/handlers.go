package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-surveyhooks/core"
)

type EventService interface {
	SurveyCompleted(ctx context.Context, surveyID int, responseID int64) core.EventOutcome
	SurveyAutosaved(ctx context.Context, surveyID int, responseID int64) core.EventOutcome
	BeforePageRender(ctx context.Context, surveyID int, content core.ContentSink) core.EventOutcome
}

type SettingsService interface {
	SaveSurveySettings(ctx context.Context, surveyID int, values map[string]string) error
	SaveGlobalSettings(ctx context.Context, values map[string]string) error
}

type SurveyCompletedCommand struct {
	service EventService
}

func NewSurveyCompletedCommand(service EventService) *SurveyCompletedCommand {
	return &SurveyCompletedCommand{service: service}
}

// Execute never fails on delivery problems; they are reported on the
// stored outcome.
func (c *SurveyCompletedCommand) Execute(ctx context.Context, msg SurveyCompletedMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: survey event service is required")
	}
	outcome := c.service.SurveyCompleted(ctx, msg.SurveyID, msg.ResponseID)
	appendTrace(msg.Content, outcome)
	storeResult(ctx, outcome)
	return nil
}

type SurveyAutosavedCommand struct {
	service EventService
}

func NewSurveyAutosavedCommand(service EventService) *SurveyAutosavedCommand {
	return &SurveyAutosavedCommand{service: service}
}

func (c *SurveyAutosavedCommand) Execute(ctx context.Context, msg SurveyAutosavedMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: survey event service is required")
	}
	outcome := c.service.SurveyAutosaved(ctx, msg.SurveyID, msg.ResponseID)
	appendTrace(msg.Content, outcome)
	storeResult(ctx, outcome)
	return nil
}

type BeforePageRenderCommand struct {
	service EventService
}

func NewBeforePageRenderCommand(service EventService) *BeforePageRenderCommand {
	return &BeforePageRenderCommand{service: service}
}

func (c *BeforePageRenderCommand) Execute(ctx context.Context, msg BeforePageRenderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: survey event service is required")
	}
	storeResult(ctx, c.service.BeforePageRender(ctx, msg.SurveyID, msg.Content))
	return nil
}

type SaveSurveySettingsCommand struct {
	service SettingsService
}

func NewSaveSurveySettingsCommand(service SettingsService) *SaveSurveySettingsCommand {
	return &SaveSurveySettingsCommand{service: service}
}

func (c *SaveSurveySettingsCommand) Execute(ctx context.Context, msg SaveSurveySettingsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: settings service is required")
	}
	return c.service.SaveSurveySettings(ctx, msg.SurveyID, msg.Values)
}

type SaveGlobalSettingsCommand struct {
	service SettingsService
}

func NewSaveGlobalSettingsCommand(service SettingsService) *SaveGlobalSettingsCommand {
	return &SaveGlobalSettingsCommand{service: service}
}

func (c *SaveGlobalSettingsCommand) Execute(ctx context.Context, msg SaveGlobalSettingsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: settings service is required")
	}
	return c.service.SaveGlobalSettings(ctx, msg.Values)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

func appendTrace(content core.ContentSink, outcome core.EventOutcome) {
	if content != nil && outcome.TraceHTML != "" {
		content.AddContent(outcome.TraceHTML)
	}
}
