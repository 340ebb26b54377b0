package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-surveyhooks/core"
)

var (
	_ gocmd.Commander[SurveyCompletedMessage]    = (*SurveyCompletedCommand)(nil)
	_ gocmd.Commander[SurveyAutosavedMessage]    = (*SurveyAutosavedCommand)(nil)
	_ gocmd.Commander[BeforePageRenderMessage]   = (*BeforePageRenderCommand)(nil)
	_ gocmd.Commander[SaveSurveySettingsMessage] = (*SaveSurveySettingsCommand)(nil)
	_ gocmd.Commander[SaveGlobalSettingsMessage] = (*SaveGlobalSettingsCommand)(nil)

	_ EventService    = (*core.Service)(nil)
	_ SettingsService = (*core.Service)(nil)
)
