package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-surveyhooks/core"
)

var (
	_ gocmd.Querier[DescribeSurveySettingsMessage, core.SettingsForm] = (*DescribeSurveySettingsQuery)(nil)
	_ gocmd.Querier[DescribeGlobalSettingsMessage, core.SettingsForm] = (*DescribeGlobalSettingsQuery)(nil)
	_ gocmd.Querier[ResolveSettingsMessage, core.ResolvedSettings]    = (*ResolveSettingsQuery)(nil)
	_ gocmd.Querier[ResolveSettingMessage, string]                    = (*ResolveSettingQuery)(nil)
	_ gocmd.Querier[FetchResponseMessage, core.Response]              = (*FetchResponseQuery)(nil)

	_ SettingsFormReader = (*core.Service)(nil)
	_ SettingsReader     = (*core.Service)(nil)
	_ ResponseReader     = (*core.Service)(nil)
)
