package query

import (
	"context"

	"github.com/goliatone/go-surveyhooks/core"
)

type SettingsFormReader interface {
	DescribeSurveySettings(ctx context.Context, surveyID int) (core.SettingsForm, error)
	DescribeGlobalSettings(ctx context.Context) (core.SettingsForm, error)
}

type SettingsReader interface {
	ResolveSettings(ctx context.Context, surveyID int) (core.ResolvedSettings, error)
	ResolveSetting(ctx context.Context, name string, surveyID int) (string, error)
}

type ResponseReader interface {
	FetchResponse(ctx context.Context, req core.FetchRequest) (core.Response, error)
}

type DescribeSurveySettingsQuery struct {
	reader SettingsFormReader
}

func NewDescribeSurveySettingsQuery(reader SettingsFormReader) *DescribeSurveySettingsQuery {
	return &DescribeSurveySettingsQuery{reader: reader}
}

func (q *DescribeSurveySettingsQuery) Query(
	ctx context.Context,
	msg DescribeSurveySettingsMessage,
) (core.SettingsForm, error) {
	if q == nil || q.reader == nil {
		return core.SettingsForm{}, queryDependencyError("query: settings form reader is required")
	}
	return q.reader.DescribeSurveySettings(ctx, msg.SurveyID)
}

type DescribeGlobalSettingsQuery struct {
	reader SettingsFormReader
}

func NewDescribeGlobalSettingsQuery(reader SettingsFormReader) *DescribeGlobalSettingsQuery {
	return &DescribeGlobalSettingsQuery{reader: reader}
}

func (q *DescribeGlobalSettingsQuery) Query(
	ctx context.Context,
	_ DescribeGlobalSettingsMessage,
) (core.SettingsForm, error) {
	if q == nil || q.reader == nil {
		return core.SettingsForm{}, queryDependencyError("query: settings form reader is required")
	}
	return q.reader.DescribeGlobalSettings(ctx)
}

type ResolveSettingsQuery struct {
	reader SettingsReader
}

func NewResolveSettingsQuery(reader SettingsReader) *ResolveSettingsQuery {
	return &ResolveSettingsQuery{reader: reader}
}

func (q *ResolveSettingsQuery) Query(ctx context.Context, msg ResolveSettingsMessage) (core.ResolvedSettings, error) {
	if q == nil || q.reader == nil {
		return core.ResolvedSettings{}, queryDependencyError("query: settings reader is required")
	}
	return q.reader.ResolveSettings(ctx, msg.SurveyID)
}

type ResolveSettingQuery struct {
	reader SettingsReader
}

func NewResolveSettingQuery(reader SettingsReader) *ResolveSettingQuery {
	return &ResolveSettingQuery{reader: reader}
}

func (q *ResolveSettingQuery) Query(ctx context.Context, msg ResolveSettingMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: settings reader is required")
	}
	return q.reader.ResolveSetting(ctx, msg.Name, msg.SurveyID)
}

type FetchResponseQuery struct {
	reader ResponseReader
}

func NewFetchResponseQuery(reader ResponseReader) *FetchResponseQuery {
	return &FetchResponseQuery{reader: reader}
}

func (q *FetchResponseQuery) Query(ctx context.Context, msg FetchResponseMessage) (core.Response, error) {
	if q == nil || q.reader == nil {
		return core.Response{}, queryDependencyError("query: response reader is required")
	}
	return q.reader.FetchResponse(ctx, msg.Request)
}
