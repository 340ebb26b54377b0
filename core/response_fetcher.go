package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	ColumnID            = "id"
	ColumnToken         = "token"
	ColumnStartDate     = "startdate"
	ColumnDateStamp     = "datestamp"
	ColumnLastPage      = "lastpage"
	ColumnStartLanguage = "startlanguage"
)

var baseResponseColumns = []string{
	ColumnID,
	ColumnToken,
	ColumnStartDate,
	ColumnDateStamp,
	ColumnLastPage,
	ColumnStartLanguage,
}

const responseTimeLayout = "2006-01-02 15:04:05"

// ResponseFetcher loads one response row and projects the requested
// question codes onto it.
type ResponseFetcher struct {
	store ResponseStore
}

func NewResponseFetcher(store ResponseStore) *ResponseFetcher {
	return &ResponseFetcher{store: store}
}

// Fetch returns the response with the given id, or the most recent one when
// ResponseID is not positive. A missing row yields Found=false and null
// answers for every requested code.
func (f *ResponseFetcher) Fetch(ctx context.Context, req FetchRequest) (Response, error) {
	empty := emptyResponse(req)
	if req.SurveyID <= 0 {
		return empty, fmt.Errorf("core: survey id must be positive")
	}
	if f == nil || f.store == nil {
		return empty, fmt.Errorf("core: response store is not configured")
	}

	columnsByCode := map[string]string{}
	if len(req.Codes) > 0 {
		questions, err := f.store.QuestionColumns(ctx, req.SurveyID)
		if err != nil {
			return empty, fmt.Errorf("core: resolve question columns for survey %d: %w", req.SurveyID, err)
		}
		columnsByCode = mapQuestionColumns(questions, req.Codes)
	}

	projection := append([]string(nil), baseResponseColumns...)
	seen := map[string]struct{}{}
	for _, column := range projection {
		seen[column] = struct{}{}
	}
	for _, code := range req.Codes {
		column, ok := columnsByCode[code]
		if !ok {
			continue
		}
		if _, dup := seen[column]; dup {
			continue
		}
		seen[column] = struct{}{}
		projection = append(projection, column)
	}

	var (
		row   map[string]any
		found bool
		err   error
	)
	if req.ResponseID > 0 {
		row, found, err = f.store.FindResponse(ctx, req.SurveyID, req.ResponseID, projection)
	} else {
		row, found, err = f.store.LatestResponse(ctx, req.SurveyID, projection)
	}
	if err != nil {
		return empty, fmt.Errorf("core: read response for survey %d: %w", req.SurveyID, err)
	}
	if !found {
		return empty, nil
	}

	response := Response{
		SurveyID:      req.SurveyID,
		Found:         true,
		Token:         escapedString(row[ColumnToken]),
		StartDate:     stringValue(row[ColumnStartDate]),
		DateStamp:     stringValue(row[ColumnDateStamp]),
		LastPage:      intValue(row[ColumnLastPage]),
		StartLanguage: derefString(stringValue(row[ColumnStartLanguage])),
		Answers:       make(map[string]*string, len(req.Codes)),
	}
	if id := intValue(row[ColumnID]); id != nil {
		response.ID = int64(*id)
	}
	for _, code := range req.Codes {
		column, ok := columnsByCode[code]
		if !ok {
			response.Answers[code] = nil
			continue
		}
		response.Answers[code] = escapedString(row[column])
	}
	return response, nil
}

// mapQuestionColumns keeps the first column reported for each requested code.
func mapQuestionColumns(questions []QuestionColumn, codes []string) map[string]string {
	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[code] = struct{}{}
	}
	out := make(map[string]string, len(codes))
	for _, question := range questions {
		code := strings.TrimSpace(question.Code)
		if _, ok := wanted[code]; !ok {
			continue
		}
		if _, exists := out[code]; exists {
			continue
		}
		if column := strings.TrimSpace(question.Column); column != "" {
			out[code] = column
		}
	}
	return out
}

func emptyResponse(req FetchRequest) Response {
	answers := make(map[string]*string, len(req.Codes))
	for _, code := range req.Codes {
		answers[code] = nil
	}
	return Response{SurveyID: req.SurveyID, Answers: answers}
}

// answerEscaper encodes the five HTML special characters, with quotes as
// &quot; and &#039;.
var answerEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

func escapedString(value any) *string {
	text := stringValue(value)
	if text == nil {
		return nil
	}
	escaped := answerEscaper.Replace(*text)
	return &escaped
}

func stringValue(value any) *string {
	var text string
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		text = typed
	case []byte:
		text = string(typed)
	case *string:
		if typed == nil {
			return nil
		}
		text = *typed
	case time.Time:
		text = typed.Format(responseTimeLayout)
	case *time.Time:
		if typed == nil {
			return nil
		}
		text = typed.Format(responseTimeLayout)
	case int64:
		text = strconv.FormatInt(typed, 10)
	case int:
		text = strconv.Itoa(typed)
	case float64:
		text = strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		text = strconv.FormatBool(typed)
	default:
		text = fmt.Sprint(typed)
	}
	return &text
}

func intValue(value any) *int {
	switch typed := value.(type) {
	case nil:
		return nil
	case int:
		return &typed
	case int32:
		v := int(typed)
		return &v
	case int64:
		v := int(typed)
		return &v
	case float64:
		v := int(typed)
		return &v
	}
	text := stringValue(value)
	if text == nil {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(*text))
	if err != nil {
		return nil
	}
	return &parsed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
