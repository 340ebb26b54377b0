package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SurveyCompleted handles the respondent submitting the final page. The debug
// trace is left on EventOutcome.TraceHTML; use Handle with Event.Content to
// have it written to a page instead.
func (s *Service) SurveyCompleted(ctx context.Context, surveyID int, responseID int64) EventOutcome {
	return s.Handle(ctx, Event{Name: EventSurveyCompleted, SurveyID: surveyID, ResponseID: responseID})
}

// SurveyAutosaved handles a partial save while the respondent is on a page.
func (s *Service) SurveyAutosaved(ctx context.Context, surveyID int, responseID int64) EventOutcome {
	return s.Handle(ctx, Event{Name: EventSurveyAutosaved, SurveyID: surveyID, ResponseID: responseID})
}

// BeforePageRender handles a survey page about to be rendered. content
// receives the debug trace when debug mode is on.
func (s *Service) BeforePageRender(ctx context.Context, surveyID int, content ContentSink) EventOutcome {
	return s.Handle(ctx, Event{Name: EventBeforePageRender, SurveyID: surveyID, Content: content})
}

// Handle runs one event through resolve, fetch, render and dispatch. Failures
// are logged and reported on the outcome, never returned: the respondent flow
// must not be interrupted by delivery problems.
func (s *Service) Handle(ctx context.Context, event Event) (outcome EventOutcome) {
	outcome = EventOutcome{Event: event.Name, SurveyID: event.SurveyID}
	if s == nil {
		outcome.Skipped = SkipReasonInvalidEvent
		return outcome
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := s.now()
	defer func() {
		outcome.Elapsed = s.now().Sub(startedAt)
		s.observeEvent(ctx, startedAt, outcome)
	}()

	if !event.Name.Valid() || event.SurveyID <= 0 {
		outcome.Skipped = SkipReasonInvalidEvent
		s.logError(ctx, "survey hook event rejected", map[string]any{
			"event":     string(event.Name),
			"survey_id": event.SurveyID,
		})
		return outcome
	}

	settings, err := s.resolver.ResolveAll(ctx, event.SurveyID)
	if err != nil {
		s.logError(ctx, "survey hook settings partially resolved", map[string]any{
			"event":     string(event.Name),
			"survey_id": event.SurveyID,
			"error":     err.Error(),
		})
	}
	outcome.Settings = settings
	if !settings.HookEnabled() {
		outcome.Skipped = SkipReasonDisabled
		return outcome
	}

	rc := RenderContext{
		SurveyID: event.SurveyID,
		AuthKey:  settings.AuthToken,
		Event:    event.Name,
	}
	if settings.SendToken || len(settings.AnswerCodes) > 0 {
		response, fetchErr := s.fetcher.Fetch(ctx, FetchRequest{
			SurveyID:   event.SurveyID,
			ResponseID: event.ResponseID,
			Codes:      settings.AnswerCodes,
		})
		if fetchErr != nil {
			s.logError(ctx, "survey hook response fetch failed", map[string]any{
				"event":       string(event.Name),
				"survey_id":   event.SurveyID,
				"response_id": event.ResponseID,
				"error":       fetchErr.Error(),
			})
		}
		outcome.Response = response
		outcome.ResponseFetched = true
		rc.Response = response
		rc.ResponseFetched = true
		if settings.SendToken {
			rc.Token = response.Token
		}
		if len(settings.AnswerCodes) > 0 {
			rc.AdditionalFields = response.Answers
			rc.FieldOrder = append([]string(nil), settings.AnswerCodes...)
		}
	}

	payload, renderErr := s.renderer.Render(settings.PayloadTemplate, rc)
	if renderErr != nil {
		outcome.Skipped = SkipReasonRenderFailed
		s.logError(ctx, "survey hook payload render failed", map[string]any{
			"event":     string(event.Name),
			"survey_id": event.SurveyID,
			"error":     renderErr.Error(),
		})
		s.emitTrace(&outcome, event, settings, startedAt, renderErr)
		return outcome
	}
	outcome.Payload = payload

	outcome.Delivery = s.dispatcher.Send(ctx, DeliveryRequest{
		Method:  settings.Method,
		URL:     settings.URL,
		AuthKey: settings.AuthToken,
		Payload: payload,
	})

	s.logDelivery(ctx, event, outcome)
	s.emitTrace(&outcome, event, settings, startedAt, nil)
	return outcome
}

// logDelivery writes the per event line: tag, parameters and raw result.
// Credentials are redacted here but not in the debug trace.
func (s *Service) logDelivery(ctx context.Context, event Event, outcome EventOutcome) {
	params := RedactSensitiveMap(outcome.Payload.Map())
	fields := map[string]any{
		"event":       string(event.Name),
		"survey_id":   event.SurveyID,
		"response_id": event.ResponseID,
		"method":      string(outcome.Delivery.Method),
		"url":         RedactURL(outcome.Delivery.URL),
		"params":      params,
		"status_code": outcome.Delivery.StatusCode,
		"result":      string(outcome.Delivery.Body),
		"elapsed_ms":  outcome.Delivery.Elapsed.Milliseconds(),
	}
	message := fmt.Sprintf("%s | Params: %s %s", event.Name, encodeLogParams(params), strings.TrimSpace(string(outcome.Delivery.Body)))
	if outcome.Delivery.Err != nil {
		fields["error"] = outcome.Delivery.Err.Error()
		s.logError(ctx, message, fields)
		return
	}
	s.logInfo(ctx, message, fields)
}

func (s *Service) emitTrace(outcome *EventOutcome, event Event, settings ResolvedSettings, startedAt time.Time, renderErr error) {
	if !settings.DebugMode {
		return
	}
	outcome.TraceHTML = RenderDebugTrace(DebugTrace{
		Event:       event.Name,
		Payload:     outcome.Payload,
		Delivery:    outcome.Delivery,
		RenderError: renderErr,
		Response:    outcome.Response,
		Fetched:     outcome.ResponseFetched,
		Elapsed:     s.now().Sub(startedAt),
	})
	if event.Content != nil {
		event.Content.AddContent(outcome.TraceHTML)
	}
}

func encodeLogParams(params map[string]any) string {
	raw, err := marshalJSON(params)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
