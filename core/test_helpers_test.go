package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// jsonRenderer is a minimal renderer: a non empty template is decoded as is,
// an empty one yields a fixed payload carrying the context fields.
type jsonRenderer struct {
	mu    sync.Mutex
	calls []RenderContext
	err   error
}

func (r *jsonRenderer) Render(template string, rc RenderContext) (*Payload, error) {
	r.mu.Lock()
	r.calls = append(r.calls, rc)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if template != "" {
		return DecodePayload([]byte(template), PayloadFormatJSON)
	}
	payload := NewPayload(PayloadFormatForm).
		Set("zapikey", rc.AuthKey).
		Set("survey", rc.SurveyID).
		Set("event", string(rc.Event)).
		Set("token", rc.Token)
	codes := append([]string(nil), rc.FieldOrder...)
	for _, code := range codes {
		payload.Set(code, rc.AdditionalFields[code])
	}
	return payload, nil
}

func (r *jsonRenderer) lastCall() (RenderContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return RenderContext{}, false
	}
	return r.calls[len(r.calls)-1], true
}

type recordingDispatcher struct {
	mu       sync.Mutex
	requests []DeliveryRequest
	result   DeliveryResult
}

func (d *recordingDispatcher) Send(_ context.Context, req DeliveryRequest) DeliveryResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	result := d.result
	result.Method = req.Method
	result.URL = req.URL
	if result.StatusCode == 0 && result.Err == nil {
		result.StatusCode = 200
	}
	return result
}

func (d *recordingDispatcher) sent() []DeliveryRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DeliveryRequest(nil), d.requests...)
}

type memoryResponseStore struct {
	questions []QuestionColumn
	rows      map[int][]map[string]any
	err       error
	lastCols  []string
}

func (s *memoryResponseStore) QuestionColumns(_ context.Context, surveyID int) ([]QuestionColumn, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]QuestionColumn(nil), s.questions...), nil
}

func (s *memoryResponseStore) FindResponse(_ context.Context, surveyID int, responseID int64, columns []string) (map[string]any, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	s.lastCols = append([]string(nil), columns...)
	for _, row := range s.rows[surveyID] {
		if fmt.Sprint(row["id"]) == fmt.Sprint(responseID) {
			return project(row, columns), true, nil
		}
	}
	return nil, false, nil
}

func (s *memoryResponseStore) LatestResponse(_ context.Context, surveyID int, columns []string) (map[string]any, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	s.lastCols = append([]string(nil), columns...)
	rows := append([]map[string]any(nil), s.rows[surveyID]...)
	if len(rows) == 0 {
		return nil, false, nil
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return fmt.Sprint(rows[i]["datestamp"]) > fmt.Sprint(rows[j]["datestamp"])
	})
	return project(rows[0], columns), true, nil
}

func project(row map[string]any, columns []string) map[string]any {
	out := make(map[string]any, len(columns))
	for _, column := range columns {
		out[column] = row[column]
	}
	return out
}

type captureSink struct {
	html []string
}

func (c *captureSink) AddContent(html string) {
	c.html = append(c.html, html)
}

type failingSettingsStore struct {
	err error
}

func (s failingSettingsStore) Get(context.Context, string, string, Scope) (string, bool, error) {
	return "", false, s.err
}

func (s failingSettingsStore) List(context.Context, string, Scope) (map[string]string, error) {
	return nil, s.err
}

func (s failingSettingsStore) Set(context.Context, string, string, Scope, string) error {
	return s.err
}

func fixedClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

func newTestService(store SettingsStore, responses ResponseStore, renderer PayloadRenderer, dispatcher Dispatcher, opts ...Option) (*Service, error) {
	all := []Option{
		WithLogger(stubLogger{}),
		WithSettingsStore(store),
		WithResponseStore(responses),
		WithPayloadRenderer(renderer),
		WithDispatcher(dispatcher),
	}
	all = append(all, opts...)
	return NewService(DefaultConfig(), all...)
}

func seedSettings(store SettingsStore, scope Scope, values map[string]string) error {
	for name, value := range values {
		if err := store.Set(context.Background(), DefaultPluginName, name, scope, value); err != nil {
			return err
		}
	}
	return nil
}
