package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// SettingsStore is the host settings storage contract. Set overwrites; rows
// are never deleted.
type SettingsStore interface {
	Get(ctx context.Context, plugin string, name string, scope Scope) (value string, found bool, err error)
	List(ctx context.Context, plugin string, scope Scope) (map[string]string, error)
	Set(ctx context.Context, plugin string, name string, scope Scope, value string) error
}

type QuestionColumn struct {
	Code   string
	Column string
}

// ResponseStore reads host owned response tables. Rows are keyed by storage
// column name; found is false when no row matched.
type ResponseStore interface {
	QuestionColumns(ctx context.Context, surveyID int) ([]QuestionColumn, error)
	FindResponse(ctx context.Context, surveyID int, responseID int64, columns []string) (row map[string]any, found bool, err error)
	LatestResponse(ctx context.Context, surveyID int, columns []string) (row map[string]any, found bool, err error)
}

type PayloadRenderer interface {
	Render(template string, rc RenderContext) (*Payload, error)
}

type Dispatcher interface {
	Send(ctx context.Context, req DeliveryRequest) DeliveryResult
}

// ContentSink receives html appended to the page currently being rendered.
type ContentSink interface {
	AddContent(html string)
}

type ContentSinkFunc func(html string)

func (f ContentSinkFunc) AddContent(html string) {
	if f != nil {
		f(html)
	}
}

// Transport kinds the dispatcher selects from: form and json bodies are
// posted, query payloads travel in the url of a GET.
const (
	TransportKindForm  = "form"
	TransportKindJSON  = "json"
	TransportKindQuery = "query"
)

// TransportRequest describes one outbound call. RawQuery is appended to URL
// verbatim so parameter order survives.
type TransportRequest struct {
	Method               string
	URL                  string
	RawQuery             string
	Headers              map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type TransportResolver interface {
	Resolve(kind string) (TransportAdapter, error)
}

type Clock func() time.Time
