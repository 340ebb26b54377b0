package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type EventName string

const (
	EventSurveyCompleted  EventName = "afterSurveyComplete"
	EventSurveyAutosaved  EventName = "afterSurveyDynamicSave"
	EventBeforePageRender EventName = "beforeSurveyPage"
)

func (e EventName) Valid() bool {
	switch e {
	case EventSurveyCompleted, EventSurveyAutosaved, EventBeforePageRender:
		return true
	default:
		return false
	}
}

const (
	ScopeTypeGlobal = "global"
	ScopeTypeSurvey = "survey"
)

// Scope identifies where a setting value lives: site wide or for one survey.
type Scope struct {
	Type     string
	SurveyID int
}

func GlobalScope() Scope {
	return Scope{Type: ScopeTypeGlobal}
}

func SurveyScope(surveyID int) Scope {
	return Scope{Type: ScopeTypeSurvey, SurveyID: surveyID}
}

func (s Scope) Validate() error {
	switch strings.TrimSpace(s.Type) {
	case ScopeTypeGlobal:
		if s.SurveyID != 0 {
			return fmt.Errorf("core: global scope must not carry a survey id")
		}
		return nil
	case ScopeTypeSurvey:
		if s.SurveyID <= 0 {
			return fmt.Errorf("core: survey scope requires a positive survey id")
		}
		return nil
	default:
		return fmt.Errorf("core: invalid scope type %q", s.Type)
	}
}

// ID is the storage form of the scope identifier: empty for global.
func (s Scope) ID() string {
	if s.Type != ScopeTypeSurvey {
		return ""
	}
	return strconv.Itoa(s.SurveyID)
}

func (s Scope) String() string {
	if s.Type == ScopeTypeSurvey {
		return ScopeTypeSurvey + ":" + s.ID()
	}
	return ScopeTypeGlobal
}

type Setting struct {
	Plugin    string
	Name      string
	Scope     Scope
	Value     string
	UpdatedAt time.Time
}

// UseMode is the tri-state master switch of the hook.
type UseMode int

const (
	UseOff    UseMode = 0
	UseOn     UseMode = 1
	UseGlobal UseMode = 2
)

func ParseUseMode(value string) UseMode {
	switch strings.TrimSpace(value) {
	case "1":
		return UseOn
	case "2":
		return UseGlobal
	default:
		return UseOff
	}
}

type RequestMethod string

const (
	MethodPost RequestMethod = "POST"
	MethodGet  RequestMethod = "GET"
)

// ParseRequestMethod maps the stored select value (0 POST, 1 GET) or a verb.
func ParseRequestMethod(value string) RequestMethod {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "1", "GET":
		return MethodGet
	default:
		return MethodPost
	}
}

// Response is one respondent submission, already escaped for transport.
type Response struct {
	SurveyID      int
	ID            int64
	Token         *string
	StartDate     *string
	DateStamp     *string
	LastPage      *int
	StartLanguage string
	Answers       map[string]*string
	Found         bool
}

type FetchRequest struct {
	SurveyID   int
	ResponseID int64
	Codes      []string
}

type ResolvedSettings struct {
	SurveyID        int
	Enabled         UseMode
	GlobalEnabled   UseMode
	URL             string
	AuthToken       string
	SendToken       bool
	AnswerCodes     []string
	Method          RequestMethod
	PayloadTemplate string
	DebugMode       bool
}

// HookEnabled applies the tri-state rule: off, on, or defer to the global switch.
func (r ResolvedSettings) HookEnabled() bool {
	switch r.Enabled {
	case UseOn:
		return true
	case UseGlobal:
		return r.GlobalEnabled == UseOn
	default:
		return false
	}
}

type RenderContext struct {
	SurveyID         int
	Token            *string
	AuthKey          string
	AdditionalFields map[string]*string
	FieldOrder       []string
	Event            EventName
	Response         Response
	ResponseFetched  bool
}

type DeliveryRequest struct {
	Method  RequestMethod
	URL     string
	AuthKey string
	Payload *Payload
}

type DeliveryResult struct {
	Method     RequestMethod
	URL        string
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
	Err        error
}

func (r DeliveryResult) Delivered() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

type Event struct {
	Name       EventName
	SurveyID   int
	ResponseID int64
	Content    ContentSink
}

const (
	SkipReasonInvalidEvent = "invalid_event"
	SkipReasonDisabled     = "disabled"
	SkipReasonRenderFailed = "render_failed"
)

type EventOutcome struct {
	Event    EventName
	SurveyID int
	Skipped  string
	Settings ResolvedSettings
	Response Response

	// ResponseFetched is false when neither the token nor answers were needed.
	ResponseFetched bool
	Payload         *Payload
	Delivery        DeliveryResult
	TraceHTML       string
	Elapsed         time.Duration
}

func (o EventOutcome) Attempted() bool {
	return o.Skipped == "" && o.Payload != nil
}
