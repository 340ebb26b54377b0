package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-surveyhooks/core"
	"github.com/goliatone/go-surveyhooks/transport"
)

type capturedRequest struct {
	method      string
	rawQuery    string
	contentType string
	body        string
}

func newCaptureServer(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	seen := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = capturedRequest{
			method:      r.Method,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server, seen
}

func orderedPayload(format core.PayloadFormat, pairs ...any) *core.Payload {
	payload := core.NewPayload(format)
	for i := 0; i+1 < len(pairs); i += 2 {
		payload.Set(pairs[i].(string), pairs[i+1])
	}
	return payload
}

func TestDispatcher_GetEncodesPayloadIntoQuery(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusOK, "ok")
	dispatcher := NewDispatcher(transport.NewRegistryWithClient(server.Client(), 0))

	result := dispatcher.Send(context.Background(), core.DeliveryRequest{
		Method:  core.MethodGet,
		URL:     server.URL,
		AuthKey: "K",
		Payload: orderedPayload(core.PayloadFormatForm, "a", 1, "b", 2, "skip", nil, "flag", true),
	})
	if result.Err != nil {
		t.Fatalf("send: %v", result.Err)
	}
	if seen.method != http.MethodGet || seen.rawQuery != "a=1&b=2&flag=1" {
		t.Fatalf("unexpected request %#v", seen)
	}
	if result.URL != server.URL+"?a=1&b=2&flag=1" {
		t.Fatalf("unexpected result url %q", result.URL)
	}
	if !result.Delivered() || string(result.Body) != "ok" {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestDispatcher_PostFormAppendsAuthQuery(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusOK, `{"status":"ok"}`)
	dispatcher := NewDispatcher(transport.NewRegistryWithClient(server.Client(), 0))

	result := dispatcher.Send(context.Background(), core.DeliveryRequest{
		Method:  core.MethodPost,
		URL:     server.URL + "/hook?flow=1",
		AuthKey: "a&b",
		Payload: orderedPayload(core.PayloadFormatForm, "zapikey", "a&b", "survey", 7),
	})
	if result.Err != nil {
		t.Fatalf("send: %v", result.Err)
	}
	if seen.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", seen.method)
	}
	if seen.rawQuery != "flow=1&zapikey=a%26b&isdebug=false" {
		t.Fatalf("unexpected query %q", seen.rawQuery)
	}
	if seen.contentType != "application/x-www-form-urlencoded" || seen.body != "zapikey=a%26b&survey=7" {
		t.Fatalf("unexpected body %q (%s)", seen.body, seen.contentType)
	}
	if string(result.Body) != `{"status":"ok"}` {
		t.Fatalf("expected raw body, got %q", string(result.Body))
	}
}

func TestDispatcher_PostJSONTemplatePayload(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusOK, "")
	dispatcher := NewDispatcher(transport.NewRegistryWithClient(server.Client(), 0))

	payload, err := NewRenderer().Render(`{"survey":"{surveyId}","token":"{token}"}`, core.RenderContext{SurveyID: 7, Token: strPtr("abc")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	result := dispatcher.Send(context.Background(), core.DeliveryRequest{
		Method:  core.MethodPost,
		URL:     server.URL,
		AuthKey: "K",
		Payload: payload,
	})
	if result.Err != nil {
		t.Fatalf("send: %v", result.Err)
	}
	if seen.contentType != "application/json" || seen.body != `{"survey":"7","token":"abc"}` {
		t.Fatalf("unexpected json request %#v", seen)
	}
	if seen.rawQuery != "zapikey=K&isdebug=false" {
		t.Fatalf("unexpected query %q", seen.rawQuery)
	}
}

func TestDispatcher_NonSuccessStatusIsReturned(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusInternalServerError, "boom")
	dispatcher := NewDispatcher(transport.NewRegistryWithClient(server.Client(), 0))

	result := dispatcher.Send(context.Background(), core.DeliveryRequest{Method: core.MethodPost, URL: server.URL})
	if result.Err != nil {
		t.Fatalf("expected no error for 5xx, got %v", result.Err)
	}
	if result.StatusCode != http.StatusInternalServerError || string(result.Body) != "boom" || result.Delivered() {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestDispatcher_TransportFailureIsCaptured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := server.Client()
	target := server.URL
	server.Close()

	dispatcher := NewDispatcher(transport.NewRegistryWithClient(client, 0))
	result := dispatcher.Send(context.Background(), core.DeliveryRequest{Method: core.MethodGet, URL: target})
	if result.Err == nil {
		t.Fatalf("expected transport error")
	}
	if result.StatusCode != 0 {
		t.Fatalf("expected no status, got %d", result.StatusCode)
	}
}

func TestDispatcher_RequiresURL(t *testing.T) {
	result := NewDispatcher(transport.NewRegistry()).Send(context.Background(), core.DeliveryRequest{URL: " "})
	if !errors.Is(result.Err, ErrDeliveryURLRequired) {
		t.Fatalf("expected url required error, got %v", result.Err)
	}
}

func TestDispatcher_UsesClockForElapsed(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, "")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 250 * time.Millisecond)
	}
	dispatcher := NewDispatcher(transport.NewRegistryWithClient(server.Client(), 0), WithDispatcherClock(clock))

	result := dispatcher.Send(context.Background(), core.DeliveryRequest{Method: core.MethodGet, URL: server.URL})
	if result.Elapsed != 250*time.Millisecond {
		t.Fatalf("expected 250ms elapsed, got %s", result.Elapsed)
	}
}

func TestDispatcher_ResponseBodyLimit(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, strings.Repeat("x", 32))
	dispatcher := NewDispatcher(transport.NewRegistryWithClient(server.Client(), 0), WithResponseBodyLimit(8))

	result := dispatcher.Send(context.Background(), core.DeliveryRequest{Method: core.MethodGet, URL: server.URL})
	if result.Err == nil || !strings.Contains(result.Err.Error(), "exceeds limit of 8 bytes") {
		t.Fatalf("expected body limit error, got %v", result.Err)
	}
}
