package gocommand

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-command"
	surveyhooks "github.com/goliatone/go-surveyhooks"
	surveycommand "github.com/goliatone/go-surveyhooks/command"
	"github.com/goliatone/go-surveyhooks/core"
	surveyquery "github.com/goliatone/go-surveyhooks/query"
	"github.com/goliatone/go-surveyhooks/webhooks"
)

type okMessage struct{}

func (okMessage) Type() string { return "surveyhooks.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "surveyhooks.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "surveyhooks.command.test" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
	if err := ValidateMessageContract(surveycommand.SurveyCompletedMessage{SurveyID: 7}); err != nil {
		t.Fatalf("expected survey completed message to satisfy contract, got %v", err)
	}
	if err := ValidateMessageContract(surveycommand.SurveyCompletedMessage{}); err == nil {
		t.Fatalf("expected missing survey id to fail contract validation")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	subscription, err := RegisterAndSubscribe(adapter, cmd)
	if err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	defer subscription.Unsubscribe()
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestRegisterFacade_RoutesSurveyMessages(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, err := surveyhooks.Setup(surveyhooks.Config{}, surveyhooks.WithDispatcher(dispatcher))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	facade, err := surveyhooks.NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	adapter := NewRegistryAdapter(nil)
	subs, err := RegisterFacade(adapter, facade)
	if err != nil {
		t.Fatalf("register facade: %v", err)
	}
	defer subs.Unsubscribe()
	if len(subs) != 10 {
		t.Fatalf("expected 10 subscriptions, got %d", len(subs))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	ctx := context.Background()
	if err := Dispatch(ctx, surveycommand.SaveSurveySettingsMessage{
		SurveyID: 7,
		Values: map[string]string{
			core.SettingUse:          "1",
			core.SettingURLOverwrite: "1",
			core.SettingURL:          "https://flow.example.com/hook",
			core.SettingSendToken:    "0",
		},
	}); err != nil {
		t.Fatalf("dispatch save settings: %v", err)
	}

	resolved, err := Query[surveyquery.ResolveSettingsMessage, core.ResolvedSettings](ctx, surveyquery.ResolveSettingsMessage{SurveyID: 7})
	if err != nil {
		t.Fatalf("query resolve settings: %v", err)
	}
	if !resolved.HookEnabled() || resolved.URL != "https://flow.example.com/hook" {
		t.Fatalf("unexpected resolved settings: %#v", resolved)
	}

	outcome, ok, err := DispatchEvent(ctx, surveycommand.SurveyCompletedMessage{SurveyID: 7, ResponseID: 1})
	if err != nil {
		t.Fatalf("dispatch survey completed: %v", err)
	}
	if !ok || !outcome.Attempted() {
		t.Fatalf("expected attempted delivery outcome, got %#v", outcome)
	}
	sent := dispatcher.requests()
	if len(sent) != 1 || sent[0].URL != "https://flow.example.com/hook" {
		t.Fatalf("expected one delivery to the survey url, got %#v", sent)
	}
	if sent[0].Payload == nil || len(sent[0].Payload.Keys()) == 0 {
		t.Fatalf("expected rendered default payload, got %#v", sent[0].Payload)
	}
	if _, isRenderer := svc.Dependencies().Renderer.(*webhooks.Renderer); !isRenderer {
		t.Fatalf("expected setup to install the webhook renderer")
	}
}

func TestRegisterFacade_RequiresFacade(t *testing.T) {
	if _, err := RegisterFacade(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected facade required error")
	}
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []core.DeliveryRequest
}

func (d *recordingDispatcher) Send(_ context.Context, req core.DeliveryRequest) core.DeliveryResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, req)
	return core.DeliveryResult{URL: req.URL, StatusCode: 200}
}

func (d *recordingDispatcher) requests() []core.DeliveryRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.DeliveryRequest(nil), d.sent...)
}
