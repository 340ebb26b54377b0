package gocommand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	surveyhooks "github.com/goliatone/go-surveyhooks"
	surveycommand "github.com/goliatone/go-surveyhooks/command"
	"github.com/goliatone/go-surveyhooks/core"
	surveyquery "github.com/goliatone/go-surveyhooks/query"
)

// ValidateMessageContract checks that a survey hook message names its type
// and passes its own Validate.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// DispatchEvent runs an event command and returns the outcome the handler
// stored. The bool is false when no outcome was produced.
func DispatchEvent[T any](ctx context.Context, msg T) (core.EventOutcome, bool, error) {
	collector := command.NewResult[core.EventOutcome]()
	if err := Dispatch(command.ContextWithResult(ctx, collector), msg); err != nil {
		return core.EventOutcome{}, false, err
	}
	outcome, ok := collector.Load()
	return outcome, ok, nil
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Subscriptions tracks every handler RegisterFacade subscribed.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterFacade registers and subscribes every survey hook command and
// query. On failure the handlers subscribed so far are released.
func RegisterFacade(
	adapter *RegistryAdapter,
	facade *surveyhooks.Facade,
	runnerOpts ...runner.Option,
) (Subscriptions, error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	var subs Subscriptions
	var errs []error
	track := func(sub commanddispatcher.Subscription, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		subs = append(subs, sub)
	}

	track(RegisterAndSubscribe[surveycommand.SurveyCompletedMessage](adapter, commands.SurveyCompleted, runnerOpts...))
	track(RegisterAndSubscribe[surveycommand.SurveyAutosavedMessage](adapter, commands.SurveyAutosaved, runnerOpts...))
	track(RegisterAndSubscribe[surveycommand.BeforePageRenderMessage](adapter, commands.BeforePageRender, runnerOpts...))
	track(RegisterAndSubscribe[surveycommand.SaveSurveySettingsMessage](adapter, commands.SaveSurveySettings, runnerOpts...))
	track(RegisterAndSubscribe[surveycommand.SaveGlobalSettingsMessage](adapter, commands.SaveGlobalSettings, runnerOpts...))
	track(RegisterAndSubscribeQuery[surveyquery.DescribeSurveySettingsMessage, core.SettingsForm](adapter, queries.DescribeSurveySettings, runnerOpts...))
	track(RegisterAndSubscribeQuery[surveyquery.DescribeGlobalSettingsMessage, core.SettingsForm](adapter, queries.DescribeGlobalSettings, runnerOpts...))
	track(RegisterAndSubscribeQuery[surveyquery.ResolveSettingsMessage, core.ResolvedSettings](adapter, queries.ResolveSettings, runnerOpts...))
	track(RegisterAndSubscribeQuery[surveyquery.ResolveSettingMessage, string](adapter, queries.ResolveSetting, runnerOpts...))
	track(RegisterAndSubscribeQuery[surveyquery.FetchResponseMessage, core.Response](adapter, queries.FetchResponse, runnerOpts...))

	if len(errs) > 0 {
		subs.Unsubscribe()
		return nil, errors.Join(errs...)
	}
	return subs, nil
}
