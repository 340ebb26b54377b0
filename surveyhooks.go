package surveyhooks

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-surveyhooks/core"
	sqlstore "github.com/goliatone/go-surveyhooks/store/sql"
	"github.com/goliatone/go-surveyhooks/transport"
	"github.com/goliatone/go-surveyhooks/webhooks"
	"github.com/uptrace/bun"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type EventOutcome = core.EventOutcome

type ResolvedSettings = core.ResolvedSettings

type SettingsForm = core.SettingsForm

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithSettingsStore     = core.WithSettingsStore
	WithResponseStore     = core.WithResponseStore
	WithPayloadRenderer   = core.WithPayloadRenderer
	WithDispatcher        = core.WithDispatcher
	WithDispatcherFactory = core.WithDispatcherFactory
	WithStoreFactory      = core.WithStoreFactory
	WithSettingsSchema    = core.WithSettingsSchema
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a bare core service; renderer and dispatcher must be
// supplied through options.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

// Setup builds a service with the JSON-safe payload renderer and the HTTP
// dispatcher. Options are applied after the defaults so callers can replace
// either one.
func Setup(cfg Config, opts ...Option) (*Service, error) {
	base := []Option{
		core.WithPayloadRenderer(webhooks.NewRenderer()),
		core.WithDispatcherFactory(NewHTTPDispatcher),
	}
	return core.NewService(cfg, append(base, opts...)...)
}

// NewHTTPDispatcher builds the webhook dispatcher over the default
// form/json/query transports configured by cfg.Transport.
func NewHTTPDispatcher(cfg Config) (core.Dispatcher, error) {
	registry := transport.NewDefaultRegistry(cfg.Transport)
	return webhooks.NewDispatcher(registry,
		webhooks.WithResponseBodyLimit(cfg.Transport.MaxResponseBodyBytes),
	), nil
}

// WithPersistence backs settings and responses with the SQL stores on client.
// The settings migrations must already be applied.
func WithPersistence(client *persistence.Client) Option {
	return core.WithStoreFactory(func(cfg Config) (core.SettingsStore, core.ResponseStore, error) {
		if client == nil {
			return nil, nil, fmt.Errorf("surveyhooks: persistence client is required")
		}
		factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, cfg)
		if err != nil {
			return nil, nil, err
		}
		return factory.SettingsStore(), factory.ResponseStore(), nil
	})
}

// WithDB is WithPersistence for hosts that already own a bun handle.
func WithDB(db *bun.DB) Option {
	return core.WithStoreFactory(func(cfg Config) (core.SettingsStore, core.ResponseStore, error) {
		if db == nil {
			return nil, nil, fmt.Errorf("surveyhooks: bun db is required")
		}
		factory, err := sqlstore.NewRepositoryFactoryFromDB(db, cfg)
		if err != nil {
			return nil, nil, err
		}
		return factory.SettingsStore(), factory.ResponseStore(), nil
	})
}
