package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service resolves hook settings, fetches responses and handles survey
// lifecycle events. It keeps no per-event state and is safe for concurrent use.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	settingsStore   SettingsStore
	responseStore   ResponseStore
	renderer        PayloadRenderer
	dispatcher      Dispatcher
	schema          SettingsSchema
	resolver        *SettingsResolver
	fetcher         *ResponseFetcher
	clock           Clock
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	SettingsStore   SettingsStore
	ResponseStore   ResponseStore
	Renderer        PayloadRenderer
	Dispatcher      Dispatcher
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("surveyhooks", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("surveyhooks"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}
	if builder.renderer == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: payload renderer is required"))
	}
	if builder.dispatcher == nil && builder.dispatcherFactory == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: dispatcher is required"))
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if err := builder.buildConfigured(finalConfig); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	schema := DefaultSettingsSchema()
	if builder.schema != nil {
		schema = *builder.schema
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		settingsStore:   builder.settingsStore,
		responseStore:   builder.responseStore,
		renderer:        builder.renderer,
		dispatcher:      builder.dispatcher,
		schema:          schema,
		resolver:        NewSettingsResolver(builder.settingsStore, finalConfig.PluginName, schema),
		fetcher:         NewResponseFetcher(builder.responseStore),
		clock:           builder.clock,
	}, nil
}

func (b *serviceBuilder) buildConfigured(cfg Config) error {
	if b.storeFactory != nil {
		settings, responses, err := b.storeFactory(cfg)
		if err != nil {
			return fmt.Errorf("core: build stores: %w", err)
		}
		if b.settingsStore == nil {
			b.settingsStore = settings
		}
		if b.responseStore == nil {
			b.responseStore = responses
		}
	}
	if b.settingsStore == nil {
		b.settingsStore = NewMemorySettingsStore()
	}
	if b.dispatcher == nil {
		dispatcher, err := b.dispatcherFactory(cfg)
		if err != nil {
			return fmt.Errorf("core: build dispatcher: %w", err)
		}
		if dispatcher == nil {
			return fmt.Errorf("core: dispatcher is required")
		}
		b.dispatcher = dispatcher
	}
	return nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		SettingsStore:   s.settingsStore,
		ResponseStore:   s.responseStore,
		Renderer:        s.renderer,
		Dispatcher:      s.dispatcher,
	}
}

func (s *Service) Resolver() *SettingsResolver {
	if s == nil {
		return nil
	}
	return s.resolver
}

// ResolveSettings returns the effective settings for a survey. Read failures
// are mapped but the best effort view is still returned.
func (s *Service) ResolveSettings(ctx context.Context, surveyID int) (ResolvedSettings, error) {
	if s == nil {
		return ResolvedSettings{}, fmt.Errorf("core: service is nil")
	}
	resolved, err := s.resolver.ResolveAll(ctx, surveyID)
	return resolved, s.mapError(err)
}

func (s *Service) ResolveSetting(ctx context.Context, name string, surveyID int) (string, error) {
	if s == nil {
		return "", fmt.Errorf("core: service is nil")
	}
	value, err := s.resolver.Resolve(ctx, name, surveyID)
	return value, s.mapError(err)
}

func (s *Service) FetchResponse(ctx context.Context, req FetchRequest) (Response, error) {
	if s == nil {
		return Response{}, fmt.Errorf("core: service is nil")
	}
	response, err := s.fetcher.Fetch(ctx, req)
	return response, s.mapError(err)
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s.errorMapper == nil {
		return err
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
