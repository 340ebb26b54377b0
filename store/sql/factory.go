package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-surveyhooks/core"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the SQL backed stores for one database. When the
// settings cache ttl is positive, SettingsStore returns the cached store.
type RepositoryFactory struct {
	db     *bun.DB
	config core.Config

	settingsStore       *SettingsStore
	cachedSettingsStore *CachedSettingsStore
	responseStore       *ResponseStore
}

func NewRepositoryFactory(cfg core.Config) *RepositoryFactory {
	return &RepositoryFactory{config: cfg}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, cfg core.Config) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(cfg)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, cfg core.Config) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(cfg)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (*RepositoryFactory, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.settingsStore != nil && f.responseStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) SettingsStore() core.SettingsStore {
	if f == nil {
		return nil
	}
	if f.cachedSettingsStore != nil {
		return f.cachedSettingsStore
	}
	return f.settingsStore
}

// SQLSettingsStore returns the uncached store.
func (f *RepositoryFactory) SQLSettingsStore() *SettingsStore {
	if f == nil {
		return nil
	}
	return f.settingsStore
}

func (f *RepositoryFactory) ResponseStore() core.ResponseStore {
	if f == nil {
		return nil
	}
	return f.responseStore
}

func (f *RepositoryFactory) initStores() error {
	settingsStore, err := NewSettingsStore(f.db)
	if err != nil {
		return err
	}
	f.settingsStore = settingsStore

	if ttl := f.config.Settings.CacheTTL; ttl > 0 {
		cacheService, err := NewSettingsCacheService(ttl)
		if err != nil {
			return fmt.Errorf("sqlstore: settings cache: %w", err)
		}
		cached, err := NewCachedSettingsStore(settingsStore, cacheService)
		if err != nil {
			return err
		}
		f.cachedSettingsStore = cached
	}

	prefix := f.config.Responses.TablePrefix
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	responseStore, err := NewResponseStore(f.db, prefix)
	if err != nil {
		return err
	}
	f.responseStore = responseStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
