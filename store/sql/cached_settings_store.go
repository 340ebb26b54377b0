package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-surveyhooks/core"
)

const settingsCacheKeyPrefix = "go-surveyhooks::settings::v1"

// CachedSettingsStore caches whole scopes read through List. Every write
// drops the cached scope it touched.
type CachedSettingsStore struct {
	base  core.SettingsStore
	cache repositorycache.CacheService
}

func NewCachedSettingsStore(base core.SettingsStore, cacheService repositorycache.CacheService) (*CachedSettingsStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base settings store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: settings cache service is required")
	}
	return &CachedSettingsStore{base: base, cache: cacheService}, nil
}

// NewSettingsCacheService builds an in-process cache with the given ttl; a
// zero ttl keeps the library default.
func NewSettingsCacheService(ttl time.Duration) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	if ttl > 0 {
		config.TTL = ttl
	}
	return repositorycache.NewCacheService(config)
}

// SettingsCacheKey is go-surveyhooks::settings::v1::<plugin>::<scope_type>::<scope_id>
// with each segment url path escaped.
func SettingsCacheKey(plugin string, scope core.Scope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}
	segments := []string{
		strings.TrimSpace(plugin),
		scope.Type,
		scope.ID(),
	}
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(append([]string{settingsCacheKeyPrefix}, segments...), "::"), nil
}

func (s *CachedSettingsStore) Get(ctx context.Context, plugin string, name string, scope core.Scope) (string, bool, error) {
	values, err := s.List(ctx, plugin, scope)
	if err != nil {
		return "", false, err
	}
	value, ok := values[strings.TrimSpace(name)]
	return value, ok, nil
}

func (s *CachedSettingsStore) List(ctx context.Context, plugin string, scope core.Scope) (map[string]string, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached settings store is not configured")
	}
	cacheKey, err := SettingsCacheKey(plugin, scope)
	if err != nil {
		return nil, err
	}
	values, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (map[string]string, error) {
		fetched, fetchErr := s.base.List(ctx, plugin, scope)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return copyStringMap(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return copyStringMap(values), nil
}

func (s *CachedSettingsStore) Set(ctx context.Context, plugin string, name string, scope core.Scope, value string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached settings store is not configured")
	}
	cacheKey, err := SettingsCacheKey(plugin, scope)
	if err != nil {
		return err
	}
	if err := s.base.Set(ctx, plugin, name, scope, value); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func copyStringMap(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
