package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemorySettingsStore is an in-process SettingsStore for hosts without a
// database and for tests.
type MemorySettingsStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]Setting
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{
		now:     time.Now,
		entries: map[string]Setting{},
	}
}

func (s *MemorySettingsStore) Get(_ context.Context, plugin string, name string, scope Scope) (string, bool, error) {
	if s == nil {
		return "", false, fmt.Errorf("core: memory settings store is nil")
	}
	if err := scope.Validate(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[settingKey(plugin, name, scope)]
	if !ok {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *MemorySettingsStore) List(_ context.Context, plugin string, scope Scope) (map[string]string, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory settings store is nil")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	plugin = strings.TrimSpace(plugin)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]string{}
	for _, entry := range s.entries {
		if entry.Plugin != plugin || entry.Scope != scope {
			continue
		}
		out[entry.Name] = entry.Value
	}
	return out, nil
}

func (s *MemorySettingsStore) Set(_ context.Context, plugin string, name string, scope Scope, value string) error {
	if s == nil {
		return fmt.Errorf("core: memory settings store is nil")
	}
	if err := scope.Validate(); err != nil {
		return err
	}
	plugin = strings.TrimSpace(plugin)
	name = strings.TrimSpace(name)
	if plugin == "" || name == "" {
		return fmt.Errorf("core: plugin and setting name are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[settingKey(plugin, name, scope)] = Setting{
		Plugin:    plugin,
		Name:      name,
		Scope:     scope,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	return nil
}

func settingKey(plugin string, name string, scope Scope) string {
	return strings.TrimSpace(plugin) + "|" + scope.String() + "|" + strings.TrimSpace(name)
}
