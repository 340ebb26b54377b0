package sqlstore

import "github.com/goliatone/go-surveyhooks/core"

var (
	_ core.SettingsStore = (*SettingsStore)(nil)
	_ core.SettingsStore = (*CachedSettingsStore)(nil)
	_ core.ResponseStore = (*ResponseStore)(nil)
)
