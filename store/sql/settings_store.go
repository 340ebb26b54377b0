package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-surveyhooks/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SettingsStore keeps plugin settings in survey_hook_settings, one row per
// (plugin, key, scope). Set overwrites; rows are never deleted.
type SettingsStore struct {
	db   *bun.DB
	repo repository.Repository[*settingRecord]
	now  func() time.Time
}

func NewSettingsStore(db *bun.DB) (*SettingsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*settingRecord](db, settingHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid settings repository wiring: %w", err)
		}
	}
	return &SettingsStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SettingsStore) Get(ctx context.Context, plugin string, name string, scope core.Scope) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("sqlstore: settings store is not configured")
	}
	if err := scope.Validate(); err != nil {
		return "", false, err
	}
	record, err := findSetting(ctx, s.db, plugin, name, scope)
	if err != nil {
		return "", false, err
	}
	if record == nil {
		return "", false, nil
	}
	return record.Value, true, nil
}

func (s *SettingsStore) List(ctx context.Context, plugin string, scope core.Scope) (map[string]string, error) {
	settings, err := s.Records(ctx, plugin, scope)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Name] = setting.Value
	}
	return out, nil
}

// Records returns the stored rows of one scope as domain settings.
func (s *SettingsStore) Records(ctx context.Context, plugin string, scope core.Scope) ([]core.Setting, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: settings store is not configured")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("plugin_name", "=", strings.TrimSpace(plugin)),
		repository.SelectBy("scope_type", "=", scope.Type),
		repository.SelectBy("scope_id", "=", scope.ID()),
		repository.OrderBy("setting_key ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Setting, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *SettingsStore) Set(ctx context.Context, plugin string, name string, scope core.Scope, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: settings store is not configured")
	}
	if err := scope.Validate(); err != nil {
		return err
	}
	plugin = strings.TrimSpace(plugin)
	name = strings.TrimSpace(name)
	if plugin == "" || name == "" {
		return fmt.Errorf("sqlstore: plugin and setting name are required")
	}
	now := s.now()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findSetting(ctx, tx, plugin, name, scope)
		if err != nil {
			return err
		}
		if record == nil {
			record = &settingRecord{
				ID:         uuid.NewString(),
				PluginName: plugin,
				SettingKey: name,
				ScopeType:  scope.Type,
				ScopeID:    scope.ID(),
				Value:      value,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			_, insertErr := tx.NewInsert().Model(record).Exec(ctx)
			return insertErr
		}
		record.Value = value
		record.UpdatedAt = now
		_, updateErr := tx.NewUpdate().
			Model(record).
			Column("value", "updated_at").
			Where("id = ?", record.ID).
			Exec(ctx)
		return updateErr
	})
}

func findSetting(ctx context.Context, db bun.IDB, plugin string, name string, scope core.Scope) (*settingRecord, error) {
	record := &settingRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.plugin_name = ?", strings.TrimSpace(plugin)).
		Where("?TableAlias.setting_key = ?", strings.TrimSpace(name)).
		Where("?TableAlias.scope_type = ?", scope.Type).
		Where("?TableAlias.scope_id = ?", scope.ID()).
		OrderExpr("?TableAlias.updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
