package sqlstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-surveyhooks/core"
	"github.com/uptrace/bun"
)

type settingRecord struct {
	bun.BaseModel `bun:"table:survey_hook_settings,alias:shs"`

	ID         string    `bun:"id,pk"`
	PluginName string    `bun:"plugin_name,notnull"`
	SettingKey string    `bun:"setting_key,notnull"`
	ScopeType  string    `bun:"scope_type,notnull"`
	ScopeID    string    `bun:"scope_id,notnull"`
	Value      string    `bun:"value,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *settingRecord) toDomain() core.Setting {
	if r == nil {
		return core.Setting{}
	}
	scope := core.Scope{Type: r.ScopeType}
	if r.ScopeType == core.ScopeTypeSurvey {
		scope.SurveyID, _ = strconv.Atoi(strings.TrimSpace(r.ScopeID))
	}
	return core.Setting{
		Plugin:    r.PluginName,
		Name:      r.SettingKey,
		Scope:     scope,
		Value:     r.Value,
		UpdatedAt: r.UpdatedAt,
	}
}

// questionRow is one row of the host question table; the table name comes
// from the configured prefix.
type questionRow struct {
	bun.BaseModel `bun:"alias:q"`

	QID       int64  `bun:"qid"`
	ParentQID int64  `bun:"parent_qid"`
	GID       int64  `bun:"gid"`
	Title     string `bun:"title"`
}
