package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-surveyhooks/core"
	"github.com/uptrace/bun"
)

const DefaultTablePrefix = "lime_"

// ResponseStore reads the host owned response and question tables:
// <prefix>survey_<sid> and <prefix>questions. Answer columns follow the
// <sid>X<gid>X<qid>[<subquestion code>] naming.
type ResponseStore struct {
	db          *bun.DB
	tablePrefix string
}

func NewResponseStore(db *bun.DB, tablePrefix string) (*ResponseStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	tablePrefix = strings.TrimSpace(tablePrefix)
	if !validIdentifierPart(tablePrefix) {
		return nil, fmt.Errorf("sqlstore: invalid table prefix %q", tablePrefix)
	}
	return &ResponseStore{db: db, tablePrefix: tablePrefix}, nil
}

func (s *ResponseStore) ResponseTable(surveyID int) string {
	return s.tablePrefix + "survey_" + strconv.Itoa(surveyID)
}

func (s *ResponseStore) QuestionsTable() string {
	return s.tablePrefix + "questions"
}

// QuestionColumns lists answer codes and their response columns in question
// id order. Subquestions are reported as <parent>_<code>.
func (s *ResponseStore) QuestionColumns(ctx context.Context, surveyID int) ([]core.QuestionColumn, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: response store is not configured")
	}
	var rows []questionRow
	err := s.db.NewSelect().
		Model(&rows).
		ModelTableExpr("? AS q", bun.Ident(s.QuestionsTable())).
		Column("qid", "parent_qid", "gid", "title").
		Where("q.sid = ?", surveyID).
		OrderExpr("q.qid ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	titles := make(map[int64]string, len(rows))
	for _, row := range rows {
		if row.ParentQID == 0 {
			titles[row.QID] = strings.TrimSpace(row.Title)
		}
	}
	out := make([]core.QuestionColumn, 0, len(rows))
	for _, row := range rows {
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		if row.ParentQID == 0 {
			out = append(out, core.QuestionColumn{
				Code:   title,
				Column: fmt.Sprintf("%dX%dX%d", surveyID, row.GID, row.QID),
			})
			continue
		}
		parent, ok := titles[row.ParentQID]
		if !ok {
			continue
		}
		out = append(out, core.QuestionColumn{
			Code:   parent + "_" + title,
			Column: fmt.Sprintf("%dX%dX%d%s", surveyID, row.GID, row.ParentQID, title),
		})
	}
	return out, nil
}

func (s *ResponseStore) FindResponse(ctx context.Context, surveyID int, responseID int64, columns []string) (map[string]any, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("sqlstore: response store is not configured")
	}
	return s.selectRow(ctx, surveyID, columns, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(core.ColumnID), responseID)
	})
}

// LatestResponse returns the row with the newest datestamp.
func (s *ResponseStore) LatestResponse(ctx context.Context, surveyID int, columns []string) (map[string]any, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("sqlstore: response store is not configured")
	}
	return s.selectRow(ctx, surveyID, columns, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("? DESC", bun.Ident(core.ColumnDateStamp))
	})
}

func (s *ResponseStore) selectRow(
	ctx context.Context,
	surveyID int,
	columns []string,
	apply func(*bun.SelectQuery) *bun.SelectQuery,
) (map[string]any, bool, error) {
	if surveyID <= 0 {
		return nil, false, fmt.Errorf("sqlstore: survey id must be positive")
	}
	if len(columns) == 0 {
		return nil, false, fmt.Errorf("sqlstore: at least one column is required")
	}

	row := map[string]any{}
	query := s.db.NewSelect().
		Model(&row).
		TableExpr("?", bun.Ident(s.ResponseTable(surveyID)))
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		query = query.ColumnExpr("?", bun.Ident(column))
	}
	query = apply(query).Limit(1)

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return row, true, nil
}

func validIdentifierPart(value string) bool {
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
