package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	surveyhooks "github.com/goliatone/go-surveyhooks"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	DefaultSourceLabel = "go-surveyhooks"

	migrationsDir = "data/sql/migrations"
)

// Source is the migration tree of one dialect. Postgres files sit at the
// root of data/sql/migrations, sqlite files in its sqlite/ subdirectory.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Sources     []Source
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets limits registration to the given dialects.
func WithValidationTargets(dialects ...string) Option {
	return func(r *Registration) {
		next := normalizeDialects(dialects)
		if len(next) > 0 {
			r.Dialects = next
		}
	}
}

// Filesystems returns the embedded settings migrations per dialect. Every
// tree must hold at least one up migration and a down file for each up.
func Filesystems() ([]Source, error) {
	root := surveyhooks.GetMigrationsFS()
	sources := make([]Source, 0, 2)
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		dir := migrationsDir
		if dialect == DialectSQLite {
			dir = path.Join(migrationsDir, "sqlite")
		}
		sub, err := fs.Sub(root, dir)
		if err != nil {
			return nil, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
		}
		if err := checkPairs(sub); err != nil {
			return nil, fmt.Errorf("migrations: %s (%s): %w", dialect, dir, err)
		}
		sources = append(sources, Source{Dialect: dialect, Path: dir, FS: sub})
	}
	return sources, nil
}

// Register hands each selected dialect tree to registerFn, typically a
// persistence client's RegisterSQLMigrations.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: DefaultSourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	sources, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Sources = sources

	for _, source := range sources {
		if !slices.Contains(reg.Dialects, source.Dialect) {
			continue
		}
		if err := registerFn(ctx, source.Dialect, reg.SourceLabel, source.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
	}
	return reg, nil
}

func checkPairs(fsys fs.FS) error {
	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return err
	}
	if len(ups) == 0 {
		return fmt.Errorf("no *.up.sql files")
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(fsys, down); err != nil {
			return fmt.Errorf("%s has no matching %s", up, down)
		}
	}
	return nil
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		dialect := strings.TrimSpace(strings.ToLower(value))
		if dialect == "" || slices.Contains(out, dialect) {
			continue
		}
		out = append(out, dialect)
	}
	return out
}
