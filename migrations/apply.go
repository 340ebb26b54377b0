package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
)

// Apply registers the migration tree of one dialect on client and runs it.
func Apply(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	dialect = strings.TrimSpace(strings.ToLower(dialect))
	_, err := Register(ctx, func(_ context.Context, fsDialect string, _ string, fsys fs.FS) error {
		if fsDialect != dialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, WithValidationTargets(dialect))
	if err != nil {
		return err
	}
	return client.Migrate(ctx)
}
