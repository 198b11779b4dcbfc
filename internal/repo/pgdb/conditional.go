package pgdb

import (
	"context"
	"database/sql"

	"proposal-management-api/internal/repo/repo_errors"

	"github.com/Masterminds/squirrel"
)

// execConditional runs an UPDATE whose WHERE clause carries the expected
// prior state. Zero affected rows means the transition lost; the single
// statement is the only concurrency primitive the engine relies on, so this
// must never be split into a read followed by a write.
func execConditional(ctx context.Context, db *sql.DB, builder squirrel.UpdateBuilder) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo_errors.ErrNoRowsAffected
	}

	return nil
}
