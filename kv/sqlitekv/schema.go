package sqlitekv

import (
	"context"
	"database/sql"
	"fmt"
)

const tablePrefix = "kv_"

const collectionSchema = `
CREATE TABLE IF NOT EXISTS %s (
    k BLOB PRIMARY KEY NOT NULL,
    v BLOB NOT NULL
) WITHOUT ROWID;
`

// TableName returns the quoted table identifier backing collection. Names are
// validated by kv.ValidateCollections before reaching SQL.
func TableName(collection string) string {
	return `"` + tablePrefix + collection + `"`
}

// EnsureSchema creates the tables for collections in a single transaction if
// they do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB, collections []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, c := range collections {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(collectionSchema, TableName(c))); err != nil {
			return fmt.Errorf("sqlitekv: create collection %s: %w", c, err)
		}
	}
	return tx.Commit()
}
