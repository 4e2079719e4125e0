package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/festa/internal/shared"
)

// withTx runs fn inside a transaction, committing when fn returns nil and rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", shared.ErrStorage, err)
	}
	return nil
}
