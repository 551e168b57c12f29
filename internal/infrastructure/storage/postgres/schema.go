package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates the ledger tables if they do not exist.
func ApplySchema(ctx context.Context, txm *TxManager) error {
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := txm.GetQuerier(ctx).Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}
