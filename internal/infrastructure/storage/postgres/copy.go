package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyInserter bulk-loads rows with the COPY protocol.
type CopyInserter struct {
	txManager *TxManager
}

// NewCopyInserter creates a CopyInserter.
func NewCopyInserter(txManager *TxManager) *CopyInserter {
	return &CopyInserter{txManager: txManager}
}

// CopyFromSlice inserts rows into table. It must run inside a transaction.
func (b *CopyInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := b.txManager.GetTx(ctx)
	if t == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}
	return t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}
