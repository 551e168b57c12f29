package ledger_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
)

func TestMovementListQuery(t *testing.T) {
	r := NewMovementRepo(nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name      string
		filter    ledger.MovementFilter
		wantParts []string
		wantArgs  int
	}{
		{
			name:      "no filters",
			filter:    ledger.MovementFilter{Limit: ledger.HistoryPageSize},
			wantParts: []string{"FROM inventory_movements", "WHERE product_id = $1 AND store_id = $2", "ORDER BY created_at DESC, id DESC", "LIMIT 100"},
			wantArgs:  2,
		},
		{
			name:      "date range",
			filter:    ledger.MovementFilter{FromDate: &from, ToDate: &to},
			wantParts: []string{"created_at >= $3", "created_at <= $4"},
			wantArgs:  4,
		},
		{
			name:      "type set",
			filter:    ledger.MovementFilter{Types: []entity.MovementType{entity.MovementSale, entity.MovementReturn}},
			wantParts: []string{"movement_type IN ($3,$4)"},
			wantArgs:  4,
		},
		{
			name:      "warehouse user batch",
			filter:    ledger.MovementFilter{WarehouseID: "main", UserID: "u1", BatchID: "b1"},
			wantParts: []string{"warehouse_id = $3", "user_id = $4", "batch_id = $5"},
			wantArgs:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := r.listQuery("p1", "s1", tt.filter).ToSql()
			require.NoError(t, err)
			for _, part := range tt.wantParts {
				assert.Contains(t, sql, part)
			}
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestMovementSumQuery(t *testing.T) {
	r := NewMovementRepo(nil)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	sql, args, err := r.sumQuery("p1", "main", "s1", at).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements")
	assert.Contains(t, sql, "created_at <= $4")
	assert.Equal(t, at, args[3])
}

func TestJournalQuery(t *testing.T) {
	r := NewMovementRepo(nil)

	sql, args, err := r.journalQuery(ledger.JournalFilter{StoreID: "s1"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE store_id = $1 ORDER BY created_at ASC, id ASC")
	assert.Len(t, args, 1)

	sql, args, err = r.journalQuery(ledger.JournalFilter{StoreID: "s1", ProductID: "p1"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "product_id = $2")
	assert.Len(t, args, 2)
}

func TestProductSelectLocksRow(t *testing.T) {
	r := NewProductRepo(nil)

	sql, _, err := r.selectProduct("p1", "s1", true).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM products WHERE id = $1 AND store_id = $2 FOR UPDATE")

	sql, _, err = r.selectProduct("p1", "s1", false).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "FOR UPDATE")
}
