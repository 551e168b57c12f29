package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/postgres"
)

const movementsTable = "inventory_movements"

var _ ledger.MovementRepository = (*MovementRepo)(nil)

// MovementRepo is the journal table. Rows are inserted and never changed.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a new journal repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts one entry.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	sql, args, err := r.builder.Insert(movementsTable).
		Columns(entity.MovementColumns()...).
		Values(m.Values()...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *MovementRepo) listQuery(productID, storeID string, filter ledger.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(entity.MovementColumns()...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID, "store_id": storeID})

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		q = q.Where(squirrel.Eq{"movement_type": types})
	}
	if filter.WarehouseID != "" {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if filter.UserID != "" {
		q = q.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.BatchID != "" {
		q = q.Where(squirrel.Eq{"batch_id": filter.BatchID})
	}

	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q
}

// List returns entries newest first.
func (r *MovementRepo) List(ctx context.Context, productID, storeID string, filter ledger.MovementFilter) ([]entity.Movement, error) {
	sql, args, err := r.listQuery(productID, storeID, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

func (r *MovementRepo) sumQuery(productID, warehouseID, storeID string, at time.Time) squirrel.SelectBuilder {
	return r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID, "warehouse_id": warehouseID, "store_id": storeID}).
		Where(squirrel.LtOrEq{"created_at": at})
}

// SumQuantity sums signed quantities up to and including at.
func (r *MovementRepo) SumQuantity(ctx context.Context, productID, warehouseID, storeID string, at time.Time) (decimal.Decimal, error) {
	sql, args, err := r.sumQuery(productID, warehouseID, storeID, at).ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}

	var sum decimal.Decimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

// Chronological returns every entry of a product in one warehouse, oldest first.
func (r *MovementRepo) Chronological(ctx context.Context, productID, storeID, warehouseID string) ([]entity.Movement, error) {
	sql, args, err := r.builder.Select(entity.MovementColumns()...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID, "store_id": storeID, "warehouse_id": warehouseID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("chronological movements: %w", err)
	}
	return movements, nil
}

func (r *MovementRepo) journalQuery(filter ledger.JournalFilter) squirrel.SelectBuilder {
	q := r.builder.Select(entity.MovementColumns()...).
		From(movementsTable).
		Where(squirrel.Eq{"store_id": filter.StoreID})
	if filter.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	return q.OrderBy("created_at ASC", "id ASC")
}

// Each streams matching rows without loading the journal into memory.
func (r *MovementRepo) Each(ctx context.Context, filter ledger.JournalFilter, fn func(m *entity.Movement) error) error {
	sql, args, err := r.journalQuery(filter).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	return r.txm.Snapshot(ctx, func(ctx context.Context) error {
		rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("query journal: %w", err)
		}
		defer rows.Close()

		scanner := pgxscan.NewRowScanner(rows)
		for rows.Next() {
			var m entity.Movement
			if err := scanner.Scan(&m); err != nil {
				return fmt.Errorf("scan journal row: %w", err)
			}
			if err := fn(&m); err != nil {
				return err
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate journal: %w", err)
		}
		return nil
	})
}

// Import appends rows with COPY in a single transaction. It is used to
// restore an exported journal and does not touch stock counters.
func (r *MovementRepo) Import(ctx context.Context, movements []entity.Movement) (int64, error) {
	if len(movements) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(movements))
	for i := range movements {
		rows = append(rows, movements[i].Values())
	}

	var n int64
	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = postgres.NewCopyInserter(r.txm).CopyFromSlice(ctx, movementsTable, entity.MovementColumns(), rows)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("import movements: %w", err)
	}
	return n, nil
}
