// Package ledger_repo provides PostgreSQL implementations of the ledger repositories.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"storeledger/internal/core/apperror"
	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = postgres.ExtractDBColumns[entity.Product]()

var _ ledger.ProductRepository = (*ProductRepo)(nil)

// ProductRepo reads and updates the stock counter on the products table.
// The catalog owns the table; only stock is ever written here.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) selectProduct(productID, storeID string, forUpdate bool) squirrel.SelectBuilder {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID, "store_id": storeID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

// Get returns the product or apperror NotFound.
func (r *ProductRepo) Get(ctx context.Context, productID, storeID string) (*entity.Product, error) {
	return r.get(ctx, productID, storeID, false)
}

// GetForUpdate locks the product row until the transaction in ctx ends.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Product, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetForUpdate requires transaction context")
	}
	return r.get(ctx, productID, storeID, true)
}

func (r *ProductRepo) get(ctx context.Context, productID, storeID string, forUpdate bool) (*entity.Product, error) {
	sql, args, err := r.selectProduct(productID, storeID, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p entity.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateStock overwrites the live counter.
func (r *ProductRepo) UpdateStock(ctx context.Context, productID, storeID string, stock decimal.Decimal) error {
	sql, args, err := r.builder.Update(productsTable).
		Set("stock", stock).
		Where(squirrel.Eq{"id": productID, "store_id": storeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}
