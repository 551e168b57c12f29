package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/apperror"
	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
)

var (
	_ ledger.ProductRepository  = (*ProductRepo)(nil)
	_ ledger.MovementRepository = (*MovementRepo)(nil)
)

// ProductRepo is the ledger.ProductRepository over a Store.
type ProductRepo struct {
	s *Store
}

// Products returns the product repository of s.
func (s *Store) Products() *ProductRepo {
	return &ProductRepo{s: s}
}

func (r *ProductRepo) Get(ctx context.Context, productID, storeID string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpGetProduct, productID); err != nil {
		return nil, err
	}
	p, ok := r.s.products[productKey{productID, storeID}]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

// GetForUpdate relies on the Store serializing transactions.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Product, error) {
	return r.Get(ctx, productID, storeID)
}

func (r *ProductRepo) UpdateStock(ctx context.Context, productID, storeID string, stock decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpUpdateStock, productID); err != nil {
		return err
	}
	k := productKey{productID, storeID}
	p, ok := r.s.products[k]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.Stock = decimal.NewNullDecimal(stock)
	r.s.products[k] = p
	return nil
}

// MovementRepo is the ledger.MovementRepository over a Store.
type MovementRepo struct {
	s *Store
}

// Journal returns the movement repository of s.
func (s *Store) Journal() *MovementRepo {
	return &MovementRepo{s: s}
}

func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpCreateMovement, m.ProductID); err != nil {
		return err
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

// Import appends rows as given, without touching stock counters.
func (r *MovementRepo) Import(ctx context.Context, movements []entity.Movement) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range movements {
		if err := r.s.fault(OpCreateMovement, movements[i].ProductID); err != nil {
			return 0, err
		}
	}
	r.s.movements = append(r.s.movements, movements...)
	return int64(len(movements)), nil
}

func (r *MovementRepo) List(ctx context.Context, productID, storeID string, filter ledger.MovementFilter) ([]entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpListMovements, productID); err != nil {
		return nil, err
	}

	var out []entity.Movement
	for _, m := range r.s.movements {
		if m.ProductID != productID || m.StoreID != storeID {
			continue
		}
		if !matchesFilter(&m, filter) {
			continue
		}
		out = append(out, m)
	}

	// Newest first; insertion order breaks ties.
	slices.Reverse(out)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesFilter(m *entity.Movement, f ledger.MovementFilter) bool {
	if f.FromDate != nil && m.CreatedAt.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && m.CreatedAt.After(*f.ToDate) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, m.MovementType) {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.UserID != "" && m.UserID != f.UserID {
		return false
	}
	if f.BatchID != "" && (m.BatchID == nil || *m.BatchID != f.BatchID) {
		return false
	}
	return true
}

func (r *MovementRepo) SumQuantity(ctx context.Context, productID, warehouseID, storeID string, at time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpListMovements, productID); err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID && m.StoreID == storeID && !m.CreatedAt.After(at) {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *MovementRepo) Chronological(ctx context.Context, productID, storeID, warehouseID string) ([]entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault(OpListMovements, productID); err != nil {
		return nil, err
	}

	var out []entity.Movement
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.StoreID == storeID && m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (r *MovementRepo) Each(ctx context.Context, filter ledger.JournalFilter, fn func(m *entity.Movement) error) error {
	r.s.mu.Lock()
	if err := r.s.fault(OpListMovements, filter.ProductID); err != nil {
		r.s.mu.Unlock()
		return err
	}
	var rows []entity.Movement
	for _, m := range r.s.movements {
		if m.StoreID != filter.StoreID {
			continue
		}
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
			continue
		}
		rows = append(rows, m)
	}
	r.s.mu.Unlock()

	sortOldestFirst(rows)
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func sortOldestFirst(rows []entity.Movement) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}
