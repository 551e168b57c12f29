// Package memory provides in-process implementations of the ledger
// repositories, transaction manager and idempotency store. They back the
// tests of the ledger, the HTTP API and ledgerctl.
package memory

import (
	"context"
	"sync"

	"storeledger/internal/core/entity"
	"storeledger/internal/core/tx"
)

// Op names a repository operation that can be made to fail.
type Op string

const (
	OpGetProduct     Op = "get_product"
	OpUpdateStock    Op = "update_stock"
	OpCreateMovement Op = "create_movement"
	OpListMovements  Op = "list_movements"
)

type productKey struct {
	productID string
	storeID   string
}

type faultKey struct {
	op        Op
	productID string
}

// Store holds products and journal rows.
type Store struct {
	mu        sync.Mutex
	products  map[productKey]entity.Product
	movements []entity.Movement
	faults    map[faultKey]error

	// txMu serializes transactions, standing in for a row lock.
	txMu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		products: make(map[productKey]entity.Product),
		faults:   make(map[faultKey]error),
	}
}

// PutProduct inserts or replaces a product.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productKey{p.ID, p.StoreID}] = p
}

// Product returns a copy of a product.
func (s *Store) Product(productID, storeID string) (entity.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productKey{productID, storeID}]
	return p, ok
}

// Movements returns a copy of every journal row in insertion order.
func (s *Store) Movements() []entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Movement(nil), s.movements...)
}

// FailOn makes op return err. An empty productID matches every product.
// A nil err clears the fault.
func (s *Store) FailOn(op Op, productID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := faultKey{op, productID}
	if err == nil {
		delete(s.faults, k)
		return
	}
	s.faults[k] = err
}

// fault must be called with mu held.
func (s *Store) fault(op Op, productID string) error {
	if err, ok := s.faults[faultKey{op, productID}]; ok {
		return err
	}
	return s.faults[faultKey{op, ""}]
}

type txKey struct{}

// TxManager returns a tx.Manager over s. A failed transaction restores
// the products and journal to the state they had when it began.
func (s *Store) TxManager() tx.Manager {
	return tx.ManagerFunc(s.runInTransaction)
}

func (s *Store) runInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	products := make(map[productKey]entity.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	journalLen := len(s.movements)
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.products = products
		s.movements = s.movements[:journalLen]
		s.mu.Unlock()
		return err
	}
	return nil
}
