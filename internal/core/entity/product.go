package entity

import (
	"github.com/shopspring/decimal"
)

// ProductKind distinguishes physical goods from services.
type ProductKind string

const (
	KindProduct ProductKind = "product"
	KindService ProductKind = "service"
)

// Product is the slice of the catalog item the ledger reads and writes.
// Everything else about a product is owned by the catalog.
type Product struct {
	ID      string              `db:"id"`
	StoreID string              `db:"store_id"`
	Stock   decimal.NullDecimal `db:"stock"`
	Cost    decimal.NullDecimal `db:"cost"`
	Kind    ProductKind         `db:"type"`
	// AffectsInventory is nullable in storage; NULL means true.
	AffectsInventory *bool `db:"affects_inventory"`
}

// TracksStock reports whether movements against p change its stock counter.
func (p *Product) TracksStock() bool {
	if p.Kind != KindProduct {
		return false
	}
	return p.AffectsInventory == nil || *p.AffectsInventory
}

// CurrentStock returns the live counter, or zero when it was never set.
func (p *Product) CurrentStock() decimal.Decimal {
	if p.Stock.Valid {
		return p.Stock.Decimal
	}
	return decimal.Zero
}

// UnitCost returns the catalog cost, or nil when it is not set.
func (p *Product) UnitCost() *decimal.Decimal {
	if !p.Cost.Valid {
		return nil
	}
	c := p.Cost.Decimal
	return &c
}
