package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/id"
)

// MovementType classifies a ledger entry. The set is closed: values outside
// the constants below are rejected by ParseMovementType and Valid.
type MovementType string

const (
	MovementSale         MovementType = "SALE"
	MovementPurchase     MovementType = "PURCHASE"
	MovementAdjustment   MovementType = "ADJUSTMENT"
	MovementInitialStock MovementType = "INITIAL_STOCK"
	MovementReturn       MovementType = "RETURN"
	MovementTransfer     MovementType = "TRANSFER"
)

// MovementTypes returns every movement type in declaration order.
func MovementTypes() []MovementType {
	return []MovementType{
		MovementSale,
		MovementPurchase,
		MovementAdjustment,
		MovementInitialStock,
		MovementReturn,
		MovementTransfer,
	}
}

// Valid reports whether t is one of the declared movement types.
func (t MovementType) Valid() bool {
	switch t {
	case MovementSale, MovementPurchase, MovementAdjustment,
		MovementInitialStock, MovementReturn, MovementTransfer:
		return true
	}
	return false
}

// Direction is the sign a movement of this type normally carries.
// Adjustments and transfers may go either way.
func (t MovementType) Direction() Direction {
	switch t {
	case MovementSale:
		return DirectionOut
	case MovementPurchase, MovementInitialStock, MovementReturn:
		return DirectionIn
	case MovementAdjustment, MovementTransfer:
		return DirectionEither
	default:
		panic(fmt.Sprintf("entity: unknown movement type %q", string(t)))
	}
}

// ParseMovementType converts s to a MovementType.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown movement type %q", s)
	}
	return t, nil
}

// Direction is the expected sign of a movement quantity.
type Direction int

const (
	DirectionEither Direction = iota
	DirectionIn
	DirectionOut
)

// Allows reports whether qty carries a sign permitted by d. Zero fits every
// direction.
func (d Direction) Allows(qty decimal.Decimal) bool {
	switch d {
	case DirectionIn:
		return !qty.IsNegative()
	case DirectionOut:
		return !qty.IsPositive()
	default:
		return true
	}
}

// ReferenceType names the kind of business document an entry points to.
type ReferenceType string

const (
	RefSaleTransaction  ReferenceType = "SALE_TRANSACTION"
	RefPurchaseOrder    ReferenceType = "PURCHASE_ORDER"
	RefManualAdjustment ReferenceType = "MANUAL_ADJUSTMENT"
	RefProductCreation  ReferenceType = "PRODUCT_CREATION"
	RefTransferOrder    ReferenceType = "TRANSFER_ORDER"
)

// Valid reports whether r is one of the declared reference types.
func (r ReferenceType) Valid() bool {
	switch r {
	case RefSaleTransaction, RefPurchaseOrder, RefManualAdjustment,
		RefProductCreation, RefTransferOrder:
		return true
	}
	return false
}

// Movement is one immutable journal row. Rows are only ever appended.
type Movement struct {
	ID            id.ID           `db:"id" json:"id"`
	ProductID     string          `db:"product_id" json:"productId"`
	WarehouseID   string          `db:"warehouse_id" json:"warehouseId"`
	MovementType  MovementType    `db:"movement_type" json:"movementType"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost      decimal.Decimal `db:"unit_cost" json:"unitCost"`
	TotalValue    decimal.Decimal `db:"total_value" json:"totalValue"`
	ReferenceType ReferenceType   `db:"reference_type" json:"referenceType"`
	ReferenceID   string          `db:"reference_id" json:"referenceId"`
	BatchID       *string         `db:"batch_id" json:"batchId,omitempty"`
	PreviousStock decimal.Decimal `db:"previous_stock" json:"previousStock"`
	NewStock      decimal.Decimal `db:"new_stock" json:"newStock"`
	UserID        string          `db:"user_id" json:"userId"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	StoreID       string          `db:"store_id" json:"storeId"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// IsInflow reports whether the entry adds stock.
func (m *Movement) IsInflow() bool {
	return m.Quantity.IsPositive()
}

// MovementColumns lists the journal columns in insert order.
func MovementColumns() []string {
	return []string{
		"id", "product_id", "warehouse_id", "movement_type", "quantity",
		"unit_cost", "total_value", "reference_type", "reference_id", "batch_id",
		"previous_stock", "new_stock", "user_id", "notes", "store_id", "created_at",
	}
}

// Values returns the column values matching MovementColumns.
func (m *Movement) Values() []any {
	return []any{
		m.ID, m.ProductID, m.WarehouseID, string(m.MovementType), m.Quantity,
		m.UnitCost, m.TotalValue, string(m.ReferenceType), m.ReferenceID, m.BatchID,
		m.PreviousStock, m.NewStock, m.UserID, m.Notes, m.StoreID, m.CreatedAt,
	}
}
