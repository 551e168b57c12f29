package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storeledger/internal/core/tx"
)

// Config configures a Service.
type Config struct {
	Transactional    bool
	DefaultWarehouse string
	Tolerance        decimal.Decimal
	// DriftRule is a CEL expression; empty means DefaultDriftRule.
	DriftRule string
	Clock     func() time.Time
}

// Service bundles the ledger components over one pair of repositories.
type Service struct {
	Writer    *Writer
	Batch     *Coordinator
	Recorder  *Recorder
	Query     *Query
	Validator *Validator
}

// NewService wires the ledger. It fails only when the drift rule does not compile.
func NewService(products ProductRepository, movements MovementRepository, txm tx.Manager, cfg Config) (*Service, error) {
	expr := cfg.DriftRule
	if expr == "" {
		expr = DefaultDriftRule
	}
	rule, err := CompileDriftRule(expr)
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	writer := NewWriter(products, movements, txm, WriterConfig{
		Transactional: cfg.Transactional,
		Clock:         cfg.Clock,
	})
	batch := NewCoordinator(writer)
	query := NewQuery(movements)

	return &Service{
		Writer:   writer,
		Batch:    batch,
		Recorder: NewRecorder(batch, cfg.DefaultWarehouse),
		Query:    query,
		Validator: NewValidator(products, query, ValidatorConfig{
			Tolerance: cfg.Tolerance,
			DriftRule: rule,
			Clock:     cfg.Clock,
		}),
	}, nil
}
