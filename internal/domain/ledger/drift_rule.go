package ledger

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultDriftRule flags every report outside tolerance.
const DefaultDriftRule = "!is_consistent"

// DriftRule is a CEL boolean expression evaluated against a ConsistencyReport.
// Available variables: is_consistent (bool), current_stock, calculated_stock,
// discrepancy (double) and product_id, warehouse_id, store_id (string).
type DriftRule struct {
	expr string
	prg  cel.Program
}

// CompileDriftRule parses and type-checks expr.
func CompileDriftRule(expr string) (*DriftRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("is_consistent", cel.BoolType),
		cel.Variable("current_stock", cel.DoubleType),
		cel.Variable("calculated_stock", cel.DoubleType),
		cel.Variable("discrepancy", cel.DoubleType),
		cel.Variable("product_id", cel.StringType),
		cel.Variable("warehouse_id", cel.StringType),
		cel.Variable("store_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("drift rule env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile drift rule: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("drift rule must be boolean, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("drift rule program: %w", err)
	}
	return &DriftRule{expr: expr, prg: prg}, nil
}

// Match evaluates the rule for report.
func (r *DriftRule) Match(report ConsistencyReport) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"is_consistent":    report.IsConsistent,
		"current_stock":    report.CurrentStock.InexactFloat64(),
		"calculated_stock": report.CalculatedStock.InexactFloat64(),
		"discrepancy":      report.Discrepancy.InexactFloat64(),
		"product_id":       report.ProductID,
		"warehouse_id":     report.WarehouseID,
		"store_id":         report.StoreID,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate drift rule: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("drift rule returned %T", out.Value())
	}
	return matched, nil
}

func (r *DriftRule) String() string {
	return r.expr
}
