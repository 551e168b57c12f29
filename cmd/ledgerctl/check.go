package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Compare a product's stock counter with its journal replay",
		Long: "Prints the consistency report. Exits non-zero when the counter\n" +
			"and the replay differ by more than LEDGER_CONSISTENCY_TOLERANCE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireProduct(); err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, b *backend) error {
				report, err := b.ledger.Validator.Check(ctx, a.flags.productID, a.warehouse(), a.flags.storeID)
				if err != nil {
					return fmt.Errorf("consistency check for %s: %w", a.flags.productID, err)
				}
				if err := printJSON(cmd, report); err != nil {
					return err
				}
				if !report.IsConsistent {
					return fmt.Errorf("stock drift: discrepancy %s", report.Discrepancy)
				}
				return nil
			})
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print inflow, outflow and replayed stock of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireProduct(); err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, b *backend) error {
				summary, ok := b.ledger.Query.MovementSummary(ctx, a.flags.productID, a.flags.storeID, a.warehouse())
				if !ok {
					return fmt.Errorf("summary for product %s unavailable", a.flags.productID)
				}
				return printJSON(cmd, summary)
			})
		},
	}
}

func (a *app) stockAtCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "stock-at",
		Short: "Replay a product's stock as of a point in time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireProduct(); err != nil {
				return err
			}
			at := time.Now()
			if date != "" {
				parsed, err := time.Parse(time.RFC3339, date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				at = parsed
			}
			return a.run(cmd, func(ctx context.Context, b *backend) error {
				stock, ok := b.ledger.Query.StockAt(ctx, a.flags.productID, a.warehouse(), a.flags.storeID, at)
				if !ok {
					return fmt.Errorf("stock replay for product %s unavailable", a.flags.productID)
				}
				return printJSON(cmd, map[string]any{
					"productId":   a.flags.productID,
					"warehouseId": a.warehouse(),
					"at":          at.UTC(),
					"stock":       stock,
				})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "RFC3339 timestamp (default now)")
	return cmd
}
