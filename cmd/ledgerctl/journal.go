package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/export"
	"storeledger/pkg/logger"
)

func parseOptionalTime(flag, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &t, nil
}

func (a *app) exportCmd() *cobra.Command {
	var (
		out      string
		compress string
		from     string
		to       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a store's journal as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireStore(); err != nil {
				return err
			}
			compression, err := export.ParseCompression(compress)
			if err != nil {
				return err
			}
			filter := ledger.JournalFilter{StoreID: a.flags.storeID, ProductID: a.flags.productID}
			if filter.FromDate, err = parseOptionalTime("from", from); err != nil {
				return err
			}
			if filter.ToDate, err = parseOptionalTime("to", to); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return a.run(cmd, func(ctx context.Context, b *backend) error {
				n, err := export.NewExporter(b.journal).Export(ctx, w, filter, compression)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d entries\n", n)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	f.StringVar(&compress, "compress", "", "compression: none or zstd")
	f.StringVar(&from, "from", "", "RFC3339 lower bound on created_at")
	f.StringVar(&to, "to", "", "RFC3339 upper bound on created_at")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var (
		file      string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Append an exported journal file (plain or zstd) to the journal",
		Long: "Rows are appended as they are, stock counters are left alone.\n" +
			"Run validate afterwards to see where counters and journal disagree.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return errors.New("--batch-size must be positive")
			}
			in, err := os.Open(file)
			if err != nil {
				return err
			}
			defer in.Close()

			return a.run(cmd, func(ctx context.Context, b *backend) error {
				var (
					batch    = make([]entity.Movement, 0, batchSize)
					imported int64
				)
				flush := func() error {
					if len(batch) == 0 {
						return nil
					}
					n, err := b.journal.Import(ctx, batch)
					if err != nil {
						return err
					}
					imported += n
					batch = batch[:0]
					return nil
				}

				_, err := export.Read(in, func(m *entity.Movement) error {
					if a.flags.storeID != "" && m.StoreID != a.flags.storeID {
						return fmt.Errorf("entry %s belongs to store %s, not %s", m.ID, m.StoreID, a.flags.storeID)
					}
					batch = append(batch, *m)
					if len(batch) == batchSize {
						return flush()
					}
					return nil
				})
				if err == nil {
					err = flush()
				}
				logger.Info(ctx, "journal import finished", "file", file, "imported", imported, "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "imported %d entries\n", imported)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "journal file (required)")
	_ = cmd.MarkFlagRequired("file")
	f.IntVar(&batchSize, "batch-size", 1000, "rows per COPY batch")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *backend) error {
				if b.migrate == nil {
					return errors.New("migrate is not supported by this backend")
				}
				if err := b.migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return nil
			})
		},
	}
}

func (a *app) cleanupKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-keys",
		Short: "Delete expired idempotency keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *backend) error {
				if b.cleanupKeys == nil {
					return errors.New("cleanup-keys is not supported by this backend")
				}
				n, err := b.cleanupKeys(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired keys\n", n)
				return nil
			})
		},
	}
}
