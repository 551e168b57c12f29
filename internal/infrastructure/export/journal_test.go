package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/internal/infrastructure/storage/memory"
)

func seededJournal(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: "p1", StoreID: "s1", Kind: entity.KindProduct})
	store.PutProduct(entity.Product{ID: "p2", StoreID: "s1", Kind: entity.KindProduct})
	store.PutProduct(entity.Product{ID: "p1", StoreID: "other", Kind: entity.KindProduct})

	svc, err := ledger.NewService(store.Products(), store.Journal(), store.TxManager(), ledger.Config{Transactional: true})
	require.NoError(t, err)

	for _, storeID := range []string{"s1", "other"} {
		svc.Recorder.RecordPurchase(context.Background(), ledger.PurchaseInput{
			PurchaseID: "po-1",
			Lines: []ledger.Line{
				{ProductID: "p1", Quantity: decimal.NewFromInt(5), Price: price(2)},
				{ProductID: "p2", Quantity: decimal.NewFromInt(1), Price: price(3)},
			},
			StoreID: storeID,
		})
	}
	return store
}

func TestExportRoundTrip(t *testing.T) {
	for name, c := range map[string]Compression{"plain": CompressionNone, "zstd": CompressionZstd} {
		t.Run(name, func(t *testing.T) {
			store := seededJournal(t)
			var buf bytes.Buffer

			n, err := NewExporter(store.Journal()).Export(context.Background(), &buf, ledger.JournalFilter{StoreID: "s1"}, c)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			if c == CompressionZstd {
				assert.True(t, bytes.HasPrefix(buf.Bytes(), zstdMagic))
			} else {
				assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
			}

			var got []entity.Movement
			read, err := Read(&buf, func(m *entity.Movement) error {
				got = append(got, *m)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 2, read)
			for _, m := range got {
				assert.Equal(t, "s1", m.StoreID)
				assert.Equal(t, entity.MovementPurchase, m.MovementType)
				require.NotNil(t, m.BatchID)
			}
			assert.True(t, got[0].Quantity.Equal(decimal.NewFromInt(5)))
		})
	}
}

func TestExportFiltersByProduct(t *testing.T) {
	store := seededJournal(t)
	var buf bytes.Buffer

	n, err := NewExporter(store.Journal()).Export(context.Background(), &buf, ledger.JournalFilter{StoreID: "s1", ProductID: "p2"}, CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), `"productId":"p2"`)
}

func TestReadRejectsUnknownTypes(t *testing.T) {
	line := `{"id":"0190f1d2-7b3c-7c5e-9a7e-2f1c3b4d5e6f","movementType":"LOSS","referenceType":"SALE_TRANSACTION"}` + "\n"
	_, err := Read(strings.NewReader(line), func(*entity.Movement) error { return nil })
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, "application/zstd", c.ContentType())

	c, err = ParseCompression("none")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("gzip")
	assert.Error(t, err)
}

func price(n int64) *decimal.Decimal {
	p := decimal.NewFromInt(n)
	return &p
}
