package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storeledger/internal/core/entity"
)

type auditedRow struct {
	ID string `db:"id"`
}

type embeddingRow struct {
	auditedRow
	Name    string `db:"name"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestExtractDBColumnsFlattensEmbedded(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, ExtractDBColumns[embeddingRow]())
	assert.Equal(t, []string{"id", "name"}, ExtractDBColumns[*embeddingRow]())
}

func TestExtractDBColumnsReturnsCopy(t *testing.T) {
	cols := ExtractDBColumns[embeddingRow]()
	cols[0] = "changed"
	assert.Equal(t, "id", ExtractDBColumns[embeddingRow]()[0])
}

// The COPY import writes Movement.Values() under MovementColumns(); both
// must follow the struct tags that pgxscan reads back.
func TestMovementColumnsMatchStructTags(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[entity.Movement](), entity.MovementColumns())

	m := entity.Movement{}
	assert.Len(t, m.Values(), len(entity.MovementColumns()))
}

func TestProductColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "store_id", "stock", "cost", "type", "affects_inventory"},
		ExtractDBColumns[entity.Product]())
}
