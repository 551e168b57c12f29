package ledger

import (
	"context"

	"storeledger/internal/core/id"
)

// NewBatchID returns an id shared by every line of one commercial transaction.
// It is a UUIDv7: a millisecond timestamp followed by random bits.
func NewBatchID() string {
	return id.NewString()
}

type entryWriter interface {
	Record(ctx context.Context, req MovementRequest) Outcome
}

// Coordinator writes a batch of requests one after another. A failed line
// does not stop the batch and nothing is rolled back.
type Coordinator struct {
	writer entryWriter
}

// NewCoordinator creates a Coordinator over w.
func NewCoordinator(w *Writer) *Coordinator {
	return &Coordinator{writer: w}
}

// RecordBatch records each request in order and returns one outcome per request.
func (c *Coordinator) RecordBatch(ctx context.Context, reqs []MovementRequest) BatchResult {
	res := BatchResult{Lines: make([]LineOutcome, 0, len(reqs))}
	for i, req := range reqs {
		if res.BatchID == "" {
			res.BatchID = req.BatchID
		}
		res.Lines = append(res.Lines, LineOutcome{Index: i, Outcome: c.writer.Record(ctx, req)})
	}
	return res
}
