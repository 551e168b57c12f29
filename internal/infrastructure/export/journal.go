// Package export writes the movement journal as JSON lines, optionally
// zstd-compressed, and reads such files back.
package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"storeledger/internal/core/entity"
	"storeledger/internal/domain/ledger"
	"storeledger/pkg/logger"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Compression selects the output encoding.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
)

// ParseCompression accepts "", "none" and "zstd".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return CompressionNone, fmt.Errorf("unsupported compression %q", s)
}

// ContentType is the HTTP content type of an export.
func (c Compression) ContentType() string {
	if c == CompressionZstd {
		return "application/zstd"
	}
	return "application/x-ndjson"
}

// Exporter streams the journal of one store.
type Exporter struct {
	journal ledger.MovementRepository
}

// NewExporter creates an Exporter.
func NewExporter(journal ledger.MovementRepository) *Exporter {
	return &Exporter{journal: journal}
}

// Export writes one JSON object per entry, oldest first, and returns the
// number of entries written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, filter ledger.JournalFilter, compression Compression) (n int, err error) {
	out := w
	if compression == CompressionZstd {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return 0, fmt.Errorf("create zstd encoder: %w", err)
		}
		defer func() {
			if cerr := enc.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("flush zstd stream: %w", cerr)
			}
		}()
		out = enc
	}

	buf := bufio.NewWriter(out)
	jsonEnc := json.NewEncoder(buf)
	err = e.journal.Each(ctx, filter, func(m *entity.Movement) error {
		if err := jsonEnc.Encode(m); err != nil {
			return fmt.Errorf("encode entry %s: %w", m.ID, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := buf.Flush(); err != nil {
		return n, fmt.Errorf("flush export: %w", err)
	}

	logger.Info(ctx, "journal exported",
		"store_id", filter.StoreID,
		"product_id", filter.ProductID,
		"entries", n,
		"compression", string(compression),
	)
	return n, nil
}

// Read decodes an export produced by Export, detecting zstd by its magic
// number, and calls fn for every entry in file order.
func Read(r io.Reader, fn func(m *entity.Movement) error) (int, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var in io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return 0, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		in = dec
	}

	n := 0
	jsonDec := json.NewDecoder(in)
	for {
		var m entity.Movement
		err := jsonDec.Decode(&m)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("decode entry %d: %w", n+1, err)
		}
		if !m.MovementType.Valid() || !m.ReferenceType.Valid() {
			return n, fmt.Errorf("entry %d (%s): unknown movement or reference type", n+1, m.ID)
		}
		if err := fn(&m); err != nil {
			return n, err
		}
		n++
	}
}
