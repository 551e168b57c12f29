package ledger

import (
	"fmt"

	"storeledger/internal/core/entity"
)

// Status is the result class of one ledger write.
type Status int

const (
	StatusRecorded Status = iota + 1
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRecorded:
		return "recorded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "recorded":
		*s = StatusRecorded
	case "skipped":
		*s = StatusSkipped
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown outcome status %q", b)
	}
	return nil
}

// SkipReason explains a StatusSkipped outcome.
type SkipReason string

const (
	ReasonNone            SkipReason = ""
	ReasonNoOp            SkipReason = "no_op"
	ReasonProductNotFound SkipReason = "product_not_found"
)

// Outcome is what one ledger write produced. Entry is set only when Status
// is StatusRecorded; Err only when Status is StatusFailed.
type Outcome struct {
	Status Status
	Reason SkipReason
	Entry  *entity.Movement
	Err    error
}

// Recorded reports whether an entry was persisted.
func (o Outcome) Recorded() bool {
	return o.Status == StatusRecorded
}

func recorded(m *entity.Movement) Outcome {
	return Outcome{Status: StatusRecorded, Entry: m}
}

func skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// LineOutcome pairs an outcome with the position of its request in a batch.
type LineOutcome struct {
	Index int
	Outcome
}

// BatchResult holds one outcome per submitted request, in submission order.
type BatchResult struct {
	BatchID string
	Lines   []LineOutcome
}

// Recorded returns the entries that were persisted.
func (r BatchResult) Recorded() []entity.Movement {
	out := make([]entity.Movement, 0, len(r.Lines))
	for _, l := range r.Lines {
		if l.Recorded() {
			out = append(out, *l.Entry)
		}
	}
	return out
}

// Count returns how many lines ended with status s.
func (r BatchResult) Count(s Status) int {
	n := 0
	for _, l := range r.Lines {
		if l.Status == s {
			n++
		}
	}
	return n
}

func single(batchID string, o Outcome) BatchResult {
	return BatchResult{BatchID: batchID, Lines: []LineOutcome{{Index: 0, Outcome: o}}}
}
