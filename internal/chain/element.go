package chain

import "github.com/google/uuid"

// ElementID opaquely identifies a range handed to the downstream consumer.
// Completion callbacks correlate back to the handoff via this id.
type ElementID uuid.UUID

// String implements fmt.Stringer.
func (id ElementID) String() string {
	return uuid.UUID(id).String()
}

// newElementID generates a fresh, random element id.
func newElementID() ElementID {
	return ElementID(uuid.New())
}

// CompletionStatus is reported by the downstream consumer exactly once per
// submitted range.
type CompletionStatus int

const (
	// StatusNormal means the range was fully processed without error.
	StatusNormal CompletionStatus = iota
	// StatusAborted means the range was rejected or failed mid-pipeline.
	StatusAborted
)

// String implements fmt.Stringer.
func (s CompletionStatus) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// elementInfo is bookkeeping for a range handed to the downstream consumer:
// created on handoff, destroyed when the consumer reports completion.
type elementInfo struct {
	id        ElementID
	endHeight Height
	numBytes  uint64
}
