package txlog

import (
	"context"
	"errors"
)

// ErrNotFound indicates no transaction exists for the given id.
var ErrNotFound = errors.New("transaction not found")

// Log is the append-only history of completed transfers. Record is idempotent
// keyed by the transaction id so the orchestrator can retry an append after a
// partial failure without duplicating the record.
type Log interface {
	Record(ctx context.Context, tx Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	QueryByParticipant(ctx context.Context, nationalID string, q Query) ([]Transaction, error)
}
