package correspondence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/query"
)

// Query is the validated, translated form of a SearchQuery handed to the
// store. Nil filters are no-ops; the store executes the filter, sort, and
// window and returns the page items plus the unpaginated total.
type Query struct {
	Term          string
	Stage         *Stage
	EntityID      *uuid.UUID
	RequestTypeID *uuid.UUID
	AccountID     *uuid.UUID
	ReceivedFrom  *time.Time
	ReceivedTo    *time.Time
	RespondedFrom *time.Time
	RespondedTo   *time.Time
	Sort          []query.SortField
	Offset        int
	Limit         int
}

// Store is the persistence contract the correspondence domain depends on.
// Implementations live in internal/store.
//
// Save persists the record's mutable fields and appends the transition
// entry as one atomic operation, guarded by the optimistic version token:
// when the stored version differs from expectedVersion, Save returns
// ErrConflict and changes nothing. Load returns ErrNotFound for unknown
// ids.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Load(ctx context.Context, id uuid.UUID) (*Record, error)
	Save(ctx context.Context, rec *Record, expectedVersion int64, entry *StageTransition) error
	Query(ctx context.Context, q Query) ([]Record, int, error)
	History(ctx context.Context, id uuid.UUID) ([]StageTransition, error)
	// Overdue returns up to limit open records whose deadline has passed
	// as of the given instant, oldest first. Used by the expiry sweep.
	Overdue(ctx context.Context, asOf time.Time, limit int) ([]Record, error)
}
