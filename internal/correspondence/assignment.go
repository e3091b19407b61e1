package correspondence

import (
	"context"

	"github.com/google/uuid"
)

// Ownership describes who currently owns a record and how it got there.
// It is derived entirely from the record and its audit trail.
type Ownership struct {
	RecordID uuid.UUID         `json:"recordId"`
	Owner    *string           `json:"owner,omitempty"`
	Stage    Stage             `json:"stage"`
	History  []StageTransition `json:"history"`
}

// Tracker is a read projection over the transition log. It never writes;
// each call re-reads current state, so the audit trail stays single-sourced
// in the store.
type Tracker struct {
	store Store
}

// NewTracker creates a Tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Ownership returns the record's current owner and its full ordered audit
// trail. ErrNotFound for unknown ids.
func (t *Tracker) Ownership(ctx context.Context, id uuid.UUID) (*Ownership, error) {
	rec, err := t.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := t.store.History(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Ownership{
		RecordID: rec.ID,
		Owner:    rec.AssignedTo,
		Stage:    rec.Stage,
		History:  history,
	}, nil
}
