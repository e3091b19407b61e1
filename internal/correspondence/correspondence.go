// Package correspondence implements the correspondence domain for oficio.
// It tracks inbound requests (correos) through a role-owned lifecycle,
// computes SLA state against each record's deadline, and provides the
// filtered search contract that every list view depends on.
package correspondence

import (
	"time"

	"github.com/google/uuid"
)

// Record represents one inbound request tracked through its lifecycle.
//
// ReceivedAt and SlaDays are fixed at creation. RespondedAt is set exactly
// once, by the final approval that moves the record to the sent stage.
// AssignedTo is set from the first assignment onward. Version is the
// optimistic concurrency token; every successful save increments it.
type Record struct {
	ID               uuid.UUID  `json:"id"`
	Subject          string     `json:"subject"`
	Sender           string     `json:"sender"`
	Entity           string     `json:"entity"`
	RequestType      string     `json:"requestType"`
	EntityID         *uuid.UUID `json:"entityId,omitempty"`
	RequestTypeID    *uuid.UUID `json:"requestTypeId,omitempty"`
	AccountID        *uuid.UUID `json:"accountId,omitempty"`
	ReceivedAt       time.Time  `json:"receivedAt"`
	RespondedAt      *time.Time `json:"respondedAt,omitempty"`
	Stage            Stage      `json:"stage"`
	AssignedTo       *string    `json:"assignedTo,omitempty"`
	ExternalRefEntry *string    `json:"externalRefEntry,omitempty"`
	ExternalRefExit  *string    `json:"externalRefExit,omitempty"`
	SlaDays          int        `json:"slaDays"`
	Version          int64      `json:"version"`
}

// StageTransition is one append-only audit entry. Reassignments record
// FromStage == ToStage. Entries are owned by their record and never
// mutated once written.
type StageTransition struct {
	RecordID   uuid.UUID `json:"recordId"`
	FromStage  Stage     `json:"fromStage"`
	ToStage    Stage     `json:"toStage"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
	Note       *string   `json:"note,omitempty"`
}

// CreateCommand carries the data needed to register a new inbound record.
// SlaDays is optional; when zero the service resolves it from the catalog
// request type (if linked) or the SLA policy.
type CreateCommand struct {
	Subject          string     `json:"subject"`
	Sender           string     `json:"sender"`
	Entity           string     `json:"entity"`
	RequestType      string     `json:"requestType"`
	EntityID         *uuid.UUID `json:"entityId,omitempty"`
	RequestTypeID    *uuid.UUID `json:"requestTypeId,omitempty"`
	AccountID        *uuid.UUID `json:"accountId,omitempty"`
	ExternalRefEntry *string    `json:"externalRefEntry,omitempty"`
	SlaDays          int        `json:"slaDays,omitempty"`
}

// ActionCommand carries the common fields of every lifecycle command.
type ActionCommand struct {
	Actor string  `json:"actor"`
	Note  *string `json:"note,omitempty"`
}

// AssignCommand carries an assignment or reassignment target.
type AssignCommand struct {
	ActionCommand
	Owner string `json:"owner"`
}

// SubmitCommand carries the draft reference required to enter review.
type SubmitCommand struct {
	ActionCommand
	DraftRef string `json:"draftRef"`
}
