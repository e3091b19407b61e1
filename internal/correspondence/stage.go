package correspondence

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Stage represents a record's position in the correspondence lifecycle.
type Stage string

// Lifecycle stages. The main path runs received → assigned → drafting →
// in_review → approval → sent; expired is reachable from any open stage,
// and archived only from sent or expired.
const (
	StageReceived Stage = "received"
	StageAssigned Stage = "assigned"
	StageDrafting Stage = "drafting"
	StageInReview Stage = "in_review"
	StageApproval Stage = "approval"
	StageSent     Stage = "sent"
	StageExpired  Stage = "expired"
	StageArchived Stage = "archived"
)

var stages = []Stage{
	StageReceived,
	StageAssigned,
	StageDrafting,
	StageInReview,
	StageApproval,
	StageSent,
	StageExpired,
	StageArchived,
}

// Stages returns the list of valid lifecycle stages.
func Stages() []Stage {
	return stages
}

// ParseStage validates a string as a known lifecycle stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", fmt.Errorf("%w: unknown stage %q", ErrValidation, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Open reports whether the stage still accepts lifecycle work:
// reassignment, drafting, review, and expiry all require an open stage.
func (s Stage) Open() bool {
	switch s {
	case StageReceived, StageAssigned, StageDrafting, StageInReview, StageApproval:
		return true
	}
	return false
}

// Closed reports whether the stage accepts no further work except archival.
func (s Stage) Closed() bool {
	return !s.Open()
}

// Event identifies a lifecycle command in the transition table and in
// audit entries.
type Event string

// Lifecycle events.
const (
	EventAssign          Event = "assign"
	EventReassign        Event = "reassign"
	EventStartDrafting   Event = "start_drafting"
	EventSubmitForReview Event = "submit_for_review"
	EventRequestChanges  Event = "request_changes"
	EventApproveReview   Event = "approve_review"
	EventReject          Event = "reject"
	EventFinalApprove    Event = "final_approve"
	EventMarkExpired     Event = "mark_expired"
	EventArchive         Event = "archive"
)

// transitions is the closed legal-transition table. Events absent from a
// stage's row are illegal from that stage. EventReassign is intentionally
// not in the table: it never changes the stage and is guarded separately.
var transitions = map[Stage]map[Event]Stage{
	StageReceived: {
		EventAssign:      StageAssigned,
		EventMarkExpired: StageExpired,
	},
	StageAssigned: {
		EventStartDrafting: StageDrafting,
		EventMarkExpired:   StageExpired,
	},
	StageDrafting: {
		EventSubmitForReview: StageInReview,
		EventMarkExpired:     StageExpired,
	},
	StageInReview: {
		EventRequestChanges: StageDrafting,
		EventApproveReview:  StageApproval,
		EventMarkExpired:    StageExpired,
	},
	StageApproval: {
		EventReject:       StageDrafting,
		EventFinalApprove: StageSent,
		EventMarkExpired:  StageExpired,
	},
	StageSent: {
		EventArchive: StageArchived,
	},
	StageExpired: {
		EventArchive: StageArchived,
	},
	StageArchived: {},
}

// Next returns the stage reached by applying event from the given stage,
// or ErrInvalidTransition when the transition table does not permit it.
func Next(from Stage, event Event) (Stage, error) {
	row, ok := transitions[from]
	if !ok {
		return "", fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, from)
	}
	to, ok := row[event]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
	}
	return to, nil
}
