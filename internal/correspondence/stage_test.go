package correspondence_test

import (
	"errors"
	"testing"

	"github.com/oficiohq/oficio/internal/correspondence"
)

func TestNextLegalTransitions(t *testing.T) {
	tests := []struct {
		from  correspondence.Stage
		event correspondence.Event
		want  correspondence.Stage
	}{
		{correspondence.StageReceived, correspondence.EventAssign, correspondence.StageAssigned},
		{correspondence.StageAssigned, correspondence.EventStartDrafting, correspondence.StageDrafting},
		{correspondence.StageDrafting, correspondence.EventSubmitForReview, correspondence.StageInReview},
		{correspondence.StageInReview, correspondence.EventRequestChanges, correspondence.StageDrafting},
		{correspondence.StageInReview, correspondence.EventApproveReview, correspondence.StageApproval},
		{correspondence.StageApproval, correspondence.EventReject, correspondence.StageDrafting},
		{correspondence.StageApproval, correspondence.EventFinalApprove, correspondence.StageSent},
		{correspondence.StageReceived, correspondence.EventMarkExpired, correspondence.StageExpired},
		{correspondence.StageApproval, correspondence.EventMarkExpired, correspondence.StageExpired},
		{correspondence.StageSent, correspondence.EventArchive, correspondence.StageArchived},
		{correspondence.StageExpired, correspondence.EventArchive, correspondence.StageArchived},
	}

	for _, tt := range tests {
		got, err := correspondence.Next(tt.from, tt.event)
		if err != nil {
			t.Errorf("Next(%s, %s) error = %v", tt.from, tt.event, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Next(%s, %s) = %s, want %s", tt.from, tt.event, got, tt.want)
		}
	}
}

func TestNextIllegalTransitions(t *testing.T) {
	tests := []struct {
		from  correspondence.Stage
		event correspondence.Event
	}{
		{correspondence.StageReceived, correspondence.EventStartDrafting},
		{correspondence.StageReceived, correspondence.EventFinalApprove},
		{correspondence.StageDrafting, correspondence.EventApproveReview},
		{correspondence.StageSent, correspondence.EventAssign},
		{correspondence.StageSent, correspondence.EventMarkExpired},
		{correspondence.StageExpired, correspondence.EventMarkExpired},
		{correspondence.StageArchived, correspondence.EventArchive},
		{correspondence.StageArchived, correspondence.EventAssign},
	}

	for _, tt := range tests {
		if _, err := correspondence.Next(tt.from, tt.event); !errors.Is(err, correspondence.ErrInvalidTransition) {
			t.Errorf("Next(%s, %s) error = %v, want ErrInvalidTransition", tt.from, tt.event, err)
		}
	}
}

func TestStageOpen(t *testing.T) {
	open := []correspondence.Stage{
		correspondence.StageReceived,
		correspondence.StageAssigned,
		correspondence.StageDrafting,
		correspondence.StageInReview,
		correspondence.StageApproval,
	}
	for _, s := range open {
		if !s.Open() {
			t.Errorf("%s.Open() = false, want true", s)
		}
	}

	closed := []correspondence.Stage{
		correspondence.StageSent,
		correspondence.StageExpired,
		correspondence.StageArchived,
	}
	for _, s := range closed {
		if !s.Closed() {
			t.Errorf("%s.Closed() = false, want true", s)
		}
	}
}

func TestParseStage(t *testing.T) {
	got, err := correspondence.ParseStage("in_review")
	if err != nil {
		t.Fatalf("ParseStage() error = %v", err)
	}
	if got != correspondence.StageInReview {
		t.Errorf("ParseStage() = %s, want in_review", got)
	}

	if _, err := correspondence.ParseStage("pending"); !errors.Is(err, correspondence.ErrValidation) {
		t.Errorf("ParseStage(pending) error = %v, want ErrValidation", err)
	}
}
