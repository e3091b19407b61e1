package correspondence_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/internal/store"
	"github.com/oficiohq/oficio/pkg/clock"
)

func newTestSystem(t *testing.T, clk clock.Clock) (correspondence.System, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := correspondence.New(mem, clk, testPolicy, nil, logger, pageCfg)
	return sys, mem
}

func createRecord(t *testing.T, sys correspondence.System) *correspondence.Record {
	t.Helper()

	rec, err := sys.Create(context.Background(), correspondence.CreateCommand{
		Subject:     "Solicitud de informe presupuestal",
		Sender:      "veeduria@example.com",
		Entity:      "Alcaldía Municipal",
		RequestType: "derecho_peticion",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return rec
}

func TestCreateFreshRecord(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, _ := newTestSystem(t, clock.NewFake(base))

	rec := createRecord(t, sys)

	if rec.Stage != correspondence.StageReceived {
		t.Errorf("Stage = %s, want received", rec.Stage)
	}
	if !rec.ReceivedAt.Equal(base) {
		t.Errorf("ReceivedAt = %v, want the clock instant %v", rec.ReceivedAt, base)
	}
	if rec.RespondedAt != nil || rec.AssignedTo != nil {
		t.Error("fresh record must have no response instant and no owner")
	}
	if rec.SlaDays != 15 {
		t.Errorf("SlaDays = %d, want 15 from the policy deadline table", rec.SlaDays)
	}
	if rec.Version != 1 {
		t.Errorf("Version = %d, want 1", rec.Version)
	}
}

func TestCreateValidation(t *testing.T) {
	sys, _ := newTestSystem(t, clock.NewFake(time.Now()))

	_, err := sys.Create(context.Background(), correspondence.CreateCommand{Sender: "a@example.com"})
	if !errors.Is(err, correspondence.ErrValidation) {
		t.Errorf("Create() without subject error = %v, want ErrValidation", err)
	}

	_, err = sys.Create(context.Background(), correspondence.CreateCommand{Subject: "Oficio"})
	if !errors.Is(err, correspondence.ErrValidation) {
		t.Errorf("Create() without sender error = %v, want ErrValidation", err)
	}
}

func TestAssignFlow(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	fake := clock.NewFake(base)
	sys, _ := newTestSystem(t, fake)
	ctx := context.Background()

	rec := createRecord(t, sys)

	got, err := sys.Assign(ctx, rec.ID, correspondence.AssignCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "coordinator"},
		Owner:         "ana",
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if got.Stage != correspondence.StageAssigned {
		t.Errorf("Stage = %s, want assigned", got.Stage)
	}
	if got.AssignedTo == nil || *got.AssignedTo != "ana" {
		t.Errorf("AssignedTo = %v, want ana", got.AssignedTo)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}

	history, err := sys.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("History() length = %d, want 1", len(history))
	}
	if history[0].FromStage != correspondence.StageReceived || history[0].ToStage != correspondence.StageAssigned {
		t.Errorf("History()[0] = %+v, want received -> assigned", history[0])
	}

	// Empty owner never reaches the store.
	_, err = sys.Assign(ctx, rec.ID, correspondence.AssignCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "coordinator"},
	})
	if !errors.Is(err, correspondence.ErrValidation) {
		t.Errorf("Assign() empty owner error = %v, want ErrValidation", err)
	}
}

func TestReassignKeepsStage(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, _ := newTestSystem(t, clock.NewFake(base))
	ctx := context.Background()

	rec := createRecord(t, sys)

	// Reassigning before any assignment has no owner to replace.
	_, err := sys.Reassign(ctx, rec.ID, correspondence.AssignCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "coordinator"},
		Owner:         "berta",
	})
	if !errors.Is(err, correspondence.ErrInvalidTransition) {
		t.Errorf("Reassign() unassigned error = %v, want ErrInvalidTransition", err)
	}

	mustAssign(t, sys, rec.ID, "ana")

	got, err := sys.Reassign(ctx, rec.ID, correspondence.AssignCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "coordinator"},
		Owner:         "berta",
	})
	if err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if got.Stage != correspondence.StageAssigned {
		t.Errorf("Stage = %s, reassign must not change the stage", got.Stage)
	}
	if got.AssignedTo == nil || *got.AssignedTo != "berta" {
		t.Errorf("AssignedTo = %v, want berta", got.AssignedTo)
	}

	history, err := sys.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	last := history[len(history)-1]
	if last.FromStage != last.ToStage {
		t.Errorf("reassign audit entry = %+v, want fromStage == toStage", last)
	}
}

func TestStartDraftingOwnerGuard(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, _ := newTestSystem(t, clock.NewFake(base))
	ctx := context.Background()

	rec := createRecord(t, sys)
	mustAssign(t, sys, rec.ID, "ana")

	_, err := sys.StartDrafting(ctx, rec.ID, correspondence.ActionCommand{Actor: "carlos"})
	if !errors.Is(err, correspondence.ErrValidation) {
		t.Errorf("StartDrafting() by non-owner error = %v, want ErrValidation", err)
	}

	got, err := sys.StartDrafting(ctx, rec.ID, correspondence.ActionCommand{Actor: "ana"})
	if err != nil {
		t.Fatalf("StartDrafting() error = %v", err)
	}
	if got.Stage != correspondence.StageDrafting {
		t.Errorf("Stage = %s, want drafting", got.Stage)
	}
}

func TestInvalidTransitionLeavesStateUntouched(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, _ := newTestSystem(t, clock.NewFake(base))
	ctx := context.Background()

	rec := createRecord(t, sys)

	_, err := sys.FinalApprove(ctx, rec.ID, correspondence.ActionCommand{Actor: "director"})
	if !errors.Is(err, correspondence.ErrInvalidTransition) {
		t.Fatalf("FinalApprove() from received error = %v, want ErrInvalidTransition", err)
	}

	got, err := sys.Find(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Stage != correspondence.StageReceived || got.Version != 1 {
		t.Errorf("record changed by failed transition: stage %s version %d", got.Stage, got.Version)
	}

	history, err := sys.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History() length = %d, failed transitions must not append", len(history))
	}
}

func TestFullLifecycleToSent(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	fake := clock.NewFake(base)
	sys, _ := newTestSystem(t, fake)
	ctx := context.Background()

	rec := createRecord(t, sys)
	mustAssign(t, sys, rec.ID, "ana")

	if _, err := sys.StartDrafting(ctx, rec.ID, correspondence.ActionCommand{Actor: "ana"}); err != nil {
		t.Fatalf("StartDrafting() error = %v", err)
	}
	if _, err := sys.SubmitForReview(ctx, rec.ID, correspondence.SubmitCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "ana"},
		DraftRef:      "drafts/2025/0001",
	}); err != nil {
		t.Fatalf("SubmitForReview() error = %v", err)
	}
	if _, err := sys.ApproveReview(ctx, rec.ID, correspondence.ActionCommand{Actor: "jefe"}); err != nil {
		t.Fatalf("ApproveReview() error = %v", err)
	}

	fake.Advance(48 * time.Hour)
	got, err := sys.FinalApprove(ctx, rec.ID, correspondence.ActionCommand{Actor: "director"})
	if err != nil {
		t.Fatalf("FinalApprove() error = %v", err)
	}
	if got.Stage != correspondence.StageSent {
		t.Errorf("Stage = %s, want sent", got.Stage)
	}
	if got.RespondedAt == nil || !got.RespondedAt.Equal(fake.Now()) {
		t.Errorf("RespondedAt = %v, want the approval instant", got.RespondedAt)
	}

	// Marking a closed record expired is an idempotent no-op.
	same, err := sys.MarkExpired(ctx, rec.ID, "sweeper")
	if err != nil {
		t.Fatalf("MarkExpired() on sent error = %v", err)
	}
	if same.Stage != correspondence.StageSent || same.Version != got.Version {
		t.Errorf("MarkExpired() on sent changed the record: %+v", same)
	}

	if _, err := sys.Archive(ctx, rec.ID, correspondence.ActionCommand{Actor: "archivist"}); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
}

func TestSubmitForReviewRequiresDraftRef(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, _ := newTestSystem(t, clock.NewFake(base))
	ctx := context.Background()

	rec := createRecord(t, sys)
	mustAssign(t, sys, rec.ID, "ana")
	if _, err := sys.StartDrafting(ctx, rec.ID, correspondence.ActionCommand{Actor: "ana"}); err != nil {
		t.Fatalf("StartDrafting() error = %v", err)
	}

	_, err := sys.SubmitForReview(ctx, rec.ID, correspondence.SubmitCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "ana"},
	})
	if !errors.Is(err, correspondence.ErrValidation) {
		t.Errorf("SubmitForReview() without draft ref error = %v, want ErrValidation", err)
	}
}

func TestMarkExpiredRequiresOverdue(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	fake := clock.NewFake(base)
	sys, _ := newTestSystem(t, fake)
	ctx := context.Background()

	rec := createRecord(t, sys)

	_, err := sys.MarkExpired(ctx, rec.ID, "sweeper")
	if !errors.Is(err, correspondence.ErrInvalidTransition) {
		t.Errorf("MarkExpired() before the deadline error = %v, want ErrInvalidTransition", err)
	}

	fake.Advance(16 * 24 * time.Hour)
	got, err := sys.MarkExpired(ctx, rec.ID, "sweeper")
	if err != nil {
		t.Fatalf("MarkExpired() error = %v", err)
	}
	if got.Stage != correspondence.StageExpired {
		t.Errorf("Stage = %s, want expired", got.Stage)
	}
	if got.RespondedAt != nil {
		t.Error("expired record must keep a nil respondedAt")
	}
}

func TestSaveConflictSurfaces(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, mem := newTestSystem(t, clock.NewFake(base))
	ctx := context.Background()

	rec := createRecord(t, sys)

	// Another writer bumps the version between load and save.
	stored, err := mem.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	stored.Version = 2
	if err := mem.Save(ctx, stored, 1, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err = sys.Assign(ctx, rec.ID, correspondence.AssignCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "coordinator"},
		Owner:         "ana",
	})
	if err != nil {
		t.Fatalf("Assign() after external bump error = %v", err)
	}

	// Direct stale save still reports the conflict.
	stale := *stored
	stale.Version = 9
	if err := mem.Save(ctx, &stale, 1, nil); !errors.Is(err, correspondence.ErrConflict) {
		t.Errorf("Save() stale error = %v, want ErrConflict", err)
	}
}

func TestSearchThroughService(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	sys, _ := newTestSystem(t, clock.NewFake(base))
	ctx := context.Background()

	createRecord(t, sys)
	createRecord(t, sys)

	page, err := sys.Search(ctx, correspondence.SearchQuery{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.TotalItems != 2 || len(page.Items) != 2 {
		t.Errorf("Search() = %d items, total %d, want both records", len(page.Items), page.TotalItems)
	}
	if !page.IsFirst || !page.IsLast || page.IsEmpty {
		t.Errorf("page flags = %+v, want single full page", page)
	}

	_, err = sys.Search(ctx, correspondence.SearchQuery{Size: 500})
	if !errors.Is(err, correspondence.ErrInvalidQuery) {
		t.Errorf("Search() size over max error = %v, want ErrInvalidQuery", err)
	}

	// A page past the end keeps the true totals.
	page, err = sys.Search(ctx, correspondence.SearchQuery{Page: 7})
	if err != nil {
		t.Fatalf("Search() past end error = %v", err)
	}
	if page.TotalItems != 2 || !page.IsEmpty || page.PageIndex != 7 {
		t.Errorf("past-end page = %+v, want empty items with true totals", page)
	}
}

func TestFindUnknownRecord(t *testing.T) {
	sys, _ := newTestSystem(t, clock.NewFake(time.Now()))

	_, err := sys.Find(context.Background(), uuid.New())
	if !errors.Is(err, correspondence.ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}

func mustAssign(t *testing.T, sys correspondence.System, id uuid.UUID, owner string) {
	t.Helper()

	_, err := sys.Assign(context.Background(), id, correspondence.AssignCommand{
		ActionCommand: correspondence.ActionCommand{Actor: "coordinator"},
		Owner:         owner,
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
}
