package correspondence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/clock"
	"github.com/oficiohq/oficio/pkg/pagination"
)

type service struct {
	store      Store
	clock      clock.Clock
	policy     Policy
	deadlines  DeadlineSource
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the correspondence service implementing the System interface.
// deadlines may be nil; deadline resolution then uses the policy only.
func New(
	store Store,
	clk clock.Clock,
	policy Policy,
	deadlines DeadlineSource,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &service{
		store:      store,
		clock:      clk,
		policy:     policy,
		deadlines:  deadlines,
		logger:     logger.With("system", "correspondence"),
		pagination: pagination,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination).WithTracker(NewTracker(s.store))
}

func (s *service) Create(ctx context.Context, cmd CreateCommand) (*Record, error) {
	if strings.TrimSpace(cmd.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if strings.TrimSpace(cmd.Sender) == "" {
		return nil, fmt.Errorf("%w: sender is required", ErrValidation)
	}
	if cmd.SlaDays < 0 {
		return nil, fmt.Errorf("%w: slaDays must not be negative", ErrValidation)
	}

	slaDays, err := s.resolveDeadline(ctx, cmd)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:               uuid.New(),
		Subject:          cmd.Subject,
		Sender:           cmd.Sender,
		Entity:           cmd.Entity,
		RequestType:      cmd.RequestType,
		EntityID:         cmd.EntityID,
		RequestTypeID:    cmd.RequestTypeID,
		AccountID:        cmd.AccountID,
		ReceivedAt:       s.clock.Now(),
		Stage:            StageReceived,
		ExternalRefEntry: cmd.ExternalRefEntry,
		SlaDays:          slaDays,
		Version:          1,
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.logger.Info("record created", "id", rec.ID, "slaDays", rec.SlaDays)
	return rec, nil
}

// resolveDeadline picks the deadline length for a new record: an explicit
// value wins, then the linked catalog request type, then the policy lookup
// by request type name.
func (s *service) resolveDeadline(ctx context.Context, cmd CreateCommand) (int, error) {
	if cmd.SlaDays > 0 {
		return cmd.SlaDays, nil
	}
	if s.deadlines != nil && cmd.RequestTypeID != nil {
		days, err := s.deadlines.DeadlineDays(ctx, *cmd.RequestTypeID)
		if err != nil {
			return 0, fmt.Errorf("resolve deadline: %w", err)
		}
		if days > 0 {
			return days, nil
		}
	}
	return s.policy.DeadlineDays(cmd.RequestType), nil
}

func (s *service) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Load(ctx, id)
}

func (s *service) Search(ctx context.Context, q SearchQuery) (*pagination.ResultPage[Record], error) {
	q.ApplyDefaults(s.pagination)
	if err := q.Validate(s.pagination); err != nil {
		return nil, err
	}

	items, total, err := s.store.Query(ctx, q.Translate())
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	page := pagination.NewResultPage(items, total, q.Page, q.Size)
	return &page, nil
}

func (s *service) Status(ctx context.Context, id uuid.UUID) (*Status, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	status := s.policy.StatusOf(*rec, s.clock.Now())
	return &status, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]StageTransition, error) {
	if _, err := s.store.Load(ctx, id); err != nil {
		return nil, err
	}
	return s.store.History(ctx, id)
}

func (s *service) Assign(ctx context.Context, id uuid.UUID, cmd AssignCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	return s.transition(ctx, id, EventAssign, cmd.Actor, cmd.Note, func(rec *Record) error {
		rec.AssignedTo = &cmd.Owner
		return nil
	})
}

// Reassign changes the owner without changing the stage. It is permitted in
// any open stage that already has an owner and appends an audit entry with
// fromStage == toStage.
func (s *service) Reassign(ctx context.Context, id uuid.UUID, cmd AssignCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Stage.Open() {
		return nil, fmt.Errorf("%w: reassign from %s", ErrInvalidTransition, rec.Stage)
	}
	if rec.AssignedTo == nil {
		return nil, fmt.Errorf("%w: reassign before first assignment", ErrInvalidTransition)
	}

	expected := rec.Version
	rec.AssignedTo = &cmd.Owner
	rec.Version++

	entry := &StageTransition{
		RecordID:   rec.ID,
		FromStage:  rec.Stage,
		ToStage:    rec.Stage,
		Actor:      cmd.Actor,
		OccurredAt: s.clock.Now(),
		Note:       cmd.Note,
	}

	if err := s.store.Save(ctx, rec, expected, entry); err != nil {
		return nil, err
	}

	s.logger.Info("record reassigned", "id", rec.ID, "owner", cmd.Owner)
	return rec, nil
}

func (s *service) StartDrafting(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}

	return s.transition(ctx, id, EventStartDrafting, cmd.Actor, cmd.Note, func(rec *Record) error {
		if rec.AssignedTo == nil || *rec.AssignedTo != cmd.Actor {
			return fmt.Errorf("%w: only the current owner may start drafting", ErrValidation)
		}
		return nil
	})
}

func (s *service) SubmitForReview(ctx context.Context, id uuid.UUID, cmd SubmitCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.DraftRef) == "" {
		return nil, fmt.Errorf("%w: draft reference is required", ErrValidation)
	}

	return s.transition(ctx, id, EventSubmitForReview, cmd.Actor, cmd.Note, nil)
}

func (s *service) RequestChanges(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, EventRequestChanges, cmd.Actor, cmd.Note, nil)
}

func (s *service) ApproveReview(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, EventApproveReview, cmd.Actor, cmd.Note, nil)
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, EventReject, cmd.Actor, cmd.Note, nil)
}

func (s *service) FinalApprove(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}

	return s.transition(ctx, id, EventFinalApprove, cmd.Actor, cmd.Note, func(rec *Record) error {
		now := s.clock.Now()
		rec.RespondedAt = &now
		return nil
	})
}

// MarkExpired is system-driven: it requires the record to be overdue and is
// a no-op on records already closed, so sweep runs are idempotent.
func (s *service) MarkExpired(ctx context.Context, id uuid.UUID, actor string) (*Record, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Stage.Closed() {
		return rec, nil
	}

	now := s.clock.Now()
	if !IsOverdue(rec.Stage, rec.ReceivedAt, rec.SlaDays, now) {
		return nil, fmt.Errorf("%w: record is not overdue", ErrInvalidTransition)
	}

	return s.transition(ctx, id, EventMarkExpired, actor, nil, nil)
}

func (s *service) Archive(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, EventArchive, cmd.Actor, cmd.Note, nil)
}

// transition runs the load, guard, stage change, save sequence shared by
// every lifecycle command. mutate runs after the transition table admits
// the event but before the save; returning an error aborts with no state
// change.
func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	event Event,
	actor string,
	note *string,
	mutate func(*Record) error,
) (*Record, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := Next(rec.Stage, event)
	if err != nil {
		return nil, err
	}

	expected := rec.Version
	from := rec.Stage

	if mutate != nil {
		if err := mutate(rec); err != nil {
			return nil, err
		}
	}

	rec.Stage = next
	rec.Version++

	entry := &StageTransition{
		RecordID:   rec.ID,
		FromStage:  from,
		ToStage:    next,
		Actor:      actor,
		OccurredAt: s.clock.Now(),
		Note:       note,
	}

	if err := s.store.Save(ctx, rec, expected, entry); err != nil {
		return nil, err
	}

	s.logger.Info("stage transition",
		"id", rec.ID,
		"event", event,
		"from", from,
		"to", next,
	)
	return rec, nil
}

func validateActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor is required", ErrValidation)
	}
	return nil
}
