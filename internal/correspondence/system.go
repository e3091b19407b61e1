package correspondence

import (
	"context"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/pagination"
)

// System defines the public contract for correspondence domain operations.
// Lifecycle commands return the updated record or a typed domain error;
// state never changes on failure.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Record, error)
	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Search(ctx context.Context, q SearchQuery) (*pagination.ResultPage[Record], error)
	Status(ctx context.Context, id uuid.UUID) (*Status, error)
	History(ctx context.Context, id uuid.UUID) ([]StageTransition, error)

	Assign(ctx context.Context, id uuid.UUID, cmd AssignCommand) (*Record, error)
	Reassign(ctx context.Context, id uuid.UUID, cmd AssignCommand) (*Record, error)
	StartDrafting(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error)
	SubmitForReview(ctx context.Context, id uuid.UUID, cmd SubmitCommand) (*Record, error)
	RequestChanges(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error)
	ApproveReview(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error)
	Reject(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error)
	FinalApprove(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error)
	MarkExpired(ctx context.Context, id uuid.UUID, actor string) (*Record, error)
	Archive(ctx context.Context, id uuid.UUID, cmd ActionCommand) (*Record, error)
}

// DeadlineSource resolves a deadline length for a linked request type id.
// The catalog domain satisfies this; a nil source falls back to the SLA
// policy's name-based lookup.
type DeadlineSource interface {
	DeadlineDays(ctx context.Context, requestTypeID uuid.UUID) (int, error)
}
