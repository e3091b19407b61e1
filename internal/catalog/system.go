package catalog

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for catalog operations. DeadlineDays
// serves the correspondence domain when a new record links a request type.
type System interface {
	Handler() *Handler

	ListEntities(ctx context.Context) ([]Entity, error)
	FindEntity(ctx context.Context, id uuid.UUID) (*Entity, error)
	CreateEntity(ctx context.Context, cmd CreateEntityCommand) (*Entity, error)

	ListRequestTypes(ctx context.Context) ([]RequestType, error)
	FindRequestType(ctx context.Context, id uuid.UUID) (*RequestType, error)
	CreateRequestType(ctx context.Context, cmd CreateRequestTypeCommand) (*RequestType, error)

	DeadlineDays(ctx context.Context, requestTypeID uuid.UUID) (int, error)
}
