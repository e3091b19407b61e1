package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/clock"
	"github.com/oficiohq/oficio/pkg/database"
	"github.com/oficiohq/oficio/pkg/query"
	"github.com/oficiohq/oficio/pkg/repository"
)

type repo struct {
	db               *sql.DB
	clock            clock.Clock
	logger           *slog.Logger
	entities         *query.ProjectionMap
	requestTypes     *query.ProjectionMap
	entityTable      string
	requestTypeTable string
}

// New creates a catalog repository implementing the System interface.
func New(db *sql.DB, driver string, clk clock.Clock, logger *slog.Logger) System {
	schema := "public"
	if driver == database.DriverSQLite {
		schema = ""
	}

	qualify := func(table string) string {
		if schema == "" {
			return table
		}
		return schema + "." + table
	}

	return &repo{
		db:               db,
		clock:            clk,
		logger:           logger.With("system", "catalog"),
		entities:         newEntityProjection(schema),
		requestTypes:     newRequestTypeProjection(schema),
		entityTable:      qualify("entities"),
		requestTypeTable: qualify("request_types"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) ListEntities(ctx context.Context) ([]Entity, error) {
	q, args := query.NewBuilder(r.entities, nameSort).Build()

	entities, err := repository.QueryMany(ctx, r.db, q, args, scanEntity)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	return entities, nil
}

func (r *repo) FindEntity(ctx context.Context, id uuid.UUID) (*Entity, error) {
	q, args := query.NewBuilder(r.entities).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntity)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) CreateEntity(ctx context.Context, cmd CreateEntityCommand) (*Entity, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	e := Entity{
		ID:        uuid.New(),
		Name:      cmd.Name,
		Category:  cmd.Category,
		CreatedAt: r.clock.Now(),
	}

	q := fmt.Sprintf(
		"INSERT INTO %s(id, name, category, created_at) VALUES ($1, $2, $3, $4)",
		r.entityTable,
	)
	if _, err := r.db.ExecContext(ctx, q, e.ID, e.Name, e.Category, e.CreatedAt); err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("entity created", "id", e.ID, "name", e.Name)
	return &e, nil
}

func (r *repo) ListRequestTypes(ctx context.Context) ([]RequestType, error) {
	q, args := query.NewBuilder(r.requestTypes, nameSort).Build()

	types, err := repository.QueryMany(ctx, r.db, q, args, scanRequestType)
	if err != nil {
		return nil, fmt.Errorf("query request types: %w", err)
	}
	return types, nil
}

func (r *repo) FindRequestType(ctx context.Context, id uuid.UUID) (*RequestType, error) {
	q, args := query.NewBuilder(r.requestTypes).BuildSingle("ID", id)

	rt, err := repository.QueryOne(ctx, r.db, q, args, scanRequestType)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rt, nil
}

func (r *repo) CreateRequestType(ctx context.Context, cmd CreateRequestTypeCommand) (*RequestType, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if cmd.SlaDays <= 0 {
		return nil, fmt.Errorf("%w: slaDays must be positive", ErrValidation)
	}

	rt := RequestType{
		ID:        uuid.New(),
		Name:      cmd.Name,
		SlaDays:   cmd.SlaDays,
		CreatedAt: r.clock.Now(),
	}

	q := fmt.Sprintf(
		"INSERT INTO %s(id, name, sla_days, created_at) VALUES ($1, $2, $3, $4)",
		r.requestTypeTable,
	)
	if _, err := r.db.ExecContext(ctx, q, rt.ID, rt.Name, rt.SlaDays, rt.CreatedAt); err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("request type created", "id", rt.ID, "name", rt.Name, "slaDays", rt.SlaDays)
	return &rt, nil
}

// DeadlineDays resolves the deadline for a linked request type. Unknown
// ids resolve to zero so callers can fall back to their default policy.
func (r *repo) DeadlineDays(ctx context.Context, requestTypeID uuid.UUID) (int, error) {
	rt, err := r.FindRequestType(ctx, requestTypeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rt.SlaDays, nil
}
