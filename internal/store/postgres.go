package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/pkg/formatting"
	"github.com/oficiohq/oficio/pkg/query"
	"github.com/oficiohq/oficio/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "correspondence", "c").
	Project("id", "ID").
	Project("subject", "Subject").
	Project("sender", "Sender").
	Project("entity", "Entity").
	Project("request_type", "RequestType").
	ProjectNullable("entity_id", "EntityID").
	ProjectNullable("request_type_id", "RequestTypeID").
	ProjectNullable("account_id", "AccountID").
	Project("received_at", "ReceivedAt").
	ProjectNullable("responded_at", "RespondedAt").
	Project("stage", "Stage").
	ProjectNullable("assigned_to", "AssignedTo").
	ProjectNullable("external_ref_entry", "ExternalRefEntry").
	ProjectNullable("external_ref_exit", "ExternalRefExit").
	Project("sla_days", "SlaDays").
	Project("version", "Version")

var transitionColumns = "record_id, from_stage, to_stage, actor, occurred_at, note"

// Postgres is the production correspondence store. Free-text search matches
// through the unaccent extension so folding agrees with the other backends.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a postgres-backed correspondence store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Create(ctx context.Context, rec *correspondence.Record) error {
	q := `
		INSERT INTO correspondence(
			id, subject, sender, entity, request_type,
			entity_id, request_type_id, account_id,
			received_at, responded_at, stage, assigned_to,
			external_ref_entry, external_ref_exit, sla_days, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := p.db.ExecContext(ctx, q,
		rec.ID, rec.Subject, rec.Sender, rec.Entity, rec.RequestType,
		rec.EntityID, rec.RequestTypeID, rec.AccountID,
		rec.ReceivedAt, rec.RespondedAt, rec.Stage, rec.AssignedTo,
		rec.ExternalRefEntry, rec.ExternalRefExit, rec.SlaDays, rec.Version,
	)
	if err != nil {
		return repository.MapError(err, correspondence.ErrNotFound, correspondence.ErrConflict)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (*correspondence.Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, p.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, correspondence.ErrNotFound, correspondence.ErrConflict)
	}
	return &rec, nil
}

// Save updates the record guarded by its version and appends the audit
// entry in the same transaction. A version miss distinguishes a missing
// record from a concurrent update by re-checking existence.
func (p *Postgres) Save(
	ctx context.Context,
	rec *correspondence.Record,
	expectedVersion int64,
	entry *correspondence.StageTransition,
) error {
	updateSQL := `
		UPDATE correspondence
		SET responded_at = $1, stage = $2, assigned_to = $3,
			external_ref_exit = $4, version = $5
		WHERE id = $6 AND version = $7`

	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, updateSQL,
			rec.RespondedAt, rec.Stage, rec.AssignedTo,
			rec.ExternalRefExit, rec.Version,
			rec.ID, expectedVersion,
		)
		if err != nil {
			return struct{}{}, err
		}

		if entry != nil {
			insertSQL := fmt.Sprintf(
				"INSERT INTO stage_transitions(%s) VALUES ($1, $2, $3, $4, $5, $6)",
				transitionColumns,
			)
			if _, err := tx.ExecContext(ctx, insertSQL,
				entry.RecordID, entry.FromStage, entry.ToStage,
				entry.Actor, entry.OccurredAt, entry.Note,
			); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})

	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return repository.MapError(err, correspondence.ErrNotFound, correspondence.ErrConflict)
	}

	if _, loadErr := p.Load(ctx, rec.ID); loadErr != nil {
		return loadErr
	}
	return correspondence.ErrConflict
}

func (p *Postgres) Query(ctx context.Context, q correspondence.Query) ([]correspondence.Record, int, error) {
	qb := buildQuery(q)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count correspondence: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(q.Offset, q.Limit)
	recs, err := repository.QueryMany(ctx, p.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, 0, fmt.Errorf("query correspondence: %w", err)
	}

	return recs, total, nil
}

func buildQuery(q correspondence.Query) *query.Builder {
	qb := query.NewBuilder(projection)

	if q.Term != "" {
		folded := formatting.Fold(q.Term)
		qb.WhereFoldedSearch(&folded, "Subject", "Sender", "ExternalRefEntry", "ExternalRefExit")
	}

	var stage *string
	if q.Stage != nil {
		s := string(*q.Stage)
		stage = &s
	}

	qb.
		WhereEquals("Stage", stage).
		WhereEquals("EntityID", q.EntityID).
		WhereEquals("RequestTypeID", q.RequestTypeID).
		WhereEquals("AccountID", q.AccountID).
		WhereGte("ReceivedAt", q.ReceivedFrom).
		WhereLte("ReceivedAt", q.ReceivedTo).
		WhereGte("RespondedAt", q.RespondedFrom).
		WhereLte("RespondedAt", q.RespondedTo)

	if len(q.Sort) > 0 {
		qb.OrderByFields(q.Sort)
	}

	return qb
}

func (p *Postgres) History(ctx context.Context, id uuid.UUID) ([]correspondence.StageTransition, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM stage_transitions WHERE record_id = $1 ORDER BY occurred_at, seq",
		transitionColumns,
	)
	return repository.QueryMany(ctx, p.db, q, []any{id}, scanTransition)
}

func (p *Postgres) Overdue(ctx context.Context, asOf time.Time, limit int) ([]correspondence.Record, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM public.correspondence c
		WHERE c.stage IN ('received', 'assigned', 'drafting', 'in_review', 'approval')
			AND c.received_at + make_interval(days => c.sla_days) < $1
		ORDER BY c.received_at, c.id
		LIMIT $2`,
		projection.Columns(),
	)
	return repository.QueryMany(ctx, p.db, q, []any{asOf, limit}, scanRecord)
}

func scanRecord(s repository.Scanner) (correspondence.Record, error) {
	var rec correspondence.Record
	err := s.Scan(
		&rec.ID,
		&rec.Subject,
		&rec.Sender,
		&rec.Entity,
		&rec.RequestType,
		&rec.EntityID,
		&rec.RequestTypeID,
		&rec.AccountID,
		&rec.ReceivedAt,
		&rec.RespondedAt,
		&rec.Stage,
		&rec.AssignedTo,
		&rec.ExternalRefEntry,
		&rec.ExternalRefExit,
		&rec.SlaDays,
		&rec.Version,
	)
	return rec, err
}

func scanTransition(s repository.Scanner) (correspondence.StageTransition, error) {
	var t correspondence.StageTransition
	err := s.Scan(
		&t.RecordID,
		&t.FromStage,
		&t.ToStage,
		&t.Actor,
		&t.OccurredAt,
		&t.Note,
	)
	return t, err
}
