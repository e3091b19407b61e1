package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/pkg/formatting"
	"github.com/oficiohq/oficio/pkg/query"
	"github.com/oficiohq/oficio/pkg/repository"
)

// SQLite is the local/dev correspondence store. Accent-insensitive search
// works through folded shadow columns maintained on every write, since
// sqlite has no unaccent.
type SQLite struct {
	db *sql.DB
}

// NewSQLite initializes the schema on the given connection and returns the
// store.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS correspondence (
		id                 TEXT PRIMARY KEY,
		subject            TEXT NOT NULL,
		sender             TEXT NOT NULL,
		entity             TEXT NOT NULL DEFAULT '',
		request_type       TEXT NOT NULL DEFAULT '',
		entity_id          TEXT,
		request_type_id    TEXT,
		account_id         TEXT,
		received_at        TEXT NOT NULL,
		responded_at       TEXT,
		stage              TEXT NOT NULL,
		assigned_to        TEXT,
		external_ref_entry TEXT,
		external_ref_exit  TEXT,
		sla_days           INTEGER NOT NULL,
		version            INTEGER NOT NULL,
		subject_folded     TEXT NOT NULL DEFAULT '',
		sender_folded      TEXT NOT NULL DEFAULT '',
		ref_entry_folded   TEXT,
		ref_exit_folded    TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_correspondence_stage ON correspondence(stage);
	CREATE INDEX IF NOT EXISTS idx_correspondence_received ON correspondence(received_at);

	CREATE TABLE IF NOT EXISTS stage_transitions (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id   TEXT NOT NULL REFERENCES correspondence(id),
		from_stage  TEXT NOT NULL,
		to_stage    TEXT NOT NULL,
		actor       TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		note        TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_record ON stage_transitions(record_id, seq);

	CREATE TABLE IF NOT EXISTS entities (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		category   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS request_types (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		sla_days   INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`

	_, err := s.db.Exec(schema)
	return err
}

// sqliteTimeLayout is fixed width so stored timestamps order correctly
// under plain string comparison and stay parseable by datetime().
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

func fmtTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const recordColumns = `id, subject, sender, entity, request_type,
	entity_id, request_type_id, account_id,
	received_at, responded_at, stage, assigned_to,
	external_ref_entry, external_ref_exit, sla_days, version`

func (s *SQLite) Create(ctx context.Context, rec *correspondence.Record) error {
	q := fmt.Sprintf(`
		INSERT INTO correspondence(%s, subject_folded, sender_folded, ref_entry_folded, ref_exit_folded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordColumns,
	)

	_, err := s.db.ExecContext(ctx, q,
		rec.ID.String(), rec.Subject, rec.Sender, rec.Entity, rec.RequestType,
		uuidPtr(rec.EntityID), uuidPtr(rec.RequestTypeID), uuidPtr(rec.AccountID),
		fmtTime(rec.ReceivedAt), fmtTimePtr(rec.RespondedAt), string(rec.Stage), rec.AssignedTo,
		rec.ExternalRefEntry, rec.ExternalRefExit, rec.SlaDays, rec.Version,
		formatting.Fold(rec.Subject), formatting.Fold(rec.Sender),
		foldPtr(rec.ExternalRefEntry), foldPtr(rec.ExternalRefExit),
	)
	return err
}

func (s *SQLite) Load(ctx context.Context, id uuid.UUID) (*correspondence.Record, error) {
	q := fmt.Sprintf("SELECT %s FROM correspondence WHERE id = ?", recordColumns)

	rec, err := repository.QueryOne(ctx, s.db, q, []any{id.String()}, scanSQLiteRecord)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, correspondence.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *SQLite) Save(
	ctx context.Context,
	rec *correspondence.Record,
	expectedVersion int64,
	entry *correspondence.StageTransition,
) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, `
			UPDATE correspondence
			SET responded_at = ?, stage = ?, assigned_to = ?,
				external_ref_exit = ?, ref_exit_folded = ?, version = ?
			WHERE id = ? AND version = ?`,
			fmtTimePtr(rec.RespondedAt), string(rec.Stage), rec.AssignedTo,
			rec.ExternalRefExit, foldPtr(rec.ExternalRefExit), rec.Version,
			rec.ID.String(), expectedVersion,
		)
		if err != nil {
			return struct{}{}, err
		}

		if entry != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO stage_transitions(record_id, from_stage, to_stage, actor, occurred_at, note)
				VALUES (?, ?, ?, ?, ?, ?)`,
				entry.RecordID.String(), string(entry.FromStage), string(entry.ToStage),
				entry.Actor, fmtTime(entry.OccurredAt), entry.Note,
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
		return err
	}

	if _, loadErr := s.Load(ctx, rec.ID); loadErr != nil {
		return loadErr
	}
	return correspondence.ErrConflict
}

func (s *SQLite) Query(ctx context.Context, q correspondence.Query) ([]correspondence.Record, int, error) {
	where, args := buildSQLiteWhere(q)

	var total int
	countSQL := "SELECT COUNT(*) FROM correspondence" + where
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count correspondence: %w", err)
	}

	pageSQL := fmt.Sprintf(
		"SELECT %s FROM correspondence%s%s LIMIT %d OFFSET %d",
		recordColumns, where, buildSQLiteOrderBy(q.Sort), q.Limit, q.Offset,
	)
	recs, err := repository.QueryMany(ctx, s.db, pageSQL, args, scanSQLiteRecord)
	if err != nil {
		return nil, 0, fmt.Errorf("query correspondence: %w", err)
	}

	return recs, total, nil
}

func (s *SQLite) History(ctx context.Context, id uuid.UUID) ([]correspondence.StageTransition, error) {
	q := `
		SELECT record_id, from_stage, to_stage, actor, occurred_at, note
		FROM stage_transitions WHERE record_id = ? ORDER BY seq`
	return repository.QueryMany(ctx, s.db, q, []any{id.String()}, scanSQLiteTransition)
}

func (s *SQLite) Overdue(ctx context.Context, asOf time.Time, limit int) ([]correspondence.Record, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM correspondence
		WHERE stage IN ('received', 'assigned', 'drafting', 'in_review', 'approval')
			AND datetime(received_at, '+' || sla_days || ' days') < datetime(?)
		ORDER BY received_at, id
		LIMIT ?`,
		recordColumns,
	)
	return repository.QueryMany(ctx, s.db, q, []any{fmtTime(asOf), limit}, scanSQLiteRecord)
}

// sqliteSortColumns maps store sort field names onto sqlite columns. Text
// fields sort by their folded shadows so ordering ignores accents.
var sqliteSortColumns = map[string]string{
	"ReceivedAt":  "received_at",
	"RespondedAt": "responded_at",
	"Subject":     "subject_folded",
	"Sender":      "sender_folded",
	"Stage":       "stage",
	"SlaDays":     "sla_days",
	"ID":          "id",
}

func buildSQLiteWhere(q correspondence.Query) (string, []any) {
	clauses := make([]string, 0)
	args := make([]any, 0)

	if q.Term != "" {
		pattern := "%" + formatting.Fold(q.Term) + "%"
		clauses = append(clauses,
			"(subject_folded LIKE ? OR sender_folded LIKE ? OR ref_entry_folded LIKE ? OR ref_exit_folded LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if q.Stage != nil {
		clauses = append(clauses, "stage = ?")
		args = append(args, string(*q.Stage))
	}
	if q.EntityID != nil {
		clauses = append(clauses, "entity_id = ?")
		args = append(args, q.EntityID.String())
	}
	if q.RequestTypeID != nil {
		clauses = append(clauses, "request_type_id = ?")
		args = append(args, q.RequestTypeID.String())
	}
	if q.AccountID != nil {
		clauses = append(clauses, "account_id = ?")
		args = append(args, q.AccountID.String())
	}
	if q.ReceivedFrom != nil {
		clauses = append(clauses, "received_at >= ?")
		args = append(args, fmtTime(*q.ReceivedFrom))
	}
	if q.ReceivedTo != nil {
		clauses = append(clauses, "received_at <= ?")
		args = append(args, fmtTime(*q.ReceivedTo))
	}
	if q.RespondedFrom != nil {
		clauses = append(clauses, "responded_at >= ?")
		args = append(args, fmtTime(*q.RespondedFrom))
	}
	if q.RespondedTo != nil {
		clauses = append(clauses, "responded_at <= ?")
		args = append(args, fmtTime(*q.RespondedTo))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func buildSQLiteOrderBy(sort []query.SortField) string {
	if len(sort) == 0 {
		return ""
	}

	parts := make([]string, 0, len(sort))
	for _, f := range sort {
		col, ok := sqliteSortColumns[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func scanSQLiteRecord(sc repository.Scanner) (correspondence.Record, error) {
	var rec correspondence.Record
	var id, stage, received string
	var responded sql.NullString
	var entityID, requestTypeID, account sql.NullString

	err := sc.Scan(
		&id, &rec.Subject, &rec.Sender, &rec.Entity, &rec.RequestType,
		&entityID, &requestTypeID, &account,
		&received, &responded, &stage, &rec.AssignedTo,
		&rec.ExternalRefEntry, &rec.ExternalRefExit, &rec.SlaDays, &rec.Version,
	)
	if err != nil {
		return rec, err
	}

	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return rec, err
	}
	rec.Stage = correspondence.Stage(stage)

	if rec.ReceivedAt, err = parseTime(received); err != nil {
		return rec, err
	}
	if rec.RespondedAt, err = parseTimePtr(responded); err != nil {
		return rec, err
	}

	if rec.EntityID, err = parseNullUUID(entityID); err != nil {
		return rec, err
	}
	if rec.RequestTypeID, err = parseNullUUID(requestTypeID); err != nil {
		return rec, err
	}
	if rec.AccountID, err = parseNullUUID(account); err != nil {
		return rec, err
	}
	return rec, nil
}

func scanSQLiteTransition(sc repository.Scanner) (correspondence.StageTransition, error) {
	var t correspondence.StageTransition
	var id, from, to, occurred string

	err := sc.Scan(&id, &from, &to, &t.Actor, &occurred, &t.Note)
	if err != nil {
		return t, err
	}

	t.RecordID, err = uuid.Parse(id)
	if err != nil {
		return t, err
	}
	t.FromStage = correspondence.Stage(from)
	t.ToStage = correspondence.Stage(to)

	if t.OccurredAt, err = parseTime(occurred); err != nil {
		return t, err
	}
	return t, nil
}

func uuidPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func foldPtr(s *string) *string {
	if s == nil {
		return nil
	}
	folded := formatting.Fold(*s)
	return &folded
}

func parseNullUUID(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
