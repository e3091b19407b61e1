package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/pkg/formatting"
)

// Memory is an in-process correspondence store. It keeps records and their
// transition log under one mutex so the version check, the record update,
// and the audit append are atomic together.
type Memory struct {
	mu          sync.RWMutex
	records     map[uuid.UUID]correspondence.Record
	transitions map[uuid.UUID][]correspondence.StageTransition
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records:     make(map[uuid.UUID]correspondence.Record),
		transitions: make(map[uuid.UUID][]correspondence.StageTransition),
	}
}

func (m *Memory) Create(_ context.Context, rec *correspondence.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; ok {
		return fmt.Errorf("record %s already exists", rec.ID)
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *Memory) Load(_ context.Context, id uuid.UUID) (*correspondence.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, correspondence.ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) Save(
	_ context.Context,
	rec *correspondence.Record,
	expectedVersion int64,
	entry *correspondence.StageTransition,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[rec.ID]
	if !ok {
		return correspondence.ErrNotFound
	}
	if current.Version != expectedVersion {
		return correspondence.ErrConflict
	}

	m.records[rec.ID] = *rec
	if entry != nil {
		m.transitions[rec.ID] = append(m.transitions[rec.ID], *entry)
	}
	return nil
}

func (m *Memory) Query(_ context.Context, q correspondence.Query) ([]correspondence.Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]correspondence.Record, 0)
	for _, rec := range m.records {
		if matchRecord(rec, q) {
			matches = append(matches, rec)
		}
	}

	sortRecords(matches, q)
	total := len(matches)

	if q.Offset >= total {
		return []correspondence.Record{}, total, nil
	}
	end := min(q.Offset+q.Limit, total)
	return slices.Clone(matches[q.Offset:end]), total, nil
}

func (m *Memory) History(_ context.Context, id uuid.UUID) ([]correspondence.StageTransition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.transitions[id]), nil
}

func (m *Memory) Overdue(_ context.Context, asOf time.Time, limit int) ([]correspondence.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overdue := make([]correspondence.Record, 0)
	for _, rec := range m.records {
		if correspondence.IsOverdue(rec.Stage, rec.ReceivedAt, rec.SlaDays, asOf) {
			overdue = append(overdue, rec)
		}
	}

	slices.SortFunc(overdue, func(a, b correspondence.Record) int {
		if c := a.ReceivedAt.Compare(b.ReceivedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	if limit > 0 && len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

func matchRecord(rec correspondence.Record, q correspondence.Query) bool {
	if q.Term != "" && !matchTerm(rec, q.Term) {
		return false
	}
	if q.Stage != nil && rec.Stage != *q.Stage {
		return false
	}
	if !matchID(rec.EntityID, q.EntityID) ||
		!matchID(rec.RequestTypeID, q.RequestTypeID) ||
		!matchID(rec.AccountID, q.AccountID) {
		return false
	}
	if q.ReceivedFrom != nil && rec.ReceivedAt.Before(*q.ReceivedFrom) {
		return false
	}
	if q.ReceivedTo != nil && rec.ReceivedAt.After(*q.ReceivedTo) {
		return false
	}
	if q.RespondedFrom != nil && (rec.RespondedAt == nil || rec.RespondedAt.Before(*q.RespondedFrom)) {
		return false
	}
	if q.RespondedTo != nil && (rec.RespondedAt == nil || rec.RespondedAt.After(*q.RespondedTo)) {
		return false
	}
	return true
}

// matchTerm folds case and diacritics on both sides, so "alcaldía" and
// "alcaldia" match each other in subject, sender, and both tracking refs.
func matchTerm(rec correspondence.Record, term string) bool {
	if formatting.FoldContains(rec.Subject, term) ||
		formatting.FoldContains(rec.Sender, term) {
		return true
	}
	if rec.ExternalRefEntry != nil && formatting.FoldContains(*rec.ExternalRefEntry, term) {
		return true
	}
	if rec.ExternalRefExit != nil && formatting.FoldContains(*rec.ExternalRefExit, term) {
		return true
	}
	return false
}

func matchID(have *uuid.UUID, want *uuid.UUID) bool {
	if want == nil {
		return true
	}
	return have != nil && *have == *want
}

func sortRecords(recs []correspondence.Record, q correspondence.Query) {
	slices.SortFunc(recs, func(a, b correspondence.Record) int {
		for _, f := range q.Sort {
			c := compareField(a, b, f.Field)
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareField(a, b correspondence.Record, field string) int {
	switch field {
	case "ReceivedAt":
		return a.ReceivedAt.Compare(b.ReceivedAt)
	case "RespondedAt":
		return compareTimePtr(a.RespondedAt, b.RespondedAt)
	case "Subject":
		return strings.Compare(formatting.Fold(a.Subject), formatting.Fold(b.Subject))
	case "Sender":
		return strings.Compare(formatting.Fold(a.Sender), formatting.Fold(b.Sender))
	case "Stage":
		return strings.Compare(string(a.Stage), string(b.Stage))
	case "SlaDays":
		return a.SlaDays - b.SlaDays
	case "ID":
		return strings.Compare(a.ID.String(), b.ID.String())
	}
	return 0
}

// compareTimePtr orders unanswered records before answered ones, matching
// SQL NULLS FIRST on an ascending sort.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
