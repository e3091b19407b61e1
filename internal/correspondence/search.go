package correspondence

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oficiohq/oficio/pkg/pagination"
	"github.com/oficiohq/oficio/pkg/query"
)

// Sort directions accepted by SearchQuery.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Default sort for list views: newest first.
const (
	DefaultSortBy  = "receivedAt"
	DefaultSortDir = SortDesc
)

// sortFields maps external sortBy names onto store field names. Anything
// outside this map is an invalid query, never silently replaced.
var sortFields = map[string]string{
	"receivedAt":  "ReceivedAt",
	"respondedAt": "RespondedAt",
	"subject":     "Subject",
	"sender":      "Sender",
	"stage":       "Stage",
	"slaDays":     "SlaDays",
}

// SearchQuery is the external search contract shared by the list endpoint
// and POST /search. All filters are optional and AND-combined; date ranges
// are inclusive. Pages are zero-based.
type SearchQuery struct {
	Term          string     `json:"term,omitempty"`
	Stage         *Stage     `json:"stage,omitempty"`
	EntityID      *uuid.UUID `json:"entityId,omitempty"`
	RequestTypeID *uuid.UUID `json:"requestTypeId,omitempty"`
	AccountID     *uuid.UUID `json:"accountId,omitempty"`
	ReceivedFrom  *time.Time `json:"receivedFrom,omitempty"`
	ReceivedTo    *time.Time `json:"receivedTo,omitempty"`
	RespondedFrom *time.Time `json:"respondedFrom,omitempty"`
	RespondedTo   *time.Time `json:"respondedTo,omitempty"`
	Page          int        `json:"page"`
	Size          int        `json:"size,omitempty"`
	SortBy        string     `json:"sortBy,omitempty"`
	SortDir       string     `json:"sortDir,omitempty"`
}

// ApplyDefaults fills unset paging and sorting fields. Explicit values are
// left alone, including invalid ones; Validate rejects those.
func (q *SearchQuery) ApplyDefaults(cfg pagination.Config) {
	pr := pagination.PageRequest{Page: q.Page, Size: q.Size}
	pr.ApplyDefaults(cfg)
	q.Size = pr.Size

	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortDir == "" {
		q.SortDir = DefaultSortDir
	}
}

// Validate rejects malformed queries with ErrInvalidQuery. No field is ever
// corrected: out-of-range pages, unknown sort fields, and inverted date
// ranges all fail.
func (q SearchQuery) Validate(cfg pagination.Config) error {
	pr := pagination.PageRequest{Page: q.Page, Size: q.Size}
	if err := pr.Validate(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	if _, ok := sortFields[q.SortBy]; !ok {
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, q.SortBy)
	}
	if q.SortDir != SortAsc && q.SortDir != SortDesc {
		return fmt.Errorf("%w: sort direction must be %q or %q", ErrInvalidQuery, SortAsc, SortDesc)
	}

	if err := validRange("received", q.ReceivedFrom, q.ReceivedTo); err != nil {
		return err
	}
	return validRange("responded", q.RespondedFrom, q.RespondedTo)
}

func validRange(name string, from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: %s range start is after its end", ErrInvalidQuery, name)
	}
	return nil
}

// Translate converts a validated query into the store form. The sort always
// carries an id ascending tie-break so paging is stable across requests.
func (q SearchQuery) Translate() Query {
	sort := []query.SortField{
		{Field: sortFields[q.SortBy], Descending: q.SortDir == SortDesc},
		{Field: "ID"},
	}

	return Query{
		Term:          q.Term,
		Stage:         q.Stage,
		EntityID:      q.EntityID,
		RequestTypeID: q.RequestTypeID,
		AccountID:     q.AccountID,
		ReceivedFrom:  q.ReceivedFrom,
		ReceivedTo:    q.ReceivedTo,
		RespondedFrom: q.RespondedFrom,
		RespondedTo:   q.RespondedTo,
		Sort:          sort,
		Offset:        q.Page * q.Size,
		Limit:         q.Size,
	}
}

// ParseSearchQuery builds a SearchQuery from URL query parameters, for the
// GET list endpoint. Unparseable values fail with ErrInvalidQuery; defaults
// are not applied here.
func ParseSearchQuery(values url.Values) (SearchQuery, error) {
	q := SearchQuery{
		Term:    values.Get("term"),
		SortBy:  values.Get("sortBy"),
		SortDir: values.Get("sortDir"),
	}

	if raw := values.Get("stage"); raw != "" {
		stage, err := ParseStage(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		q.Stage = &stage
	}

	ids := []struct {
		name string
		dst  **uuid.UUID
	}{
		{"entityId", &q.EntityID},
		{"requestTypeId", &q.RequestTypeID},
		{"accountId", &q.AccountID},
	}
	for _, f := range ids {
		if raw := values.Get(f.name); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return q, fmt.Errorf("%w: %s is not a valid uuid", ErrInvalidQuery, f.name)
			}
			*f.dst = &id
		}
	}

	times := []struct {
		name string
		dst  **time.Time
	}{
		{"receivedFrom", &q.ReceivedFrom},
		{"receivedTo", &q.ReceivedTo},
		{"respondedFrom", &q.RespondedFrom},
		{"respondedTo", &q.RespondedTo},
	}
	for _, f := range times {
		if raw := values.Get(f.name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return q, fmt.Errorf("%w: %s must be RFC 3339", ErrInvalidQuery, f.name)
			}
			*f.dst = &t
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"page", &q.Page},
		{"size", &q.Size},
	}
	for _, f := range ints {
		if raw := values.Get(f.name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return q, fmt.Errorf("%w: %s must be an integer", ErrInvalidQuery, f.name)
			}
			*f.dst = n
		}
	}

	return q, nil
}
