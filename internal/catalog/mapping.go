package catalog

import (
	"github.com/oficiohq/oficio/pkg/query"
	"github.com/oficiohq/oficio/pkg/repository"
)

// Projections are built per repository: postgres qualifies tables with the
// public schema, sqlite uses bare table names.

func newEntityProjection(schema string) *query.ProjectionMap {
	return query.
		NewProjectionMap(schema, "entities", "e").
		Project("id", "ID").
		Project("name", "Name").
		Project("category", "Category").
		Project("created_at", "CreatedAt")
}

func newRequestTypeProjection(schema string) *query.ProjectionMap {
	return query.
		NewProjectionMap(schema, "request_types", "rt").
		Project("id", "ID").
		Project("name", "Name").
		Project("sla_days", "SlaDays").
		Project("created_at", "CreatedAt")
}

var nameSort = query.SortField{Field: "Name"}

func scanEntity(s repository.Scanner) (Entity, error) {
	var e Entity
	err := s.Scan(&e.ID, &e.Name, &e.Category, &e.CreatedAt)
	return e, err
}

func scanRequestType(s repository.Scanner) (RequestType, error) {
	var rt RequestType
	err := s.Scan(&rt.ID, &rt.Name, &rt.SlaDays, &rt.CreatedAt)
	return rt, err
}
