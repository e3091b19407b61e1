package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/oficiohq/oficio/internal/catalog"
	"github.com/oficiohq/oficio/pkg/clock"
	"github.com/oficiohq/oficio/pkg/database"
)

func newTestRepo(t *testing.T) (catalog.System, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFake(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC))
	return catalog.New(db, database.DriverPostgres, clk, logger), mock
}

func TestListRequestTypes(t *testing.T) {
	sys, mock := newTestRepo(t)

	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "sla_days", "created_at"}).
		AddRow(uuid.New(), "derecho_peticion", 15, created).
		AddRow(uuid.New(), "tutela", 10, created)

	mock.ExpectQuery("SELECT .+ FROM public.request_types rt ORDER BY rt.name ASC").
		WillReturnRows(rows)

	types, err := sys.ListRequestTypes(context.Background())
	if err != nil {
		t.Fatalf("ListRequestTypes() error = %v", err)
	}
	if len(types) != 2 || types[0].Name != "derecho_peticion" {
		t.Errorf("ListRequestTypes() = %+v, want both types in name order", types)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateRequestTypeValidation(t *testing.T) {
	sys, _ := newTestRepo(t)

	_, err := sys.CreateRequestType(context.Background(), catalog.CreateRequestTypeCommand{SlaDays: 10})
	if !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("CreateRequestType() without name error = %v, want ErrValidation", err)
	}

	_, err = sys.CreateRequestType(context.Background(), catalog.CreateRequestTypeCommand{Name: "queja"})
	if !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("CreateRequestType() without slaDays error = %v, want ErrValidation", err)
	}
}

func TestCreateEntity(t *testing.T) {
	sys, mock := newTestRepo(t)

	mock.ExpectExec("INSERT INTO public.entities").
		WillReturnResult(sqlmock.NewResult(1, 1))

	e, err := sys.CreateEntity(context.Background(), catalog.CreateEntityCommand{
		Name:     "Alcaldía Municipal",
		Category: "municipal",
	})
	if err != nil {
		t.Fatalf("CreateEntity() error = %v", err)
	}
	if e.ID == uuid.Nil || e.Name != "Alcaldía Municipal" {
		t.Errorf("CreateEntity() = %+v, want generated id and name kept", e)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeadlineDays(t *testing.T) {
	sys, mock := newTestRepo(t)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "name", "sla_days", "created_at"}).
		AddRow(id, "tutela", 10, time.Now())
	mock.ExpectQuery("SELECT .+ FROM public.request_types rt WHERE rt.id").
		WithArgs(id).
		WillReturnRows(rows)

	days, err := sys.DeadlineDays(context.Background(), id)
	if err != nil {
		t.Fatalf("DeadlineDays() error = %v", err)
	}
	if days != 10 {
		t.Errorf("DeadlineDays() = %d, want 10", days)
	}

	// Unknown ids resolve to zero so the caller can use its default.
	mock.ExpectQuery("SELECT .+ FROM public.request_types rt WHERE rt.id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sla_days", "created_at"}))

	days, err = sys.DeadlineDays(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("DeadlineDays() unknown error = %v", err)
	}
	if days != 0 {
		t.Errorf("DeadlineDays() unknown = %d, want 0", days)
	}
}
