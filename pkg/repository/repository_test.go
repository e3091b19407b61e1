package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oficiohq/oficio/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapErrorNil(t *testing.T) {
	got := repository.MapError(nil, errNotFound, errDuplicate)
	if got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapErrorNotFound(t *testing.T) {
	got := repository.MapError(sql.ErrNoRows, errNotFound, errDuplicate)
	if !errors.Is(got, errNotFound) {
		t.Errorf("MapError(ErrNoRows) = %v, want %v", got, errNotFound)
	}
}

func TestMapErrorDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	got := repository.MapError(pgErr, errNotFound, errDuplicate)
	if !errors.Is(got, errDuplicate) {
		t.Errorf("MapError(PgError 23505) = %v, want %v", got, errDuplicate)
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	original := errors.New("some other error")
	got := repository.MapError(original, errNotFound, errDuplicate)
	if got != original {
		t.Errorf("MapError(other) = %v, want %v", got, original)
	}
}

func TestMapErrorPgNonDuplicate(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	got := repository.MapError(pgErr, errNotFound, errDuplicate)
	if got != pgErr {
		t.Errorf("MapError(PgError 23503) should pass through, got %v", got)
	}
}

func scanPair(s repository.Scanner) (pair, error) {
	var p pair
	err := s.Scan(&p.id, &p.name)
	return p, err
}

type pair struct {
	id   int
	name string
}

func TestQueryMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM pairs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "a").
			AddRow(2, "b"))

	got, err := repository.QueryMany(context.Background(), db, "SELECT id, name FROM pairs", nil, scanPair)
	if err != nil {
		t.Fatalf("QueryMany error: %v", err)
	}
	if len(got) != 2 || got[0].name != "a" || got[1].id != 2 {
		t.Errorf("QueryMany = %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryManyEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM pairs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	got, err := repository.QueryMany(context.Background(), db, "SELECT id, name FROM pairs", nil, scanPair)
	if err != nil {
		t.Fatalf("QueryMany error: %v", err)
	}
	if got == nil {
		t.Fatal("QueryMany returned nil slice, want empty")
	}
	if len(got) != 0 {
		t.Errorf("length = %d, want 0", len(got))
	}
}

func TestWithTxCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE pairs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err = repository.WithTx(context.Background(), db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(context.Background(), tx, "UPDATE pairs SET name = $1", "x"); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("WithTx error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = repository.WithTx(context.Background(), db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecExpectOneNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE pairs").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repository.ExecExpectOne(context.Background(), db, "UPDATE pairs SET name = $1 WHERE id = $2", "x", 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("ExecExpectOne = %v, want sql.ErrNoRows", err)
	}
}
