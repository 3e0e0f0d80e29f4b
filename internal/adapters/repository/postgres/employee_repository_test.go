package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubEmployeeRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubEmployeeRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

func TestScanEmployee_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*60*60))

	row := stubEmployeeRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 5 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*int64)) = 7
		*(dest[1].(*string)) = "Alice"
		*(dest[2].(*string)) = "a@x.com"
		*(dest[3].(*time.Time)) = createdAt
		*(dest[4].(*time.Time)) = createdAt
		return nil
	}}

	emp, err := scanEmployee(row)
	if err != nil {
		t.Fatalf("scanEmployee returned error: %v", err)
	}
	if emp.ID != 7 || emp.Name != "Alice" || emp.Email != "a@x.com" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
	if emp.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps, got %v", emp.CreatedAt.Location())
	}
}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubEmployeeRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanEmployee(row)
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestTranslateEmployeePgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateEmployeePgError(pgx.ErrNoRows), employee.ErrEmployeeNotFound) {
		t.Fatalf("expected no rows to map to ErrEmployeeNotFound")
	}

	other := errors.New("other")
	if translateEmployeePgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestEmployeeRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO employees (name, email, created_at, updated_at)`)).
		WithArgs("Alice", "a@x.com", now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
			AddRow(int64(1), "Alice", "a@x.com", now, now))

	created, err := repo.Create(context.Background(), &employee.Employee{Name: "Alice", Email: "a@x.com", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_Delete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), 9); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM employees`)).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), 3); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_List_Paginates(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT id, name, email, created_at, updated_at
          FROM employees
         ORDER BY id ASC
         LIMIT $1
        OFFSET $2
    `)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
		AddRow(int64(1), "Alice", "a@x.com", now, now).
		AddRow(int64(2), "Bob", "b@x.com", now, now).
		AddRow(int64(3), "Carol", "c@x.com", now, now)

	mock.ExpectQuery(query).
		WithArgs(3, 0).
		WillReturnRows(rows)

	employees, nextToken, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_List_InvalidFilter(t *testing.T) {
	t.Parallel()

	repo := NewEmployeeRepository(nil)

	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 0}); !errors.Is(err, employee.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 1, Offset: -1}); !errors.Is(err, employee.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}
