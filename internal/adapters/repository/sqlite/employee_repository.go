package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
)

const timeLayout = time.RFC3339Nano

// EmployeeRepository は SQLite を利用した社員永続化の実装です。
type EmployeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO employees (name, email, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        RETURNING id, name, email, created_at, updated_at
    `, e.Name, e.Email, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))

	return scanEmployee(row)
}

// Delete は社員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, email, created_at, updated_at
          FROM employees
         WHERE id = ?
    `, id)
	return scanEmployee(row)
}

// List は社員の一覧を ID の昇順で取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, email, created_at, updated_at
          FROM employees
         ORDER BY id ASC
         LIMIT ? OFFSET ?
    `, limitWithBuffer, filter.Offset)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}
	return employees, nextToken, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*employee.Employee, error) {
	var (
		e                  employee.Employee
		createdAt, updated string
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	var err error
	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return &e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
