package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// EmployeeRepository reads and loads the employee mapping table.
type EmployeeRepository interface {
	FindByHRMSID(ctx context.Context, hrmsID string) (*domain.Employee, error)
	ReplaceAll(ctx context.Context, employees []domain.Employee) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

// FindByHRMSID matches on the trimmed, upper-cased stored ID. The table does not
// enforce uniqueness, so the earliest loaded row wins.
func (r *employeeRepository) FindByHRMSID(ctx context.Context, hrmsID string) (*domain.Employee, error) {
	const query = `
        SELECT UPPER(TRIM(hrms_id)), TRIM(employee_name)
        FROM employee_mapping
        WHERE UPPER(TRIM(hrms_id)) = $1
        ORDER BY id ASC
        LIMIT 1`

	var emp domain.Employee
	if err := r.pool.QueryRow(ctx, query, hrmsID).Scan(&emp.HRMSID, &emp.Name); err != nil {
		return nil, err
	}
	return &emp, nil
}

// ReplaceAll swaps the whole table for the given rows, the way a sheet upload does.
func (r *employeeRepository) ReplaceAll(ctx context.Context, employees []domain.Employee) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM employee_mapping`); err != nil {
		return 0, err
	}
	rows := make([][]any, 0, len(employees))
	for _, emp := range employees {
		rows = append(rows, []any{emp.HRMSID, emp.Name})
	}
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"employee_mapping"},
		[]string{"hrms_id", "employee_name"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return copied, nil
}

func (r *employeeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employee_mapping`).Scan(&n)
	return n, err
}
