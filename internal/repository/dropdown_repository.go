package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// DropdownRepository reads and loads the dropdown mapping table.
type DropdownRepository interface {
	ListValues(ctx context.Context, category domain.DropdownCategory) ([]string, error)
	ReplaceAll(ctx context.Context, items []domain.DropdownItem) (int64, error)
}

type dropdownRepository struct {
	pool *pgxpool.Pool
}

// NewDropdownRepository instantiates the repository.
func NewDropdownRepository(pool *pgxpool.Pool) DropdownRepository {
	return &dropdownRepository{pool: pool}
}

// ListValues returns raw values in sheet order; callers de-duplicate.
func (r *dropdownRepository) ListValues(ctx context.Context, category domain.DropdownCategory) ([]string, error) {
	const query = `
        SELECT item_value
        FROM dropdown_mappings
        WHERE UPPER(TRIM(category)) = $1 AND item_value IS NOT NULL
        ORDER BY sort_order ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *dropdownRepository) ReplaceAll(ctx context.Context, items []domain.DropdownItem) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM dropdown_mappings`); err != nil {
		return 0, err
	}
	rows := make([][]any, 0, len(items))
	for i, item := range items {
		rows = append(rows, []any{string(item.Category), item.Value, i})
	}
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"dropdown_mappings"},
		[]string{"category", "item_value", "sort_order"},
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
