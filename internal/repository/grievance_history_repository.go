package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// GrievanceHistoryRepository stores audit entries.
type GrievanceHistoryRepository interface {
	Create(ctx context.Context, history *domain.GrievanceHistory) error
	ListByGrievance(ctx context.Context, grievanceID string) ([]domain.GrievanceHistory, error)
}

type grievanceHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewGrievanceHistoryRepository builds repository.
func NewGrievanceHistoryRepository(pool *pgxpool.Pool) GrievanceHistoryRepository {
	return &grievanceHistoryRepository{pool: pool}
}

func (r *grievanceHistoryRepository) Create(ctx context.Context, history *domain.GrievanceHistory) error {
	const query = `
        INSERT INTO grievance_history (id, grievance_id, changed_by_id, change_type, old_status, new_status, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		history.ID,
		history.GrievanceID,
		history.ChangedByID,
		history.ChangeType,
		history.OldStatus,
		history.NewStatus,
		history.Note,
	).Scan(&history.CreatedAt)
}

func (r *grievanceHistoryRepository) ListByGrievance(ctx context.Context, grievanceID string) ([]domain.GrievanceHistory, error) {
	const query = `
        SELECT id, grievance_id, changed_by_id, change_type, old_status, new_status, note, created_at
        FROM grievance_history WHERE grievance_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, grievanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.GrievanceHistory
	for rows.Next() {
		var history domain.GrievanceHistory
		if err := rows.Scan(
			&history.ID,
			&history.GrievanceID,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldStatus,
			&history.NewStatus,
			&history.Note,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
