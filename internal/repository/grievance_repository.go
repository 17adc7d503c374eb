package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// ErrStaleStatus is returned when a transition lost a race with another writer.
var ErrStaleStatus = errors.New("grievance status changed concurrently")

// Page sizes applied when a filter leaves Limit unset.
const (
	DefaultGrievanceLimit = 20
	DefaultStaffLimit     = 100
)

// GrievanceFilter captures dashboard search parameters.
type GrievanceFilter struct {
	HRMSID        *string
	AssignedTo    *string
	GrievanceType *string
	Statuses      []domain.GrievanceStatus
	SearchTerm    *string
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	Limit         int
	Offset        int
}

// GrievanceRepository encapsulates grievance persistence.
type GrievanceRepository interface {
	// CreateNext allocates the next Reference No. for g.HRMSID and inserts g.
	CreateNext(ctx context.Context, g *domain.Grievance) error
	// UpdateTransition persists g only if the stored status still equals expected.
	UpdateTransition(ctx context.Context, g *domain.Grievance, expected domain.GrievanceStatus) error
	GetByReference(ctx context.Context, referenceNo string) (*domain.Grievance, error)
	ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error)
	CountByStatus(ctx context.Context, filter GrievanceFilter) (map[domain.GrievanceStatus]int64, error)
}

type grievanceRepository struct {
	pool *pgxpool.Pool
}

// NewGrievanceRepository instantiates repository.
func NewGrievanceRepository(pool *pgxpool.Pool) GrievanceRepository {
	return &grievanceRepository{pool: pool}
}

const grievanceColumns = `id, reference_no, submitted_at, hrms_id, emp_name, emp_no, designation, trade, section,
               grievance_type, grievance_text, status, assigned_to, assigned_by, assigned_at, remark,
               resolution, resolved_by, resolved_at, updated_at`

func (r *grievanceRepository) CreateNext(ctx context.Context, g *domain.Grievance) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serializes allocation per employee; released at commit.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "grievance:"+g.HRMSID); err != nil {
		return err
	}

	var prior int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM grievances WHERE hrms_id=$1`, g.HRMSID).Scan(&prior); err != nil {
		return err
	}
	g.ReferenceNo = domain.NewReferenceNo(g.SubmittedAt, g.HRMSID, prior+1)

	const insert = `
        INSERT INTO grievances (id, reference_no, submitted_at, hrms_id, emp_name, emp_no, designation, trade,
                                section, grievance_type, grievance_text, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, insert,
		g.ID,
		g.ReferenceNo,
		g.SubmittedAt,
		g.HRMSID,
		g.EmployeeName,
		g.EmployeeNo,
		g.Designation,
		g.Trade,
		g.Section,
		g.GrievanceType,
		g.Text,
		g.Status,
	).Scan(&g.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *grievanceRepository) UpdateTransition(ctx context.Context, g *domain.Grievance, expected domain.GrievanceStatus) error {
	const query = `
        UPDATE grievances SET status=$1, assigned_to=$2, assigned_by=$3, assigned_at=$4, remark=$5,
            resolution=$6, resolved_by=$7, resolved_at=$8, updated_at=NOW()
        WHERE id=$9 AND status=$10
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		g.Status,
		g.AssignedTo,
		g.AssignedBy,
		g.AssignedAt,
		g.Remark,
		g.Resolution,
		g.ResolvedBy,
		g.ResolvedAt,
		g.ID,
		expected,
	).Scan(&g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStaleStatus
	}
	return err
}

func (r *grievanceRepository) GetByReference(ctx context.Context, referenceNo string) (*domain.Grievance, error) {
	query := `SELECT ` + grievanceColumns + ` FROM grievances WHERE reference_no=$1`
	rows, err := r.pool.Query(ctx, query, referenceNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result, err := scanGrievances(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &result[0], nil
}

func (r *grievanceRepository) ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error) {
	where, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultGrievanceLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE %s ORDER BY submitted_at DESC, reference_no DESC LIMIT %d OFFSET %d`,
		grievanceColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) CountByStatus(ctx context.Context, filter GrievanceFilter) (map[domain.GrievanceStatus]int64, error) {
	filter.Statuses = nil
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM grievances WHERE %s GROUP BY status`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.GrievanceStatus]int64, 3)
	for rows.Next() {
		var status domain.GrievanceStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func filterClauses(filter GrievanceFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.HRMSID != nil {
		args = append(args, *filter.HRMSID)
		clauses = append(clauses, fmt.Sprintf("hrms_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.GrievanceType != nil {
		args = append(args, *filter.GrievanceType)
		clauses = append(clauses, fmt.Sprintf("grievance_type=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SubmittedFrom != nil {
		args = append(args, *filter.SubmittedFrom)
		clauses = append(clauses, fmt.Sprintf("submitted_at >= $%d", len(args)))
	}
	if filter.SubmittedTo != nil {
		args = append(args, *filter.SubmittedTo)
		clauses = append(clauses, fmt.Sprintf("submitted_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(grievance_text) LIKE %s OR LOWER(emp_name) LIKE %s OR LOWER(reference_no) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func scanGrievances(rows pgx.Rows) ([]domain.Grievance, error) {
	var result []domain.Grievance
	for rows.Next() {
		var g domain.Grievance
		if err := rows.Scan(
			&g.ID,
			&g.ReferenceNo,
			&g.SubmittedAt,
			&g.HRMSID,
			&g.EmployeeName,
			&g.EmployeeNo,
			&g.Designation,
			&g.Trade,
			&g.Section,
			&g.GrievanceType,
			&g.Text,
			&g.Status,
			&g.AssignedTo,
			&g.AssignedBy,
			&g.AssignedAt,
			&g.Remark,
			&g.Resolution,
			&g.ResolvedBy,
			&g.ResolvedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}
