// Package memory provides in-memory repository implementations for tests and
// local runs without PostgreSQL.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/repository"
)

var (
	_ repository.EmployeeRepository         = employeeTable{}
	_ repository.DropdownRepository         = dropdownTable{}
	_ repository.StaffRepository            = staffTable{}
	_ repository.GrievanceRepository        = grievanceTable{}
	_ repository.GrievanceHistoryRepository = historyTable{}
	_ repository.PasswordResetRepository    = resetTable{}
)

// ErrDuplicateReference mirrors the unique constraint on reference numbers.
var ErrDuplicateReference = errors.New("memory: duplicate reference number")

// Store holds every table behind one lock.
type Store struct {
	mu         sync.Mutex
	employees  []domain.Employee
	dropdowns  []domain.DropdownItem
	staff      map[string]domain.StaffMember
	grievances []domain.Grievance
	history    []domain.GrievanceHistory
	resets     map[string]repository.PasswordResetToken
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		staff:  make(map[string]domain.StaffMember),
		resets: make(map[string]repository.PasswordResetToken),
		now:    time.Now,
	}
}

// Ping satisfies readiness checks; the store is always reachable.
func (s *Store) Ping(context.Context) error { return nil }

// Employees exposes the employee table.
func (s *Store) Employees() repository.EmployeeRepository { return employeeTable{s} }

// Dropdowns exposes the dropdown table.
func (s *Store) Dropdowns() repository.DropdownRepository { return dropdownTable{s} }

// Staff exposes the staff table.
func (s *Store) Staff() repository.StaffRepository { return staffTable{s} }

// Grievances exposes the grievance table.
func (s *Store) Grievances() repository.GrievanceRepository { return grievanceTable{s} }

// History exposes the grievance history table.
func (s *Store) History() repository.GrievanceHistoryRepository { return historyTable{s} }

// PasswordResets exposes the reset token table.
func (s *Store) PasswordResets() repository.PasswordResetRepository { return resetTable{s} }

type employeeTable struct{ s *Store }

func (t employeeTable) FindByHRMSID(_ context.Context, hrmsID string) (*domain.Employee, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	want := domain.NormalizeHRMSID(hrmsID)
	for _, e := range t.s.employees {
		if domain.NormalizeHRMSID(e.HRMSID) == want {
			emp := domain.Employee{HRMSID: want, Name: e.Name}
			return &emp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t employeeTable) ReplaceAll(_ context.Context, employees []domain.Employee) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.employees = append([]domain.Employee(nil), employees...)
	return int64(len(employees)), nil
}

func (t employeeTable) Count(_ context.Context) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return int64(len(t.s.employees)), nil
}

type dropdownTable struct{ s *Store }

func (t dropdownTable) ListValues(_ context.Context, category domain.DropdownCategory) ([]string, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var values []string
	for _, item := range t.s.dropdowns {
		if domain.NormalizeDropdownCategory(string(item.Category)) == category {
			values = append(values, item.Value)
		}
	}
	return values, nil
}

func (t dropdownTable) ReplaceAll(_ context.Context, items []domain.DropdownItem) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.dropdowns = append([]domain.DropdownItem(nil), items...)
	return int64(len(items)), nil
}

type staffTable struct{ s *Store }

func (t staffTable) Create(_ context.Context, staff *domain.StaffMember) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, existing := range t.s.staff {
		if strings.EqualFold(existing.Username, staff.Username) {
			return errors.New("memory: duplicate username")
		}
	}
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := t.s.now()
	staff.CreatedAt, staff.UpdatedAt = now, now
	t.s.staff[staff.ID] = *staff
	return nil
}

func (t staffTable) Update(_ context.Context, staff *domain.StaffMember) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	staff.UpdatedAt = t.s.now()
	t.s.staff[staff.ID] = *staff
	return nil
}

func (t staffTable) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	staff, ok := t.s.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &staff, nil
}

func (t staffTable) GetByUsername(_ context.Context, username string) (*domain.StaffMember, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, staff := range t.s.staff {
		if strings.EqualFold(staff.Username, username) {
			return &staff, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t staffTable) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]domain.StaffMember, 0, len(t.s.staff))
	for _, staff := range t.s.staff {
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Limit, repository.DefaultStaffLimit, filter.Offset), nil
}

type grievanceTable struct{ s *Store }

func (t grievanceTable) CreateNext(_ context.Context, g *domain.Grievance) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	prior := 0
	for _, existing := range t.s.grievances {
		if existing.HRMSID == g.HRMSID {
			prior++
		}
	}
	ref := domain.NewReferenceNo(g.SubmittedAt, g.HRMSID, prior+1)
	for _, existing := range t.s.grievances {
		if existing.ReferenceNo == ref {
			return ErrDuplicateReference
		}
	}
	g.ReferenceNo = ref
	g.UpdatedAt = t.s.now()
	t.s.grievances = append(t.s.grievances, *g)
	return nil
}

func (t grievanceTable) UpdateTransition(_ context.Context, g *domain.Grievance, expected domain.GrievanceStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, existing := range t.s.grievances {
		if existing.ID != g.ID {
			continue
		}
		if existing.Status != expected {
			return repository.ErrStaleStatus
		}
		g.UpdatedAt = t.s.now()
		t.s.grievances[i] = *g
		return nil
	}
	return repository.ErrStaleStatus
}

func (t grievanceTable) GetByReference(_ context.Context, referenceNo string) (*domain.Grievance, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, g := range t.s.grievances {
		if g.ReferenceNo == referenceNo {
			copied := g
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t grievanceTable) ListWithFilter(_ context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := t.s.matching(filter)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ReferenceNo > out[j].ReferenceNo
	})
	return page(out, filter.Limit, repository.DefaultGrievanceLimit, filter.Offset), nil
}

func (t grievanceTable) CountByStatus(_ context.Context, filter repository.GrievanceFilter) (map[domain.GrievanceStatus]int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	counts := make(map[domain.GrievanceStatus]int64)
	for _, g := range t.s.matching(filter) {
		counts[g.Status]++
	}
	return counts, nil
}

func (s *Store) matching(filter repository.GrievanceFilter) []domain.Grievance {
	out := make([]domain.Grievance, 0, len(s.grievances))
	for _, g := range s.grievances {
		if filter.HRMSID != nil && g.HRMSID != *filter.HRMSID {
			continue
		}
		if filter.AssignedTo != nil && (g.AssignedTo == nil || *g.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.GrievanceType != nil && g.GrievanceType != *filter.GrievanceType {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, g.Status) {
			continue
		}
		if filter.SearchTerm != nil && !matchesSearch(g, *filter.SearchTerm) {
			continue
		}
		if filter.SubmittedFrom != nil && g.SubmittedAt.Before(*filter.SubmittedFrom) {
			continue
		}
		if filter.SubmittedTo != nil && g.SubmittedAt.After(*filter.SubmittedTo) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func containsStatus(statuses []domain.GrievanceStatus, status domain.GrievanceStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func matchesSearch(g domain.Grievance, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, field := range []string{g.Text, g.EmployeeName, g.ReferenceNo} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

type historyTable struct{ s *Store }

func (t historyTable) Create(_ context.Context, h *domain.GrievanceHistory) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = t.s.now()
	t.s.history = append(t.s.history, *h)
	return nil
}

func (t historyTable) ListByGrievance(_ context.Context, grievanceID string) ([]domain.GrievanceHistory, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []domain.GrievanceHistory{}
	for _, h := range t.s.history {
		if h.GrievanceID == grievanceID {
			out = append(out, h)
		}
	}
	return out, nil
}

type resetTable struct{ s *Store }

func (t resetTable) Create(_ context.Context, token *repository.PasswordResetToken) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.CreatedAt = t.s.now()
	t.s.resets[token.ID] = *token
	return nil
}

func (t resetTable) GetByToken(_ context.Context, value string) (*repository.PasswordResetToken, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, token := range t.s.resets {
		if token.Token == value {
			return &token, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t resetTable) MarkUsed(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	token, ok := t.s.resets[id]
	if !ok || token.UsedAt != nil {
		return pgx.ErrNoRows
	}
	now := t.s.now()
	token.UsedAt = &now
	t.s.resets[id] = token
	return nil
}

func page[T any](items []T, limit, fallback, offset int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
