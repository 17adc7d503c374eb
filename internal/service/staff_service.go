package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amv-gms/grievance-service/internal/auth"
	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/repository"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

// StaffService manages officer and admin accounts.
type StaffService struct {
	staff      repository.StaffRepository
	bcryptCost int
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role   *domain.StaffRole
	Active *bool
	Limit  int
	Offset int
}

// CreateStaffInput carries the fields of a new account.
type CreateStaffInput struct {
	Name     string
	Username string
	Password string
	Role     domain.StaffRole
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, staff repository.StaffRepository) *StaffService {
	return &StaffService{
		staff:      staff,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil || actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// parseID canonicalises a staff id. Ids that are not UUIDs cannot name a row.
func parseID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// CreateStaffMember adds a new staff account on behalf of an admin.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, input CreateStaffInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Bootstrap(ctx, input)
}

// Bootstrap creates an account without an acting admin. The CLI uses it to
// create the first admin of a fresh database.
func (s *StaffService) Bootstrap(ctx context.Context, input CreateStaffInput) (*domain.StaffMember, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	problems := map[string]any{}
	if name == "" {
		problems["name"] = "required"
	}
	if username == "" {
		problems["username"] = "required"
	}
	if !input.Role.Valid() {
		problems["role"] = "must be OFFICER or ADMIN"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid staff member", problems)
	}

	if existing, err := s.staff.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperrors.NewConflict("username already exists", map[string]any{"username": username})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"password": "too short"})
		}
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff with filters.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := s.staff.List(ctx, repository.StaffFilter{
		Role:   filters.Role,
		Active: filters.Active,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// GetStaffMemberByID fetches staff.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staffID, ok := parseID(id)
	if !ok {
		return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// UpdateStaffMember changes name, role and active flag. An admin cannot
// deactivate or demote their own account.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID, name string, role domain.StaffRole, active bool) (*domain.StaffMember, error) {
	staff, err := s.GetStaffMemberByID(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid staff member", map[string]any{"role": "must be OFFICER or ADMIN"})
	}
	if staff.ID == actor.ID && (!active || role != domain.StaffRoleAdmin) {
		return nil, apperrors.NewConflict("cannot demote or deactivate own account", nil)
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		staff.Name = trimmed
	}
	staff.Role = role
	staff.Active = active

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}
