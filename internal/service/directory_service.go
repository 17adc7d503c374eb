package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/cache"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/repository"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

// DirectoryService answers HRMS ID lookups and registration form dropdowns.
type DirectoryService struct {
	employees repository.EmployeeRepository
	dropdowns repository.DropdownRepository
	cache     *cache.DirectoryCache
	logger    *zap.Logger
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	DropdownRepo repository.DropdownRepository
	Cache        *cache.DirectoryCache
	Logger       *zap.Logger
}

// FormOptions holds every dropdown list of the registration form.
type FormOptions struct {
	Designations   []string
	Trades         []string
	GrievanceTypes []string
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		employees: deps.EmployeeRepo,
		dropdowns: deps.DropdownRepo,
		cache:     deps.Cache,
		logger:    logger,
	}
}

// LookupEmployee validates raw as an HRMS ID and resolves the employee it names.
func (s *DirectoryService) LookupEmployee(ctx context.Context, raw string) (*domain.Employee, error) {
	hrmsID, err := domain.ValidateHRMSID(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid format: enter exactly 6 capital alphabets", map[string]any{"hrms_id": raw})
	}
	if emp, ok := s.cache.Employee(ctx, hrmsID); ok {
		return emp, nil
	}

	emp, err := s.employees.FindByHRMSID(ctx, hrmsID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"hrms_id": hrmsID})
		}
		return nil, apperrors.MapError(err)
	}
	s.cache.StoreEmployee(ctx, emp)
	return emp, nil
}

// DropdownOptions returns the distinct non-blank values of a category in sheet order.
func (s *DirectoryService) DropdownOptions(ctx context.Context, category domain.DropdownCategory) ([]string, error) {
	category = domain.NormalizeDropdownCategory(string(category))
	if !category.Valid() {
		return nil, apperrors.NewValidationError("unknown dropdown category", map[string]any{"category": category})
	}
	if values, ok := s.cache.Options(ctx, category); ok {
		return values, nil
	}
	raw, err := s.dropdowns.ListValues(ctx, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	values := domain.UniqueValues(raw)
	s.cache.StoreOptions(ctx, category, values)
	return values, nil
}

// FormOptions loads all three registration dropdowns.
func (s *DirectoryService) FormOptions(ctx context.Context) (FormOptions, error) {
	var opts FormOptions
	var err error
	if opts.Designations, err = s.DropdownOptions(ctx, domain.DropdownDesignation); err != nil {
		return FormOptions{}, err
	}
	if opts.Trades, err = s.DropdownOptions(ctx, domain.DropdownTrade); err != nil {
		return FormOptions{}, err
	}
	if opts.GrievanceTypes, err = s.DropdownOptions(ctx, domain.DropdownGrievanceType); err != nil {
		return FormOptions{}, err
	}
	return opts, nil
}

// ImportEmployees replaces the employee table. Rows without an ID or name are skipped;
// IDs are stored as given because lookups normalize on read.
func (s *DirectoryService) ImportEmployees(ctx context.Context, rows []domain.Employee) (int64, error) {
	clean := make([]domain.Employee, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.HRMSID)
		name := strings.TrimSpace(row.Name)
		if id == "" || name == "" {
			continue
		}
		clean = append(clean, domain.Employee{HRMSID: id, Name: name})
	}
	n, err := s.employees.ReplaceAll(ctx, clean)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.invalidate(ctx)
	s.logger.Info("employee mapping imported", zap.Int64("rows", n), zap.Int("skipped", len(rows)-len(clean)))
	return n, nil
}

// ImportDropdowns replaces the dropdown table. Unknown categories are kept so the
// sheet can carry lists this service does not use yet.
func (s *DirectoryService) ImportDropdowns(ctx context.Context, items []domain.DropdownItem) (int64, error) {
	clean := make([]domain.DropdownItem, 0, len(items))
	for _, item := range items {
		category := domain.NormalizeDropdownCategory(string(item.Category))
		if category == "" {
			continue
		}
		clean = append(clean, domain.DropdownItem{Category: category, Value: strings.TrimSpace(item.Value)})
	}
	n, err := s.dropdowns.ReplaceAll(ctx, clean)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.invalidate(ctx)
	s.logger.Info("dropdown mappings imported", zap.Int64("rows", n))
	return n, nil
}

func (s *DirectoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("directory cache invalidation failed", zap.Error(err))
	}
}
