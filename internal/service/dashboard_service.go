package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/repository"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

// DashboardService backs the officer and admin dashboards.
type DashboardService struct {
	grievances repository.GrievanceRepository
	history    repository.GrievanceHistoryRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// DashboardDependencies bundles repositories.
type DashboardDependencies struct {
	GrievanceRepo repository.GrievanceRepository
	HistoryRepo   repository.GrievanceHistoryRepository
	StaffRepo     repository.StaffRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Location      *time.Location
	Clock         func() time.Time
}

// DashboardFilter describes dashboard listing filters.
type DashboardFilter struct {
	Statuses      []domain.GrievanceStatus
	GrievanceType *string
	HRMSID        *string
	AssignedTo    *string
	SearchTerm    *string
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	Limit         int
	Offset        int
}

// Summary counts grievances per status within the caller's scope.
type Summary struct {
	Total  int64
	Counts map[domain.GrievanceStatus]int64
}

// NewDashboardService creates the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		grievances: deps.GrievanceRepo,
		history:    deps.HistoryRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		loc:        loc,
		now:        clock,
	}
}

// List returns grievances visible to staff. Officers only see their own queue.
func (s *DashboardService) List(ctx context.Context, staff *domain.StaffMember, filter DashboardFilter) ([]domain.Grievance, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
	}
	assignedTo := filter.AssignedTo
	if assignedTo != nil {
		id, ok := parseID(*assignedTo)
		if !ok {
			return nil, apperrors.NewValidationError("invalid assigned_to", map[string]any{"assigned_to": "not a staff id"})
		}
		assignedTo = &id
	}
	repoFilter := repository.GrievanceFilter{
		HRMSID:        filter.HRMSID,
		AssignedTo:    assignedTo,
		GrievanceType: filter.GrievanceType,
		Statuses:      filter.Statuses,
		SearchTerm:    filter.SearchTerm,
		SubmittedFrom: filter.SubmittedFrom,
		SubmittedTo:   filter.SubmittedTo,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}
	applyStaffScope(&repoFilter, staff)
	list, err := s.grievances.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range list {
		localize(&list[i], s.loc)
	}
	return list, nil
}

// Get returns one grievance if staff may see it.
func (s *DashboardService) Get(ctx context.Context, staff *domain.StaffMember, referenceNo string) (*domain.Grievance, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	g, err := s.load(ctx, referenceNo)
	if err != nil {
		return nil, err
	}
	if !staffCanAccess(staff, g) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return g, nil
}

// Assign marks a NEW grievance UNDER PROCESS and hands it to an officer. Admin only.
func (s *DashboardService) Assign(ctx context.Context, admin *domain.StaffMember, referenceNo, officerID, remark string) (*domain.Grievance, error) {
	if admin == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if admin.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("only admins can assign grievances")
	}
	officerID = strings.TrimSpace(officerID)
	if officerID == "" {
		return nil, apperrors.NewValidationError("officer_id required", nil)
	}
	id, ok := parseID(officerID)
	if !ok {
		return nil, apperrors.NewNotFound("officer", map[string]any{"officer_id": officerID})
	}
	officer, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("officer", map[string]any{"officer_id": officerID})
		}
		return nil, apperrors.MapError(err)
	}
	if !officer.Active {
		return nil, apperrors.NewConflict("officer inactive", map[string]any{"officer_id": officerID})
	}
	if officer.Role != domain.StaffRoleOfficer {
		return nil, apperrors.NewValidationError("assignee must be an officer", map[string]any{"officer_id": officerID})
	}

	g, err := s.load(ctx, referenceNo)
	if err != nil {
		return nil, err
	}
	oldStatus := g.Status
	if !domain.CanTransition(oldStatus, domain.GrievanceStatusUnderProcess) {
		return nil, invalidTransition(oldStatus, domain.GrievanceStatusUnderProcess)
	}

	now := s.now()
	g.Status = domain.GrievanceStatusUnderProcess
	g.AssignedTo = &officer.ID
	g.AssignedBy = &admin.ID
	g.AssignedAt = &now
	g.Remark = strings.TrimSpace(remark)
	if err := s.grievances.UpdateTransition(ctx, g, oldStatus); err != nil {
		return nil, transitionError(err)
	}
	if err := recordHistory(ctx, s.history, g, &admin.ID, &oldStatus, domain.ChangeTypeAssigned, g.Remark); err != nil {
		historyFailed(s.logger, g, domain.ChangeTypeAssigned, err)
	}
	adminID := admin.ID
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:        events.EventGrievanceAssigned,
		ReferenceNo: g.ReferenceNo,
		Actor:       events.Actor{StaffID: &adminID},
		Payload: events.GrievanceAssignedPayload{
			OfficerID: officer.ID,
			OldStatus: oldStatus,
			NewStatus: g.Status,
			Remark:    g.Remark,
		},
	})
	return localize(g, s.loc), nil
}

// Resolve closes an UNDER PROCESS grievance. Only the assigned officer or an admin may resolve.
func (s *DashboardService) Resolve(ctx context.Context, staff *domain.StaffMember, referenceNo, resolution string) (*domain.Grievance, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, apperrors.NewValidationError("resolution required", nil)
	}
	g, err := s.load(ctx, referenceNo)
	if err != nil {
		return nil, err
	}
	if !staffCanAccess(staff, g) {
		return nil, apperrors.NewForbidden("grievance not assigned to you")
	}
	oldStatus := g.Status
	if !domain.CanTransition(oldStatus, domain.GrievanceStatusResolved) {
		return nil, invalidTransition(oldStatus, domain.GrievanceStatusResolved)
	}

	now := s.now()
	g.Status = domain.GrievanceStatusResolved
	g.Resolution = resolution
	g.ResolvedBy = &staff.ID
	g.ResolvedAt = &now
	if err := s.grievances.UpdateTransition(ctx, g, oldStatus); err != nil {
		return nil, transitionError(err)
	}
	if err := recordHistory(ctx, s.history, g, &staff.ID, &oldStatus, domain.ChangeTypeResolved, resolution); err != nil {
		historyFailed(s.logger, g, domain.ChangeTypeResolved, err)
	}
	staffID := staff.ID
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:        events.EventGrievanceResolved,
		ReferenceNo: g.ReferenceNo,
		Actor:       events.Actor{StaffID: &staffID},
		Payload: events.GrievanceResolvedPayload{
			OldStatus:  oldStatus,
			NewStatus:  g.Status,
			Resolution: resolution,
		},
	})
	return localize(g, s.loc), nil
}

// Summary counts grievances per status in the caller's scope.
func (s *DashboardService) Summary(ctx context.Context, staff *domain.StaffMember) (*Summary, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	filter := repository.GrievanceFilter{}
	applyStaffScope(&filter, staff)
	counts, err := s.grievances.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	summary := &Summary{Counts: make(map[domain.GrievanceStatus]int64, 3)}
	for _, status := range domain.AllGrievanceStatuses() {
		summary.Counts[status] = counts[status]
		summary.Total += counts[status]
	}
	return summary, nil
}

// History returns the audit trail of a grievance.
func (s *DashboardService) History(ctx context.Context, staff *domain.StaffMember, referenceNo string) ([]domain.GrievanceHistory, error) {
	g, err := s.Get(ctx, staff, referenceNo)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.GrievanceHistory{}, nil
	}
	entries, err := s.history.ListByGrievance(ctx, g.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range entries {
		entries[i].CreatedAt = entries[i].CreatedAt.In(s.loc)
	}
	return entries, nil
}

// Officers lists active officers an admin can assign to.
func (s *DashboardService) Officers(ctx context.Context, admin *domain.StaffMember) ([]domain.StaffMember, error) {
	if admin == nil || admin.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	role := domain.StaffRoleOfficer
	active := true
	officers, err := s.staff.List(ctx, repository.StaffFilter{Role: &role, Active: &active})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return officers, nil
}

func (s *DashboardService) load(ctx context.Context, referenceNo string) (*domain.Grievance, error) {
	ref := domain.NormalizeReferenceNo(referenceNo)
	g, err := s.grievances.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"reference_no": ref})
		}
		return nil, apperrors.MapError(err)
	}
	return localize(g, s.loc), nil
}

func applyStaffScope(filter *repository.GrievanceFilter, staff *domain.StaffMember) {
	if staff == nil || staff.Role == domain.StaffRoleAdmin {
		return
	}
	id := staff.ID
	filter.AssignedTo = &id
}

func staffCanAccess(staff *domain.StaffMember, g *domain.Grievance) bool {
	if staff == nil {
		return false
	}
	if staff.Role == domain.StaffRoleAdmin {
		return true
	}
	return g.AssignedTo != nil && *g.AssignedTo == staff.ID
}

func invalidTransition(from, to domain.GrievanceStatus) error {
	return apperrors.NewConflict("invalid status transition", map[string]any{
		"from": from,
		"to":   to,
	})
}

func transitionError(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.NewConflict("grievance was updated by someone else, reload and retry", nil)
	}
	return apperrors.MapError(err)
}
