package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/report"
	"github.com/amv-gms/grievance-service/internal/repository"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

const (
	uniqueViolation  = "23505"
	employeePageSize = 100
)

// GrievanceService coordinates registration and public status lookups.
type GrievanceService struct {
	grievances repository.GrievanceRepository
	history    repository.GrievanceHistoryRepository
	directory  *DirectoryService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	font       *report.Font
	office     string
	loc        *time.Location
	now        func() time.Time
}

// GrievanceDependencies bundles collaborators for the grievance service.
type GrievanceDependencies struct {
	GrievanceRepo repository.GrievanceRepository
	HistoryRepo   repository.GrievanceHistoryRepository
	Directory     *DirectoryService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	ReportFont    *report.Font
	OfficeName    string
	Location      *time.Location
	Clock         func() time.Time
}

// SubmitInput is the registration form as entered by the employee.
type SubmitInput struct {
	HRMSID        string
	EmployeeNo    string
	Designation   string
	Trade         string
	Section       string
	GrievanceType string
	Text          string
}

// NewGrievanceService constructs the service.
func NewGrievanceService(deps GrievanceDependencies) *GrievanceService {
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
	return &GrievanceService{
		grievances: deps.GrievanceRepo,
		history:    deps.HistoryRepo,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		font:       deps.ReportFont,
		office:     deps.OfficeName,
		loc:        loc,
		now:        clock,
	}
}

// Location is the office time zone used for dates and reference numbers.
func (s *GrievanceService) Location() *time.Location {
	return s.loc
}

// Submit validates the form, resolves the employee and registers a NEW grievance.
func (s *GrievanceService) Submit(ctx context.Context, input SubmitInput) (*domain.Grievance, error) {
	emp, err := s.directory.LookupEmployee(ctx, input.HRMSID)
	if err != nil {
		return nil, err
	}

	opts, err := s.directory.FormOptions(ctx)
	if err != nil {
		return nil, err
	}

	problems := map[string]any{}
	grievanceType := selected(input.GrievanceType)
	if grievanceType == "" {
		problems["grievance_type"] = "required"
	} else if !allowed(opts.GrievanceTypes, grievanceType) {
		problems["grievance_type"] = "not a known grievance type"
	}
	designation := selected(input.Designation)
	if designation != "" && !allowed(opts.Designations, designation) {
		problems["designation"] = "not a known designation"
	}
	trade := selected(input.Trade)
	if trade != "" && !allowed(opts.Trades, trade) {
		problems["trade"] = "not a known trade"
	}
	text := strings.TrimSpace(input.Text)
	switch {
	case text == "":
		problems["text"] = "required"
	case utf8.RuneCountInString(text) > domain.MaxGrievanceTextLength:
		problems["text"] = "at most 100 characters"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("fill all mandatory fields", problems)
	}

	g := &domain.Grievance{
		ID:            uuid.NewString(),
		SubmittedAt:   s.now().In(s.loc).Truncate(time.Second),
		HRMSID:        emp.HRMSID,
		EmployeeName:  emp.Name,
		EmployeeNo:    strings.TrimSpace(input.EmployeeNo),
		Designation:   designation,
		Trade:         trade,
		Section:       strings.TrimSpace(input.Section),
		GrievanceType: grievanceType,
		Text:          text,
		Status:        domain.GrievanceStatusNew,
	}
	if err := s.grievances.CreateNext(ctx, g); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.NewConflict("reference number already allocated, submit again", nil)
		}
		return nil, apperrors.MapError(err)
	}

	// The Reference No. is allocated; the employee gets it even if the
	// audit row or the event is lost.
	if err := recordHistory(ctx, s.history, g, nil, nil, domain.ChangeTypeRegistered, ""); err != nil {
		historyFailed(s.logger, g, domain.ChangeTypeRegistered, err)
	}
	hrmsID := g.HRMSID
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:        events.EventGrievanceRegistered,
		ReferenceNo: g.ReferenceNo,
		Actor:       events.Actor{HRMSID: &hrmsID},
		Payload: events.GrievanceRegisteredPayload{
			EmployeeName:  g.EmployeeName,
			GrievanceType: g.GrievanceType,
			Section:       g.Section,
		},
	})
	return g, nil
}

// Status looks a grievance up by its Reference No.
func (s *GrievanceService) Status(ctx context.Context, referenceNo string) (*domain.Grievance, error) {
	ref := domain.NormalizeReferenceNo(referenceNo)
	if _, _, _, err := domain.ParseReferenceNo(ref); err != nil {
		return nil, apperrors.NewValidationError("invalid reference number", map[string]any{"reference_no": referenceNo})
	}
	g, err := s.grievances.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"reference_no": ref})
		}
		return nil, apperrors.MapError(err)
	}
	return localize(g, s.loc), nil
}

// ListForEmployee returns every grievance filed under an HRMS ID, newest first.
func (s *GrievanceService) ListForEmployee(ctx context.Context, rawID string) ([]domain.Grievance, error) {
	hrmsID, err := domain.ValidateHRMSID(rawID)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid format: enter exactly 6 capital alphabets", map[string]any{"hrms_id": rawID})
	}
	filter := repository.GrievanceFilter{HRMSID: &hrmsID, Limit: employeePageSize}
	list := []domain.Grievance{}
	seen := make(map[string]struct{})
	for {
		batch, err := s.grievances.ListWithFilter(ctx, filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, g := range batch {
			// A registration between pages shifts the offset by one.
			if _, dup := seen[g.ReferenceNo]; dup {
				continue
			}
			seen[g.ReferenceNo] = struct{}{}
			list = append(list, *localize(&g, s.loc))
		}
		if len(batch) < filter.Limit {
			return list, nil
		}
		filter.Offset += len(batch)
	}
}

// Acknowledgement writes the printable slip of a grievance to w.
func (s *GrievanceService) Acknowledgement(ctx context.Context, referenceNo string, w io.Writer) (*domain.Grievance, error) {
	g, err := s.Status(ctx, referenceNo)
	if err != nil {
		return nil, err
	}
	if err := report.WriteAcknowledgement(w, g, s.office, s.now().In(s.loc), s.font); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return g, nil
}

// selected maps the form placeholder to an empty choice.
func selected(v string) string {
	v = strings.TrimSpace(v)
	if v == domain.SelectPlaceholder {
		return ""
	}
	return v
}

// allowed accepts any value when the sheet has no list for the category.
func allowed(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func localize(g *domain.Grievance, loc *time.Location) *domain.Grievance {
	g.SubmittedAt = g.SubmittedAt.In(loc)
	g.UpdatedAt = g.UpdatedAt.In(loc)
	if g.AssignedAt != nil {
		t := g.AssignedAt.In(loc)
		g.AssignedAt = &t
	}
	if g.ResolvedAt != nil {
		t := g.ResolvedAt.In(loc)
		g.ResolvedAt = &t
	}
	return g
}

func recordHistory(ctx context.Context, repo repository.GrievanceHistoryRepository, g *domain.Grievance, actorID *string, oldStatus *domain.GrievanceStatus, change domain.GrievanceChangeType, note string) error {
	if repo == nil {
		return nil
	}
	return repo.Create(ctx, &domain.GrievanceHistory{
		ID:          uuid.NewString(),
		GrievanceID: g.ID,
		ChangedByID: actorID,
		ChangeType:  change,
		OldStatus:   oldStatus,
		NewStatus:   g.Status,
		Note:        note,
	})
}

func historyFailed(logger *zap.Logger, g *domain.Grievance, change domain.GrievanceChangeType, err error) {
	logger.Error("grievance history not recorded",
		zap.String("reference_no", g.ReferenceNo),
		zap.String("change", string(change)),
		zap.Error(err))
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event not published",
			zap.String("event", string(event.Type)),
			zap.String("reference_no", event.ReferenceNo),
			zap.Error(err))
	}
}
