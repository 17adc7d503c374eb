package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amv-gms/grievance-service/internal/api/dto"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/service"
)

// DashboardHandler serves the officer and admin dashboards.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary GET /api/dashboard/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboard.Summary(c.UserContext(), staff)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SummaryResponse{Total: summary.Total, Counts: summary.Counts}})
}

// List GET /api/dashboard/grievances.
func (h *DashboardHandler) List(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filter, err := parseDashboardFilter(c)
	if err != nil {
		return err
	}
	list, err := h.dashboard.List(c.UserContext(), staff, filter)
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceDetail, 0, len(list))
	for i := range list {
		items = append(items, grievanceDetail(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/dashboard/grievances/:ref.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	g, err := h.dashboard.Get(c.UserContext(), staff, c.Params("ref"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(g)})
}

// History GET /api/dashboard/grievances/:ref/history.
func (h *DashboardHandler) History(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.dashboard.History(c.UserContext(), staff, c.Params("ref"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.HistoryResponse{
			ID:          e.ID,
			ChangeType:  e.ChangeType,
			ChangedByID: e.ChangedByID,
			OldStatus:   e.OldStatus,
			NewStatus:   e.NewStatus,
			Note:        e.Note,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /api/dashboard/grievances/:ref/assign.
func (h *DashboardHandler) Assign(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	g, err := h.dashboard.Assign(c.UserContext(), admin, c.Params("ref"), req.OfficerID, req.Remark)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(g)})
}

// Resolve POST /api/dashboard/grievances/:ref/resolve.
func (h *DashboardHandler) Resolve(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	g, err := h.dashboard.Resolve(c.UserContext(), staff, c.Params("ref"), req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(g)})
}

// Officers GET /api/dashboard/officers.
func (h *DashboardHandler) Officers(c *fiber.Ctx) error {
	admin, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	officers, err := h.dashboard.Officers(c.UserContext(), admin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponses(officers)})
}

func parseDashboardFilter(c *fiber.Ctx) (service.DashboardFilter, error) {
	filter := service.DashboardFilter{}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			filter.Statuses = append(filter.Statuses, domain.GrievanceStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if grievanceType := c.Query("grievance_type"); grievanceType != "" {
		filter.GrievanceType = &grievanceType
	}
	if hrmsID := c.Query("hrms_id"); hrmsID != "" {
		normalized := domain.NormalizeHRMSID(hrmsID)
		filter.HRMSID = &normalized
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	var err error
	if filter.SubmittedFrom, err = parseTime(c.Query("submitted_from")); err != nil {
		return filter, err
	}
	if filter.SubmittedTo, err = parseTime(c.Query("submitted_to")); err != nil {
		return filter, err
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func parseTime(val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "timestamps must be RFC3339")
	}
	return &t, nil
}

func grievanceDetail(g *domain.Grievance) dto.GrievanceDetail {
	return dto.GrievanceDetail{
		ID:            g.ID,
		ReferenceNo:   g.ReferenceNo,
		SubmittedAt:   g.SubmittedAt,
		DateTime:      domain.FormatSubmittedAt(g.SubmittedAt),
		HRMSID:        g.HRMSID,
		EmployeeName:  g.EmployeeName,
		EmployeeNo:    g.EmployeeNo,
		Designation:   g.Designation,
		Trade:         g.Trade,
		Section:       g.Section,
		GrievanceType: g.GrievanceType,
		Text:          g.Text,
		Status:        g.Status,
		AssignedTo:    g.AssignedTo,
		AssignedBy:    g.AssignedBy,
		AssignedAt:    g.AssignedAt,
		Remark:        g.Remark,
		Resolution:    g.Resolution,
		ResolvedBy:    g.ResolvedBy,
		ResolvedAt:    g.ResolvedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}
