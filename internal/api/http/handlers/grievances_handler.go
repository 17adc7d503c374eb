package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/amv-gms/grievance-service/internal/api/dto"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/service"
)

// GrievancesHandler exposes the employee-facing endpoints: directory lookup,
// registration and status.
type GrievancesHandler struct {
	directory  *service.DirectoryService
	grievances *service.GrievanceService
}

// NewGrievancesHandler constructs handler.
func NewGrievancesHandler(directory *service.DirectoryService, grievances *service.GrievanceService) *GrievancesHandler {
	return &GrievancesHandler{directory: directory, grievances: grievances}
}

// LookupEmployee GET /api/employees/:hrmsId.
func (h *GrievancesHandler) LookupEmployee(c *fiber.Ctx) error {
	emp, err := h.directory.LookupEmployee(c.UserContext(), c.Params("hrmsId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EmployeeResponse{HRMSID: emp.HRMSID, Name: emp.Name}})
}

// FormOptions GET /api/form-options.
func (h *GrievancesHandler) FormOptions(c *fiber.Ctx) error {
	opts, err := h.directory.FormOptions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FormOptionsResponse{
		Designations:   opts.Designations,
		Trades:         opts.Trades,
		GrievanceTypes: opts.GrievanceTypes,
	}})
}

// Submit POST /api/grievances.
func (h *GrievancesHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	g, err := h.grievances.Submit(c.UserContext(), service.SubmitInput{
		HRMSID:        req.HRMSID,
		EmployeeNo:    req.EmployeeNo,
		Designation:   req.Designation,
		Trade:         req.Trade,
		Section:       req.Section,
		GrievanceType: req.GrievanceType,
		Text:          req.Text,
	})
	if err != nil {
		return err
	}
	c.Location("/api/grievances/" + g.ReferenceNo)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": grievanceSummary(g)})
}

// Status GET /api/grievances/:ref.
func (h *GrievancesHandler) Status(c *fiber.Ctx) error {
	g, err := h.grievances.Status(c.UserContext(), c.Params("ref"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceSummary(g)})
}

// Acknowledgement GET /api/grievances/:ref/acknowledgement.pdf.
func (h *GrievancesHandler) Acknowledgement(c *fiber.Ctx) error {
	var buf bytes.Buffer
	g, err := h.grievances.Acknowledgement(c.UserContext(), c.Params("ref"), &buf)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="grievance-%s.pdf"`, g.ReferenceNo))
	return c.Send(buf.Bytes())
}

// ListForEmployee GET /api/employees/:hrmsId/grievances.
func (h *GrievancesHandler) ListForEmployee(c *fiber.Ctx) error {
	list, err := h.grievances.ListForEmployee(c.UserContext(), c.Params("hrmsId"))
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceSummary, 0, len(list))
	for i := range list {
		items = append(items, grievanceSummary(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func grievanceSummary(g *domain.Grievance) dto.GrievanceSummary {
	return dto.GrievanceSummary{
		ReferenceNo:   g.ReferenceNo,
		SubmittedAt:   g.SubmittedAt,
		DateTime:      domain.FormatSubmittedAt(g.SubmittedAt),
		HRMSID:        g.HRMSID,
		EmployeeName:  g.EmployeeName,
		GrievanceType: g.GrievanceType,
		Status:        g.Status,
		Resolution:    g.Resolution,
		ResolvedAt:    g.ResolvedAt,
	}
}
