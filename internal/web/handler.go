package web

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/service"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

const (
	msgInvalidHRMSID   = "Invalid format: enter exactly 6 capital alphabets."
	msgHRMSIDNotFound  = "HRMS ID not found."
	msgMandatoryFields = "Please fill all mandatory fields."
	msgFixFields       = "Please correct the marked fields."
	msgRefNotFound     = "No grievance found for this Reference No."
	msgRefInvalid      = "Enter a valid Reference No."
)

// Handler serves the landing, registration, success and status pages.
type Handler struct {
	office     string
	directory  *service.DirectoryService
	grievances *service.GrievanceService
	logger     *zap.Logger
}

// NewHandler constructs handler.
func NewHandler(office string, directory *service.DirectoryService, grievances *service.GrievanceService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{office: office, directory: directory, grievances: grievances, logger: logger}
}

// Register mounts the pages on app.
func (h *Handler) Register(app fiber.Router) {
	app.Get("/", h.landing)
	app.Get("/register", h.verifyForm)
	app.Post("/register/verify", h.verify)
	app.Post("/register", h.submit)
	app.Get("/status", h.status)
}

func (h *Handler) landing(c *fiber.Ctx) error {
	return h.render(c, http.StatusOK, "Home", Landing())
}

func (h *Handler) verifyForm(c *fiber.Ctx) error {
	return h.render(c, http.StatusOK, "Register", Verify("", ""))
}

func (h *Handler) verify(c *fiber.Ctx) error {
	raw := c.FormValue("hrms_id")
	emp, err := h.directory.LookupEmployee(c.UserContext(), raw)
	if err != nil {
		if msg, status, ok := lookupMessage(err); ok {
			return h.render(c, status, "Register", Verify(raw, msg))
		}
		return h.fail(c, err)
	}
	opts, err := h.directory.FormOptions(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "Register", Register(RegisterForm{
		HRMSID:       emp.HRMSID,
		EmployeeName: emp.Name,
		Options:      opts,
	}))
}

func (h *Handler) submit(c *fiber.Ctx) error {
	form := RegisterForm{
		HRMSID:        c.FormValue("hrms_id"),
		EmployeeNo:    c.FormValue("emp_no"),
		Designation:   c.FormValue("designation"),
		Trade:         c.FormValue("trade"),
		Section:       c.FormValue("section"),
		GrievanceType: c.FormValue("grievance_type"),
		Text:          c.FormValue("grievance_text"),
	}
	g, err := h.grievances.Submit(c.UserContext(), service.SubmitInput{
		HRMSID:        form.HRMSID,
		EmployeeNo:    form.EmployeeNo,
		Designation:   form.Designation,
		Trade:         form.Trade,
		Section:       form.Section,
		GrievanceType: form.GrievanceType,
		Text:          form.Text,
	})
	if err == nil {
		return h.render(c, http.StatusCreated, "Registered", Success(g))
	}

	if msg, status, ok := lookupMessage(err); ok {
		return h.render(c, status, "Register", Verify(form.HRMSID, msg))
	}
	if !apperrors.IsCode(err, "VALIDATION_FAILED") && !apperrors.IsCode(err, "CONFLICT") {
		return h.fail(c, err)
	}
	emp, lookupErr := h.directory.LookupEmployee(c.UserContext(), form.HRMSID)
	if lookupErr != nil {
		return h.fail(c, lookupErr)
	}
	opts, optErr := h.directory.FormOptions(c.UserContext())
	if optErr != nil {
		return h.fail(c, optErr)
	}
	form.HRMSID = emp.HRMSID
	form.EmployeeName = emp.Name
	form.Options = opts
	status := http.StatusUnprocessableEntity
	if apperrors.IsCode(err, "CONFLICT") {
		form.Error = apperrors.ToDomainError(err).Message
		status = http.StatusConflict
	} else {
		form.Problems, form.Error = fieldProblems(apperrors.ToDomainError(err).Details)
	}
	return h.render(c, status, "Register", Register(form))
}

// fieldProblems turns validation details into per-field messages and picks
// the banner: missing fields take precedence over rejected values.
func fieldProblems(details map[string]any) (map[string]string, string) {
	problems := make(map[string]string, len(details))
	banner := msgFixFields
	for field, v := range details {
		msg := fmt.Sprint(v)
		if msg == "required" {
			banner = msgMandatoryFields
		}
		problems[field] = msg
	}
	return problems, banner
}

func (h *Handler) status(c *fiber.Ctx) error {
	ref := c.Query("ref")
	if ref == "" {
		return h.render(c, http.StatusOK, "Status", Status(StatusView{}))
	}
	view := StatusView{ReferenceNo: domain.NormalizeReferenceNo(ref)}
	g, err := h.grievances.Status(c.UserContext(), ref)
	switch {
	case err == nil:
		view.Grievance = g
		return h.render(c, http.StatusOK, "Status", Status(view))
	case apperrors.IsCode(err, "VALIDATION_FAILED"):
		view.Error = msgRefInvalid
		return h.render(c, http.StatusBadRequest, "Status", Status(view))
	case apperrors.IsCode(err, "NOT_FOUND"):
		view.Error = msgRefNotFound
		return h.render(c, http.StatusNotFound, "Status", Status(view))
	default:
		return h.fail(c, err)
	}
}

// lookupMessage maps HRMS ID lookup failures to the verify page messages.
func lookupMessage(err error) (string, int, bool) {
	domainErr := apperrors.ToDomainError(err)
	if _, ok := domainErr.Details["hrms_id"]; !ok {
		return "", 0, false
	}
	switch domainErr.Code {
	case "VALIDATION_FAILED":
		return msgInvalidHRMSID, http.StatusBadRequest, true
	case "NOT_FOUND":
		return msgHRMSIDNotFound, http.StatusNotFound, true
	}
	return "", 0, false
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("page request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return h.render(c, domainErr.HTTPStatus, "Error", ErrorPage(domainErr.Message))
}

func (h *Handler) render(c *fiber.Ctx, status int, title string, body templ.Component) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return Layout(h.office, title, body).Render(c.UserContext(), c.Response().BodyWriter())
}
