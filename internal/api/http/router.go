package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amv-gms/grievance-service/internal/api/http/handlers"
	"github.com/amv-gms/grievance-service/internal/auth"
	"github.com/amv-gms/grievance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Grievances     *handlers.GrievancesHandler
	Staff          *handlers.StaffHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Get("/form-options", cfg.Grievances.FormOptions)
	api.Get("/employees/:hrmsId", cfg.Grievances.LookupEmployee)
	api.Get("/employees/:hrmsId/grievances", cfg.Grievances.ListForEmployee)
	api.Post("/grievances", cfg.Grievances.Submit)
	api.Get("/grievances/:ref", cfg.Grievances.Status)
	api.Get("/grievances/:ref/acknowledgement.pdf", cfg.Grievances.Acknowledgement)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(), cfg.Staff.ChangePassword)

	adminOnly := auth.RequireStaffRole(domain.StaffRoleAdmin)
	dashboard := api.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	dashboard.Get("/summary", cfg.Dashboard.Summary)
	dashboard.Get("/grievances", cfg.Dashboard.List)
	dashboard.Get("/grievances/:ref", cfg.Dashboard.Get)
	dashboard.Get("/grievances/:ref/history", cfg.Dashboard.History)
	dashboard.Post("/grievances/:ref/assign", adminOnly, cfg.Dashboard.Assign)
	dashboard.Post("/grievances/:ref/resolve", auth.RequireStaffRole(domain.StaffRoleOfficer, domain.StaffRoleAdmin), cfg.Dashboard.Resolve)
	dashboard.Get("/officers", adminOnly, cfg.Dashboard.Officers)

	dashboard.Get("/staff", adminOnly, cfg.Staff.ListStaff)
	dashboard.Post("/staff", adminOnly, cfg.Staff.CreateStaff)
	dashboard.Get("/staff/:id", adminOnly, cfg.Staff.GetStaff)
	dashboard.Put("/staff/:id", adminOnly, cfg.Staff.UpdateStaff)
	dashboard.Post("/staff/:id/password-reset", adminOnly, cfg.Staff.IssuePasswordReset)
}
