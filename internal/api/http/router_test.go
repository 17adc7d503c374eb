package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/api/http/handlers"
	"github.com/amv-gms/grievance-service/internal/auth"
	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/observability"
	"github.com/amv-gms/grievance-service/internal/repository/memory"
	"github.com/amv-gms/grievance-service/internal/service"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type testServer struct {
	app     *fiber.App
	admin   *domain.StaffMember
	officer *domain.StaffMember
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	store := memory.NewStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	directory := service.NewDirectoryService(service.DirectoryDependencies{EmployeeRepo: store.Employees(), DropdownRepo: store.Dropdowns()})
	clock := func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }
	grievances := service.NewGrievanceService(service.GrievanceDependencies{
		GrievanceRepo: store.Grievances(),
		HistoryRepo:   store.History(),
		Directory:     directory,
		OfficeName:    "Test Office",
		Location:      time.UTC,
		Clock:         clock,
	})
	dashboard := service.NewDashboardService(service.DashboardDependencies{
		GrievanceRepo: store.Grievances(),
		HistoryRepo:   store.History(),
		StaffRepo:     store.Staff(),
		Location:      time.UTC,
		Clock:         clock,
	})
	staffService := service.NewStaffService(cfg, store.Staff())
	authService := service.NewAuthService(cfg, service.AuthDependencies{StaffRepo: store.Staff(), PasswordResetRepo: store.PasswordResets()})

	_, err := directory.ImportEmployees(ctx, []domain.Employee{{HRMSID: "ABCDEF", Name: "Ravi Kumar"}})
	require.NoError(t, err)
	_, err = directory.ImportDropdowns(ctx, []domain.DropdownItem{{Category: domain.DropdownGrievanceType, Value: "Salary"}})
	require.NoError(t, err)
	admin, err := staffService.Bootstrap(ctx, service.CreateStaffInput{Name: "Admin", Username: "admin", Password: "admin-pass", Role: domain.StaffRoleAdmin})
	require.NoError(t, err)
	officer, err := staffService.Bootstrap(ctx, service.CreateStaffInput{Name: "Officer", Username: "officer", Password: "officer-pass", Role: domain.StaffRoleOfficer})
	require.NoError(t, err)

	app := NewApp("test", logger)
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", okPinger{}, nil, metrics),
		Grievances:     handlers.NewGrievancesHandler(directory, grievances),
		Staff:          handlers.NewStaffHandler(authService, staffService),
		Dashboard:      handlers.NewDashboardHandler(dashboard),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Staff()),
	})
	return &testServer{app: app, admin: admin, officer: officer}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, env := s.call(t, fiber.MethodPost, "/auth/staff/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, fiber.StatusOK, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Auth.Token
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.call(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.call(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status, "redis disabled does not block readiness")

	status, env := s.call(t, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"requests"`)
}

func TestEmployeeLookupErrors(t *testing.T) {
	s := newTestServer(t)

	status, env := s.call(t, fiber.MethodGet, "/api/employees/abcdef", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"hrms_id":"ABCDEF","name":"Ravi Kumar"}`, string(env.Data))

	status, env = s.call(t, fiber.MethodGet, "/api/employees/AB12", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.call(t, fiber.MethodGet, "/api/employees/QWERTY", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestGrievanceLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, env := s.call(t, fiber.MethodPost, "/api/grievances", "", map[string]string{
		"hrms_id":        "abcdef",
		"grievance_type": "Salary",
		"grievance_text": "DA arrears pending",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var created struct {
		ReferenceNo string `json:"reference_no"`
		DateTime    string `json:"date_time"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "20240201ABCDEF001", created.ReferenceNo)
	assert.Equal(t, "01-02-2024 12:00", created.DateTime)
	assert.Equal(t, "NEW", created.Status)
	ref := created.ReferenceNo

	status, env = s.call(t, fiber.MethodPost, "/api/grievances", "", map[string]string{"hrms_id": "ABCDEF"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "fill all mandatory fields", env.Error.Message)

	status, _ = s.call(t, fiber.MethodGet, "/api/dashboard/summary", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	adminToken := s.login(t, "admin", "admin-pass")
	officerToken := s.login(t, "officer", "officer-pass")

	status, env = s.call(t, fiber.MethodPost, "/api/dashboard/grievances/"+ref+"/assign", officerToken, map[string]string{"officer_id": s.officer.ID})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = s.call(t, fiber.MethodPost, "/api/dashboard/grievances/"+ref+"/resolve", officerToken, map[string]string{"resolution": "paid"})
	assert.Equal(t, fiber.StatusForbidden, status, "not assigned yet")

	status, _ = s.call(t, fiber.MethodPost, "/api/dashboard/grievances/"+ref+"/assign", adminToken, map[string]string{"officer_id": s.officer.ID, "remark": "urgent"})
	require.Equal(t, fiber.StatusOK, status)

	status, env = s.call(t, fiber.MethodGet, "/api/dashboard/grievances?status=UNDER%20PROCESS", officerToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), ref)

	status, _ = s.call(t, fiber.MethodPost, "/api/dashboard/grievances/"+ref+"/resolve", officerToken, map[string]string{"resolution": "paid in March salary"})
	require.Equal(t, fiber.StatusOK, status)

	status, env = s.call(t, fiber.MethodPost, "/api/dashboard/grievances/"+ref+"/assign", adminToken, map[string]string{"officer_id": s.officer.ID})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "invalid status transition", env.Error.Message)

	status, env = s.call(t, fiber.MethodGet, "/api/grievances/"+ref, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"RESOLVED"`)
	assert.Contains(t, string(env.Data), "paid in March salary")

	status, env = s.call(t, fiber.MethodGet, "/api/dashboard/grievances/"+ref+"/history", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 3)

	status, env = s.call(t, fiber.MethodGet, "/api/dashboard/summary", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"total":1,"counts":{"NEW":0,"UNDER PROCESS":0,"RESOLVED":1}}`, string(env.Data))
}

func TestAcknowledgementPDF(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.call(t, fiber.MethodPost, "/api/grievances", "", map[string]string{
		"hrms_id": "ABCDEF", "grievance_type": "Salary", "grievance_text": "pending",
	})
	require.Equal(t, fiber.StatusCreated, status)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/grievances/20240201ABCDEF001/acknowledgement.pdf", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestStaffManagementAndPasswordReset(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "admin-pass")
	officerToken := s.login(t, "officer", "officer-pass")

	status, _ := s.call(t, fiber.MethodGet, "/api/dashboard/staff", officerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := s.call(t, fiber.MethodPost, "/api/dashboard/staff", adminToken, map[string]string{
		"name": "Second Officer", "username": "officer2", "password": "second-pass", "role": "officer",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var created struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "OFFICER", created.Role)

	status, env = s.call(t, fiber.MethodGet, "/api/dashboard/officers", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "officer2")

	status, env = s.call(t, fiber.MethodPost, "/api/dashboard/staff/"+created.ID+"/password-reset", adminToken, nil)
	require.Equal(t, fiber.StatusCreated, status)
	var reset struct {
		Token string `json:"reset_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))

	status, _ = s.call(t, fiber.MethodPost, "/auth/password/reset/confirm", "", map[string]string{"token": reset.Token, "new_password": "fresh-password"})
	require.Equal(t, fiber.StatusOK, status)
	newToken := s.login(t, "officer2", "fresh-password")

	status, _ = s.call(t, fiber.MethodPost, "/auth/password/change", newToken, map[string]string{"current_password": "fresh-password", "new_password": "changed-password"})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.call(t, fiber.MethodPut, "/api/dashboard/staff/"+created.ID, adminToken, map[string]any{"name": "Second Officer", "role": "OFFICER", "active": false})
	require.Equal(t, fiber.StatusOK, status)
	status, env = s.call(t, fiber.MethodGet, "/api/dashboard/summary", newToken, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status, "deactivated accounts lose access at once")
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	status, env := s.call(t, fiber.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestMalformedStaffIDsAreNotFound(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "admin-pass")

	status, env := s.call(t, fiber.MethodGet, "/api/dashboard/staff/42", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = s.call(t, fiber.MethodPost, "/api/dashboard/staff/42/password-reset", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = s.call(t, fiber.MethodPost, "/api/grievances", "", map[string]string{
		"hrms_id": "ABCDEF", "grievance_type": "Salary", "grievance_text": "pending",
	})
	require.Equal(t, fiber.StatusCreated, status)
	status, env = s.call(t, fiber.MethodPost, "/api/dashboard/grievances/20240201ABCDEF001/assign", adminToken, map[string]string{"officer_id": "42"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.call(t, fiber.MethodGet, "/api/dashboard/grievances?assigned_to=42", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}
