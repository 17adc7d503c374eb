package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/events"
	"github.com/amv-gms/grievance-service/internal/repository/memory"
)

type fixture struct {
	store      *memory.Store
	mu         sync.Mutex
	published  []events.Event
	directory  *DirectoryService
	grievances *GrievanceService
	dashboard  *DashboardService
	staff      *StaffService
	auth       *AuthService
	admin      *domain.StaffMember
	officer    *domain.StaffMember
	now        time.Time
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	f := &fixture{store: memory.NewStore(), now: time.Date(2024, 1, 15, 10, 30, 0, 0, loc)}
	clock := func() time.Time { return f.now }

	dispatcher := events.NewInMemoryDispatcher(nil)
	record := func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.published = append(f.published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventGrievanceRegistered, record)
	dispatcher.Subscribe(events.EventGrievanceAssigned, record)
	dispatcher.Subscribe(events.EventGrievanceResolved, record)

	f.directory = NewDirectoryService(DirectoryDependencies{
		EmployeeRepo: f.store.Employees(),
		DropdownRepo: f.store.Dropdowns(),
	})
	f.grievances = NewGrievanceService(GrievanceDependencies{
		GrievanceRepo: f.store.Grievances(),
		HistoryRepo:   f.store.History(),
		Directory:     f.directory,
		Dispatcher:    dispatcher,
		OfficeName:    "Test Office",
		Location:      loc,
		Clock:         clock,
	})
	f.dashboard = NewDashboardService(DashboardDependencies{
		GrievanceRepo: f.store.Grievances(),
		HistoryRepo:   f.store.History(),
		StaffRepo:     f.store.Staff(),
		Dispatcher:    dispatcher,
		Location:      loc,
		Clock:         clock,
	})
	f.staff = NewStaffService(testConfig(), f.store.Staff())
	f.auth = NewAuthService(testConfig(), AuthDependencies{
		StaffRepo:         f.store.Staff(),
		PasswordResetRepo: f.store.PasswordResets(),
	})

	_, err = f.directory.ImportEmployees(ctx, []domain.Employee{
		{HRMSID: "abcdef", Name: "Ravi Kumar"},
		{HRMSID: "GHIJKL", Name: "Sunita Devi"},
		{HRMSID: "ABCDEF", Name: "Duplicate Row"},
	})
	require.NoError(t, err)
	_, err = f.directory.ImportDropdowns(ctx, []domain.DropdownItem{
		{Category: "designation", Value: "Technician"},
		{Category: "TRADE", Value: "Fitter"},
		{Category: "GRIEVANCE_TYPE", Value: "Salary"},
		{Category: "GRIEVANCE_TYPE", Value: "Leave"},
		{Category: "GRIEVANCE_TYPE", Value: "Salary"},
	})
	require.NoError(t, err)

	f.admin, err = f.staff.Bootstrap(ctx, CreateStaffInput{Name: "Admin", Username: "admin", Password: "admin-pass", Role: domain.StaffRoleAdmin})
	require.NoError(t, err)
	f.officer, err = f.staff.Bootstrap(ctx, CreateStaffInput{Name: "Officer One", Username: "officer1", Password: "officer-pass", Role: domain.StaffRoleOfficer})
	require.NoError(t, err)
	return f
}

func (f *fixture) submit(t *testing.T, hrmsID string) *domain.Grievance {
	t.Helper()
	g, err := f.grievances.Submit(context.Background(), SubmitInput{
		HRMSID:        hrmsID,
		GrievanceType: "Salary",
		Text:          "Arrears not credited",
	})
	require.NoError(t, err)
	return g
}
