package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/events"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

func TestAssignThenResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.submit(t, "ABCDEF")

	assigned, err := f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, f.officer.ID, "check payroll")
	require.NoError(t, err)
	assert.Equal(t, domain.GrievanceStatusUnderProcess, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, f.officer.ID, *assigned.AssignedTo)
	assert.Equal(t, "check payroll", assigned.Remark)

	resolved, err := f.dashboard.Resolve(ctx, f.officer, g.ReferenceNo, "arrears paid")
	require.NoError(t, err)
	assert.Equal(t, domain.GrievanceStatusResolved, resolved.Status)
	assert.Equal(t, "arrears paid", resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)

	status, err := f.grievances.Status(ctx, g.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.GrievanceStatusResolved, status.Status)

	entries, err := f.dashboard.History(ctx, f.officer, g.ReferenceNo)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.ChangeTypeAssigned, entries[1].ChangeType)
	assert.Equal(t, domain.ChangeTypeResolved, entries[2].ChangeType)
	require.NotNil(t, entries[2].OldStatus)
	assert.Equal(t, domain.GrievanceStatusUnderProcess, *entries[2].OldStatus)

	var types []events.EventType
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.EventType{
		events.EventGrievanceRegistered,
		events.EventGrievanceAssigned,
		events.EventGrievanceResolved,
	}, types)
}

func TestTransitionsOutsideMachineConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.submit(t, "ABCDEF")

	_, err := f.dashboard.Resolve(ctx, f.admin, g.ReferenceNo, "too early")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"), "NEW cannot jump to RESOLVED")

	_, err = f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, f.officer.ID, "")
	require.NoError(t, err)
	_, err = f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, f.officer.ID, "")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"), "assignment happens once")

	_, err = f.dashboard.Resolve(ctx, f.officer, g.ReferenceNo, "done")
	require.NoError(t, err)
	_, err = f.dashboard.Resolve(ctx, f.officer, g.ReferenceNo, "again")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"), "RESOLVED is terminal")
}

func TestAssignRequiresAdminAndActiveOfficer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.submit(t, "ABCDEF")

	_, err := f.dashboard.Assign(ctx, f.officer, g.ReferenceNo, f.officer.ID, "")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, f.admin.ID, "")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "admins are not assignees")

	_, err = f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, "missing", "")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = f.staff.UpdateStaffMember(ctx, f.admin, f.officer.ID, "", domain.StaffRoleOfficer, false)
	require.NoError(t, err)
	_, err = f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, f.officer.ID, "")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"), "inactive officer")
}

func TestOfficerScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.staff.CreateStaffMember(ctx, f.admin, CreateStaffInput{Name: "Officer Two", Username: "officer2", Password: "officer-pass", Role: domain.StaffRoleOfficer})
	require.NoError(t, err)

	mine := f.submit(t, "ABCDEF")
	theirs := f.submit(t, "GHIJKL")
	f.submit(t, "ABCDEF")
	_, err = f.dashboard.Assign(ctx, f.admin, mine.ReferenceNo, f.officer.ID, "")
	require.NoError(t, err)
	_, err = f.dashboard.Assign(ctx, f.admin, theirs.ReferenceNo, other.ID, "")
	require.NoError(t, err)

	list, err := f.dashboard.List(ctx, f.officer, DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ReferenceNo, list[0].ReferenceNo)

	_, err = f.dashboard.Get(ctx, f.officer, theirs.ReferenceNo)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	_, err = f.dashboard.Resolve(ctx, f.officer, theirs.ReferenceNo, "not mine")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	summary, err := f.dashboard.Summary(ctx, f.officer)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Total)
	assert.EqualValues(t, 1, summary.Counts[domain.GrievanceStatusUnderProcess])

	adminSummary, err := f.dashboard.Summary(ctx, f.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 3, adminSummary.Total)
	assert.EqualValues(t, 1, adminSummary.Counts[domain.GrievanceStatusNew])
	assert.EqualValues(t, 2, adminSummary.Counts[domain.GrievanceStatusUnderProcess])
	assert.Zero(t, adminSummary.Counts[domain.GrievanceStatusResolved])
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "ABCDEF")
	g := f.submit(t, "GHIJKL")
	_, err := f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, f.officer.ID, "")
	require.NoError(t, err)

	list, err := f.dashboard.List(ctx, f.admin, DashboardFilter{Statuses: []domain.GrievanceStatus{domain.GrievanceStatusNew}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ABCDEF", list[0].HRMSID)

	term := "sunita"
	list, err = f.dashboard.List(ctx, f.admin, DashboardFilter{SearchTerm: &term})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, g.ReferenceNo, list[0].ReferenceNo)

	_, err = f.dashboard.List(ctx, f.admin, DashboardFilter{Statuses: []domain.GrievanceStatus{"CLOSED"}})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestOfficersListsActiveOfficersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	officers, err := f.dashboard.Officers(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, officers, 1)
	assert.Equal(t, f.officer.ID, officers[0].ID)

	_, err = f.dashboard.Officers(ctx, f.officer)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestResolveRequiresText(t *testing.T) {
	f := newFixture(t)
	g := f.submit(t, "ABCDEF")
	_, err := f.dashboard.Resolve(context.Background(), f.admin, g.ReferenceNo, "  ")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestStaffIDsMustBeUUIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.submit(t, "ABCDEF")

	_, err := f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, "not-a-uuid", "")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "malformed officer id")
	_, err = f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, uuid.NewString(), "")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "unknown officer id")

	assigned, err := f.dashboard.Assign(ctx, f.admin, g.ReferenceNo, strings.ToUpper(f.officer.ID), "")
	require.NoError(t, err, "ids are compared in canonical form")
	assert.Equal(t, f.officer.ID, *assigned.AssignedTo)

	bad := "17"
	_, err = f.dashboard.List(ctx, f.admin, DashboardFilter{AssignedTo: &bad})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	upper := strings.ToUpper(f.officer.ID)
	list, err := f.dashboard.List(ctx, f.admin, DashboardFilter{AssignedTo: &upper})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.staff.GetStaffMemberByID(ctx, f.admin, "17")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	_, err = f.staff.UpdateStaffMember(ctx, f.admin, "17", "x", domain.StaffRoleOfficer, true)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	_, err = f.auth.IssuePasswordReset(ctx, f.admin, "17")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
