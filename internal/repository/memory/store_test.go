package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/repository"
)

func references(gs []domain.Grievance) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.ReferenceNo)
	}
	return out
}

func TestEmployeeLookupFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Employees().ReplaceAll(ctx, []domain.Employee{
		{HRMSID: " abcdef ", Name: "First"},
		{HRMSID: "ABCDEF", Name: "Second"},
	})
	require.NoError(t, err)

	emp, err := s.Employees().FindByHRMSID(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, domain.Employee{HRMSID: "ABCDEF", Name: "First"}, *emp)

	_, err = s.Employees().FindByHRMSID(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestCreateNextCountsPriorRows(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	for i, at := range []time.Time{day1, day1, day2} {
		g := &domain.Grievance{ID: string(rune('a' + i)), HRMSID: "ABCDEF", SubmittedAt: at, Status: domain.GrievanceStatusNew}
		require.NoError(t, s.Grievances().CreateNext(ctx, g))
	}
	other := &domain.Grievance{ID: "x", HRMSID: "GHIJKL", SubmittedAt: day2, Status: domain.GrievanceStatusNew}
	require.NoError(t, s.Grievances().CreateNext(ctx, other))

	all, err := s.Grievances().ListWithFilter(ctx, repository.GrievanceFilter{})
	require.NoError(t, err)
	want := []string{"20240302GHIJKL001", "20240302ABCDEF003", "20240301ABCDEF002", "20240301ABCDEF001"}
	if diff := cmp.Diff(want, references(all)); diff != "" {
		t.Fatalf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	officer := "officer-1"
	rows := []domain.Grievance{
		{ID: "1", HRMSID: "ABCDEF", EmployeeName: "Ravi Kumar", GrievanceType: "Salary", Text: "Arrears", Status: domain.GrievanceStatusNew, SubmittedAt: base},
		{ID: "2", HRMSID: "ABCDEF", EmployeeName: "Ravi Kumar", GrievanceType: "Leave", Text: "Leave not sanctioned", Status: domain.GrievanceStatusUnderProcess, AssignedTo: &officer, SubmittedAt: base.Add(time.Hour)},
		{ID: "3", HRMSID: "GHIJKL", EmployeeName: "Sunita Devi", GrievanceType: "Salary", Section: "Bogie Shop", Status: domain.GrievanceStatusResolved, AssignedTo: &officer, SubmittedAt: base.Add(2 * time.Hour)},
	}
	for i := range rows {
		require.NoError(t, s.Grievances().CreateNext(ctx, &rows[i]))
	}

	salary := "Salary"
	search := "sunita"
	section := "bogie"
	from := base.Add(30 * time.Minute)
	to := base.Add(time.Hour)
	cases := []struct {
		name   string
		filter repository.GrievanceFilter
		want   []string
	}{
		{"status", repository.GrievanceFilter{Statuses: []domain.GrievanceStatus{domain.GrievanceStatusNew, domain.GrievanceStatusResolved}}, []string{"20240301GHIJKL001", "20240301ABCDEF001"}},
		{"assigned", repository.GrievanceFilter{AssignedTo: &officer}, []string{"20240301GHIJKL001", "20240301ABCDEF002"}},
		{"type", repository.GrievanceFilter{GrievanceType: &salary}, []string{"20240301GHIJKL001", "20240301ABCDEF001"}},
		{"search", repository.GrievanceFilter{SearchTerm: &search}, []string{"20240301GHIJKL001"}},
		{"section is not searched", repository.GrievanceFilter{SearchTerm: &section}, []string{}},
		{"from", repository.GrievanceFilter{SubmittedFrom: &from}, []string{"20240301GHIJKL001", "20240301ABCDEF002"}},
		{"to is inclusive", repository.GrievanceFilter{SubmittedTo: &to}, []string{"20240301ABCDEF002", "20240301ABCDEF001"}},
		{"page", repository.GrievanceFilter{Limit: 1, Offset: 1}, []string{"20240301ABCDEF002"}},
		{"past end", repository.GrievanceFilter{Offset: 5}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Grievances().ListWithFilter(ctx, tc.filter)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, references(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	counts, err := s.Grievances().CountByStatus(ctx, repository.GrievanceFilter{AssignedTo: &officer})
	require.NoError(t, err)
	assert.Equal(t, map[domain.GrievanceStatus]int64{
		domain.GrievanceStatusUnderProcess: 1,
		domain.GrievanceStatusResolved:     1,
	}, counts)
}

func TestListAppliesDefaultLimit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < repository.DefaultGrievanceLimit+5; i++ {
		g := &domain.Grievance{HRMSID: "ABCDEF", SubmittedAt: base.Add(time.Duration(i) * time.Minute), Status: domain.GrievanceStatusNew}
		require.NoError(t, s.Grievances().CreateNext(ctx, g))
	}

	first, err := s.Grievances().ListWithFilter(ctx, repository.GrievanceFilter{})
	require.NoError(t, err)
	assert.Len(t, first, repository.DefaultGrievanceLimit)

	rest, err := s.Grievances().ListWithFilter(ctx, repository.GrievanceFilter{Offset: repository.DefaultGrievanceLimit})
	require.NoError(t, err)
	assert.Len(t, rest, 5)
}

func TestUpdateTransitionRejectsStaleStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	g := &domain.Grievance{ID: "1", HRMSID: "ABCDEF", SubmittedAt: time.Now(), Status: domain.GrievanceStatusNew}
	require.NoError(t, s.Grievances().CreateNext(ctx, g))

	g.Status = domain.GrievanceStatusUnderProcess
	require.NoError(t, s.Grievances().UpdateTransition(ctx, g, domain.GrievanceStatusNew))

	again := *g
	again.Status = domain.GrievanceStatusUnderProcess
	assert.ErrorIs(t, s.Grievances().UpdateTransition(ctx, &again, domain.GrievanceStatusNew), repository.ErrStaleStatus)

	stored, err := s.Grievances().GetByReference(ctx, g.ReferenceNo)
	require.NoError(t, err)
	assert.Equal(t, domain.GrievanceStatusUnderProcess, stored.Status)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	token := &repository.PasswordResetToken{StaffID: "staff-1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.PasswordResets().Create(ctx, token))

	found, err := s.PasswordResets().GetByToken(ctx, "tok")
	require.NoError(t, err)
	require.NoError(t, s.PasswordResets().MarkUsed(ctx, found.ID))
	assert.ErrorIs(t, s.PasswordResets().MarkUsed(ctx, found.ID), pgx.ErrNoRows)
}

func TestStaffUsernamesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Staff().Create(ctx, &domain.StaffMember{Name: "A", Username: "admin", Role: domain.StaffRoleAdmin, Active: true}))
	assert.Error(t, s.Staff().Create(ctx, &domain.StaffMember{Name: "B", Username: "ADMIN", Role: domain.StaffRoleOfficer, Active: true}))

	role := domain.StaffRoleAdmin
	list, err := s.Staff().List(ctx, repository.StaffFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
