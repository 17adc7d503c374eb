package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/repository/memory"
	"github.com/amv-gms/grievance-service/internal/service"
)

const sample = `
employees:
  - hrms_id: abcdef
    name: Ravi Kumar
  - hrms_id: GHIJKL
    name: Sunita Devi
dropdowns:
  - category: designation
    values: [Technician, Senior Technician]
  - category: GRIEVANCE_TYPE
    values: [Salary, Leave, Salary]
staff:
  - name: Workshop Admin
    username: Admin
    password: admin-pass
    role: admin
`

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("employes: []\n"))
	require.Error(t, err)
}

func TestDecodeEmptyDocument(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Employees)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Employees, 2)
	assert.Equal(t, []domain.DropdownItem{
		{Category: domain.DropdownDesignation, Value: "Technician"},
		{Category: domain.DropdownDesignation, Value: "Senior Technician"},
		{Category: domain.DropdownGrievanceType, Value: "Salary"},
		{Category: domain.DropdownGrievanceType, Value: "Leave"},
		{Category: domain.DropdownGrievanceType, Value: "Salary"},
	}, f.DropdownItems())
}

func TestApplyIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		EmployeeRepo: store.Employees(),
		DropdownRepo: store.Dropdowns(),
	})
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
	staff := service.NewStaffService(cfg, store.Staff())

	f, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	res, err := Apply(ctx, f, directory, staff, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Employees)
	assert.Equal(t, int64(5), res.DropdownItems)
	assert.Equal(t, 1, res.StaffCreated)

	emp, err := directory.LookupEmployee(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", emp.Name)

	types, err := directory.DropdownOptions(ctx, domain.DropdownGrievanceType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Salary", "Leave"}, types)

	admin, err := store.Staff().GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleAdmin, admin.Role)

	res, err = Apply(ctx, f, directory, staff, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.StaffCreated)
	assert.Equal(t, 1, res.StaffSkipped)
}

func TestApplyStopsOnInvalidStaff(t *testing.T) {
	store := memory.NewStore()
	staff := service.NewStaffService(config.Config{Auth: config.AuthConfig{BcryptCost: 4}}, store.Staff())
	f := &File{Staff: []StaffRow{{Name: "X", Username: "x", Password: "long-enough", Role: "clerk"}}}

	_, err := Apply(context.Background(), f, nil, staff, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create staff "x"`)
}

func TestReadEmployeesCSV(t *testing.T) {
	t.Run("header selects columns", func(t *testing.T) {
		in := "\ufeffSR_NO,EMPLOYEE_NAME,HRMS_ID\n1,Ravi Kumar,abcdef\n2,Sunita Devi,GHIJKL\n"
		rows, err := ReadEmployeesCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []domain.Employee{
			{HRMSID: "abcdef", Name: "Ravi Kumar"},
			{HRMSID: "GHIJKL", Name: "Sunita Devi"},
		}, rows)
	})

	t.Run("no header uses first two columns", func(t *testing.T) {
		rows, err := ReadEmployeesCSV(strings.NewReader("ABCDEF,Ravi Kumar\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.Employee{{HRMSID: "ABCDEF", Name: "Ravi Kumar"}}, rows)
	})

	t.Run("byte order mark without header", func(t *testing.T) {
		rows, err := ReadEmployeesCSV(strings.NewReader("\ufeffABCDEF,Ravi Kumar\nGHIJKL,Sunita Devi\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.Employee{
			{HRMSID: "ABCDEF", Name: "Ravi Kumar"},
			{HRMSID: "GHIJKL", Name: "Sunita Devi"},
		}, rows)
	})

	t.Run("byte order mark before id header", func(t *testing.T) {
		rows, err := ReadEmployeesCSV(strings.NewReader("\ufeffHRMS_ID,EMPLOYEE_NAME\nABCDEF,Ravi Kumar\n"))
		require.NoError(t, err)
		assert.Equal(t, []domain.Employee{{HRMSID: "ABCDEF", Name: "Ravi Kumar"}}, rows)
	})

	t.Run("short row", func(t *testing.T) {
		_, err := ReadEmployeesCSV(strings.NewReader("HRMS_ID,EMPLOYEE_NAME\nABCDEF\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("empty input", func(t *testing.T) {
		rows, err := ReadEmployeesCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
