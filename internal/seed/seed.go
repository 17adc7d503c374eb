package seed

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/service"
	apperrors "github.com/amv-gms/grievance-service/pkg/util"
)

// File is the YAML seed document for a fresh installation.
type File struct {
	Employees []EmployeeRow `yaml:"employees"`
	Dropdowns []Dropdown    `yaml:"dropdowns"`
	Staff     []StaffRow    `yaml:"staff"`
}

// EmployeeRow mirrors one line of the employee mapping sheet.
type EmployeeRow struct {
	HRMSID string `yaml:"hrms_id"`
	Name   string `yaml:"name"`
}

// Dropdown is an ordered value list for one category.
type Dropdown struct {
	Category string   `yaml:"category"`
	Values   []string `yaml:"values"`
}

// StaffRow describes an account created when missing.
type StaffRow struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Result counts what Apply wrote.
type Result struct {
	Employees     int64
	DropdownItems int64
	StaffCreated  int
	StaffSkipped  int
}

// Load reads and decodes a seed file. Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses a seed document from r.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// EmployeeList converts the YAML rows to domain employees.
func (f *File) EmployeeList() []domain.Employee {
	out := make([]domain.Employee, 0, len(f.Employees))
	for _, row := range f.Employees {
		out = append(out, domain.Employee{HRMSID: row.HRMSID, Name: row.Name})
	}
	return out
}

// DropdownItems flattens the category lists, keeping file order.
func (f *File) DropdownItems() []domain.DropdownItem {
	var out []domain.DropdownItem
	for _, d := range f.Dropdowns {
		category := domain.NormalizeDropdownCategory(d.Category)
		for _, v := range d.Values {
			out = append(out, domain.DropdownItem{Category: category, Value: v})
		}
	}
	return out
}

// Apply loads the file into the directory and creates missing staff accounts.
// Employee and dropdown sections replace their tables only when present.
func Apply(ctx context.Context, f *File, directory *service.DirectoryService, staff *service.StaffService, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	var err error
	if len(f.Employees) > 0 {
		if res.Employees, err = directory.ImportEmployees(ctx, f.EmployeeList()); err != nil {
			return res, fmt.Errorf("import employees: %w", err)
		}
	}
	if len(f.Dropdowns) > 0 {
		if res.DropdownItems, err = directory.ImportDropdowns(ctx, f.DropdownItems()); err != nil {
			return res, fmt.Errorf("import dropdowns: %w", err)
		}
	}
	for _, row := range f.Staff {
		_, err := staff.Bootstrap(ctx, service.CreateStaffInput{
			Name:     row.Name,
			Username: row.Username,
			Password: row.Password,
			Role:     domain.StaffRole(strings.ToUpper(strings.TrimSpace(row.Role))),
		})
		if apperrors.IsCode(err, "CONFLICT") {
			logger.Info("staff account exists; skipped", zap.String("username", row.Username))
			res.StaffSkipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create staff %q: %w", row.Username, err)
		}
		res.StaffCreated++
	}
	return res, nil
}

// ReadEmployeesCSV parses a CSV export of the employee sheet. A header row
// naming HRMS_ID and EMPLOYEE_NAME selects the columns; without one the first
// two columns are used.
func ReadEmployeesCSV(r io.Reader) ([]domain.Employee, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read employee csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Spreadsheet exports often lead with a byte order mark.
	if len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}

	idCol, nameCol := 0, 1
	start := 0
	if i, j, ok := headerColumns(records[0]); ok {
		idCol, nameCol, start = i, j, 1
	}

	out := make([]domain.Employee, 0, len(records)-start)
	for n, rec := range records[start:] {
		if len(rec) <= idCol || len(rec) <= nameCol {
			return nil, fmt.Errorf("employee csv line %d: expected at least %d columns", n+start+1, max(idCol, nameCol)+1)
		}
		out = append(out, domain.Employee{HRMSID: rec[idCol], Name: rec[nameCol]})
	}
	return out, nil
}

func headerColumns(header []string) (int, int, bool) {
	idCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case "HRMS_ID":
			idCol = i
		case "EMPLOYEE_NAME":
			nameCol = i
		}
	}
	return idCol, nameCol, idCol >= 0 && nameCol >= 0
}
