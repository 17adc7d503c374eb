// Package web renders the employee-facing HTML pages.
//
// The markup lives in the .templ files; run `mage generate` after editing
// them to refresh the committed *_templ.go files.
package web

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/service"
)

// RegisterForm carries the values of the registration page between requests.
type RegisterForm struct {
	HRMSID        string
	EmployeeName  string
	EmployeeNo    string
	Designation   string
	Trade         string
	Section       string
	GrievanceType string
	Text          string
	Options       service.FormOptions
	Error         string
	// Problems maps a form field name to the message shown under it.
	Problems map[string]string
}

// StatusView is the status lookup page state.
type StatusView struct {
	ReferenceNo string
	Grievance   *domain.Grievance
	Error       string
}

type statusRow struct {
	Label string
	Value string
}

func statusRows(g *domain.Grievance) []statusRow {
	rows := []statusRow{
		{"Reference No.", g.ReferenceNo},
		{"Submitted", domain.FormatSubmittedAt(g.SubmittedAt)},
		{"Employee", g.EmployeeName},
		{"Grievance Type", g.GrievanceType},
		{"Status", string(g.Status)},
	}
	if g.Resolution != "" {
		rows = append(rows, statusRow{"Resolution", g.Resolution})
	}
	return rows
}

func acknowledgementURL(ref string) templ.SafeURL {
	return templ.URL("/api/grievances/" + url.PathEscape(ref) + "/acknowledgement.pdf")
}

func statusURL(ref string) templ.SafeURL {
	return templ.URL("/status?ref=" + url.QueryEscape(ref))
}
