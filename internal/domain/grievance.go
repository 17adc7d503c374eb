package domain

import "time"

// GrievanceStatus enumerates lifecycle states for grievances.
type GrievanceStatus string

const (
	GrievanceStatusNew          GrievanceStatus = "NEW"
	GrievanceStatusUnderProcess GrievanceStatus = "UNDER PROCESS"
	GrievanceStatusResolved     GrievanceStatus = "RESOLVED"
)

// MaxGrievanceTextLength bounds the brief of grievance, counted in runes.
const MaxGrievanceTextLength = 100

// SubmittedAtLayout is the display layout of the DATE_TIME column.
const SubmittedAtLayout = "02-01-2006 15:04"

// Grievance is a single registered complaint and its processing state.
type Grievance struct {
	ID            string
	ReferenceNo   string
	SubmittedAt   time.Time
	HRMSID        string
	EmployeeName  string
	EmployeeNo    string
	Designation   string
	Trade         string
	Section       string
	GrievanceType string
	Text          string
	Status        GrievanceStatus
	AssignedTo    *string
	AssignedBy    *string
	AssignedAt    *time.Time
	Remark        string
	Resolution    string
	ResolvedBy    *string
	ResolvedAt    *time.Time
	UpdatedAt     time.Time
}

var allowedTransitions = map[GrievanceStatus]GrievanceStatus{
	GrievanceStatusNew:          GrievanceStatusUnderProcess,
	GrievanceStatusUnderProcess: GrievanceStatusResolved,
}

// Valid reports whether s is one of the known statuses.
func (s GrievanceStatus) Valid() bool {
	switch s {
	case GrievanceStatusNew, GrievanceStatusUnderProcess, GrievanceStatusResolved:
		return true
	}
	return false
}

// Terminal reports whether no further transition exists from s.
func (s GrievanceStatus) Terminal() bool {
	_, ok := allowedTransitions[s]
	return !ok
}

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to GrievanceStatus) bool {
	next, ok := allowedTransitions[from]
	return ok && next == to
}

// FormatSubmittedAt renders t the way the grievance register shows it.
func FormatSubmittedAt(t time.Time) string {
	return t.Format(SubmittedAtLayout)
}

// AllGrievanceStatuses lists statuses in lifecycle order.
func AllGrievanceStatuses() []GrievanceStatus {
	return []GrievanceStatus{GrievanceStatusNew, GrievanceStatusUnderProcess, GrievanceStatusResolved}
}
