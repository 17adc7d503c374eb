package dto

import (
	"time"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// EmployeeResponse is the result of an HRMS ID lookup.
type EmployeeResponse struct {
	HRMSID string `json:"hrms_id"`
	Name   string `json:"name"`
}

// FormOptionsResponse lists the registration dropdowns.
type FormOptionsResponse struct {
	Designations   []string `json:"designations"`
	Trades         []string `json:"trades"`
	GrievanceTypes []string `json:"grievance_types"`
}

// SubmitGrievanceRequest payload.
type SubmitGrievanceRequest struct {
	HRMSID        string `json:"hrms_id" form:"hrms_id"`
	EmployeeNo    string `json:"emp_no" form:"emp_no"`
	Designation   string `json:"designation" form:"designation"`
	Trade         string `json:"trade" form:"trade"`
	Section       string `json:"section" form:"section"`
	GrievanceType string `json:"grievance_type" form:"grievance_type"`
	Text          string `json:"grievance_text" form:"grievance_text"`
}

// GrievanceSummary is the public view of a grievance.
type GrievanceSummary struct {
	ReferenceNo   string                 `json:"reference_no"`
	SubmittedAt   time.Time              `json:"submitted_at"`
	DateTime      string                 `json:"date_time"`
	HRMSID        string                 `json:"hrms_id"`
	EmployeeName  string                 `json:"employee_name"`
	GrievanceType string                 `json:"grievance_type"`
	Status        domain.GrievanceStatus `json:"status"`
	Resolution    string                 `json:"resolution,omitempty"`
	ResolvedAt    *time.Time             `json:"resolved_at,omitempty"`
}

// GrievanceDetail is the dashboard view of a grievance.
type GrievanceDetail struct {
	ID            string                 `json:"id"`
	ReferenceNo   string                 `json:"reference_no"`
	SubmittedAt   time.Time              `json:"submitted_at"`
	DateTime      string                 `json:"date_time"`
	HRMSID        string                 `json:"hrms_id"`
	EmployeeName  string                 `json:"employee_name"`
	EmployeeNo    string                 `json:"emp_no"`
	Designation   string                 `json:"designation"`
	Trade         string                 `json:"trade"`
	Section       string                 `json:"section"`
	GrievanceType string                 `json:"grievance_type"`
	Text          string                 `json:"grievance_text"`
	Status        domain.GrievanceStatus `json:"status"`
	AssignedTo    *string                `json:"assigned_to"`
	AssignedBy    *string                `json:"assigned_by"`
	AssignedAt    *time.Time             `json:"assigned_at"`
	Remark        string                 `json:"remark"`
	Resolution    string                 `json:"resolution"`
	ResolvedBy    *string                `json:"resolved_by"`
	ResolvedAt    *time.Time             `json:"resolved_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// AssignRequest payload.
type AssignRequest struct {
	OfficerID string `json:"officer_id"`
	Remark    string `json:"remark"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	Resolution string `json:"resolution"`
}

// SummaryResponse counts grievances per status.
type SummaryResponse struct {
	Total  int64                            `json:"total"`
	Counts map[domain.GrievanceStatus]int64 `json:"counts"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID          string                     `json:"id"`
	ChangeType  domain.GrievanceChangeType `json:"change_type"`
	ChangedByID *string                    `json:"changed_by_id"`
	OldStatus   *domain.GrievanceStatus    `json:"old_status"`
	NewStatus   domain.GrievanceStatus     `json:"new_status"`
	Note        string                     `json:"note,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
}
