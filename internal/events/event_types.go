package events

import (
	"time"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceRegistered EventType = "grievance_registered"
	EventGrievanceAssigned   EventType = "grievance_assigned"
	EventGrievanceResolved   EventType = "grievance_resolved"
)

// Actor identifies who caused an event. Registrations are made by employees,
// identified only by HRMS ID; transitions are made by staff.
type Actor struct {
	HRMSID  *string `json:"hrms_id,omitempty"`
	StaffID *string `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ReferenceNo string      `json:"reference_no"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// GrievanceRegisteredPayload payload.
type GrievanceRegisteredPayload struct {
	EmployeeName  string `json:"employee_name"`
	GrievanceType string `json:"grievance_type"`
	Section       string `json:"section,omitempty"`
}

// GrievanceAssignedPayload payload.
type GrievanceAssignedPayload struct {
	OfficerID string                 `json:"officer_id"`
	OldStatus domain.GrievanceStatus `json:"old_status"`
	NewStatus domain.GrievanceStatus `json:"new_status"`
	Remark    string                 `json:"remark,omitempty"`
}

// GrievanceResolvedPayload payload.
type GrievanceResolvedPayload struct {
	OldStatus  domain.GrievanceStatus `json:"old_status"`
	NewStatus  domain.GrievanceStatus `json:"new_status"`
	Resolution string                 `json:"resolution"`
}
