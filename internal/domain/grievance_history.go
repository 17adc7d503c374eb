package domain

import "time"

// GrievanceChangeType captures what changed in a history entry.
type GrievanceChangeType string

const (
	ChangeTypeRegistered GrievanceChangeType = "REGISTERED"
	ChangeTypeAssigned   GrievanceChangeType = "ASSIGNED"
	ChangeTypeResolved   GrievanceChangeType = "RESOLVED"
)

// GrievanceHistory is an immutable audit trail entry.
type GrievanceHistory struct {
	ID          string
	GrievanceID string
	ChangedByID *string
	ChangeType  GrievanceChangeType
	OldStatus   *GrievanceStatus
	NewStatus   GrievanceStatus
	Note        string
	CreatedAt   time.Time
}
