package domain

// SubjectType differentiates token subjects. Only staff authenticate.
type SubjectType string

const (
	SubjectTypeStaff SubjectType = "STAFF"
)
