package domain

import (
	"errors"
	"strings"
)

// HRMSIDLength is the fixed length of an HRMS ID.
const HRMSIDLength = 6

// ErrInvalidHRMSID is returned for IDs that are not exactly six letters.
var ErrInvalidHRMSID = errors.New("hrms id must be exactly 6 alphabets")

// Employee is a row of the employee mapping table.
type Employee struct {
	HRMSID string
	Name   string
}

// NormalizeHRMSID trims and upper-cases raw input.
func NormalizeHRMSID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateHRMSID normalizes raw and checks it is six letters A-Z.
func ValidateHRMSID(raw string) (string, error) {
	id := NormalizeHRMSID(raw)
	if len(id) != HRMSIDLength {
		return "", ErrInvalidHRMSID
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 'A' || id[i] > 'Z' {
			return "", ErrInvalidHRMSID
		}
	}
	return id, nil
}
