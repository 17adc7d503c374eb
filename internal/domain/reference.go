package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	referenceDateLayout = "20060102"
	referenceSeqWidth   = 3
)

// ErrInvalidReference is returned for strings that cannot be a Reference No.
var ErrInvalidReference = errors.New("invalid reference number")

// NewReferenceNo concatenates the submission date, HRMS ID and a zero-padded sequence.
func NewReferenceNo(at time.Time, hrmsID string, seq int) string {
	return fmt.Sprintf("%s%s%0*d", at.Format(referenceDateLayout), hrmsID, referenceSeqWidth, seq)
}

// NormalizeReferenceNo trims and upper-cases raw input.
func NormalizeReferenceNo(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseReferenceNo splits a Reference No. into its date, HRMS ID and sequence.
func ParseReferenceNo(raw string) (time.Time, string, int, error) {
	ref := NormalizeReferenceNo(raw)
	prefix := len(referenceDateLayout) + HRMSIDLength
	if len(ref) < prefix+referenceSeqWidth {
		return time.Time{}, "", 0, ErrInvalidReference
	}
	date, err := time.Parse(referenceDateLayout, ref[:len(referenceDateLayout)])
	if err != nil {
		return time.Time{}, "", 0, ErrInvalidReference
	}
	id, err := ValidateHRMSID(ref[len(referenceDateLayout):prefix])
	if err != nil {
		return time.Time{}, "", 0, ErrInvalidReference
	}
	digits := ref[prefix:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return time.Time{}, "", 0, ErrInvalidReference
		}
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq <= 0 {
		return time.Time{}, "", 0, ErrInvalidReference
	}
	return date, id, seq, nil
}
