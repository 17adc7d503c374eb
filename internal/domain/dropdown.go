package domain

import "strings"

// DropdownCategory names a list in the dropdown mapping table.
type DropdownCategory string

const (
	DropdownDesignation   DropdownCategory = "DESIGNATION"
	DropdownTrade         DropdownCategory = "TRADE"
	DropdownGrievanceType DropdownCategory = "GRIEVANCE_TYPE"
)

// SelectPlaceholder is the unselected value of every form dropdown.
const SelectPlaceholder = "--Select--"

// DropdownItem is one row of the dropdown mapping table.
type DropdownItem struct {
	Category DropdownCategory
	Value    string
}

// NormalizeDropdownCategory trims and upper-cases a category name.
func NormalizeDropdownCategory(raw string) DropdownCategory {
	return DropdownCategory(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether c is a category the registration form uses.
func (c DropdownCategory) Valid() bool {
	switch c {
	case DropdownDesignation, DropdownTrade, DropdownGrievanceType:
		return true
	}
	return false
}

// DropdownCategories lists the categories in form order.
func DropdownCategories() []DropdownCategory {
	return []DropdownCategory{DropdownDesignation, DropdownTrade, DropdownGrievanceType}
}

// UniqueValues drops blank values and duplicates, keeping first-seen order.
func UniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
