package enums

import "fmt"

// ApproverType describes how an approval level designates its approver.
type ApproverType string

const (
	ApproverTypeRole ApproverType = "role"
	ApproverTypeUser ApproverType = "user"
)

var validApproverTypes = []ApproverType{
	ApproverTypeRole,
	ApproverTypeUser,
}

// String implements fmt.Stringer.
func (a ApproverType) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical approver_type enum.
func (a ApproverType) IsValid() bool {
	for _, candidate := range validApproverTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApproverType converts raw input into ApproverType.
func ParseApproverType(value string) (ApproverType, error) {
	for _, candidate := range validApproverTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approver type %q", value)
}
