package enums

import "fmt"

// ApprovalStatus is the canonical workflow status of a carrier document.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

var validApprovalStatuses = []ApprovalStatus{
	ApprovalStatusPending,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
}

// String implements fmt.Stringer.
func (a ApprovalStatus) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical approval_status enum.
func (a ApprovalStatus) IsValid() bool {
	for _, candidate := range validApprovalStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsFinal reports whether the status is terminal. Documents in a final status
// accept no further approve/reject actions.
func (a ApprovalStatus) IsFinal() bool {
	return a == ApprovalStatusApproved || a == ApprovalStatusRejected
}

// LegacyFlag returns the 0/1 representation still stored on audit rows.
func (a ApprovalStatus) LegacyFlag() int {
	if a == ApprovalStatusApproved {
		return 1
	}
	return 0
}

// ParseApprovalStatus converts raw input into ApprovalStatus.
func ParseApprovalStatus(value string) (ApprovalStatus, error) {
	for _, candidate := range validApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval status %q", value)
}
