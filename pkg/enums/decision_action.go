package enums

import "fmt"

// DecisionAction is the verb an approver applies to a carrier document.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

var validDecisionActions = []DecisionAction{
	DecisionApprove,
	DecisionReject,
}

// String implements fmt.Stringer.
func (d DecisionAction) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DecisionAction.
func (d DecisionAction) IsValid() bool {
	for _, candidate := range validDecisionActions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDecisionAction converts raw input into DecisionAction.
func ParseDecisionAction(value string) (DecisionAction, error) {
	for _, candidate := range validDecisionActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid decision action %q", value)
}
