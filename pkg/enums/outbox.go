package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCarrierDocument OutboxAggregateType = "carrier_document"
	AggregateApprovalMatrix  OutboxAggregateType = "approval_matrix"
	AggregateNotification    OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCarrierDocument,
	AggregateApprovalMatrix,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventApprovalStageAdvanced   OutboxEventType = "approval_stage_advanced"
	EventApprovalFinalized       OutboxEventType = "approval_finalized"
	EventApprovalRejected        OutboxEventType = "approval_rejected"
	EventChangeRequestOpened     OutboxEventType = "change_request_opened"
	EventChangeRequestCompleted  OutboxEventType = "change_request_completed"
	EventNotificationRequested   OutboxEventType = "notification_requested"
	EventCarrierDocumentCreated  OutboxEventType = "carrier_document_created"
	EventApprovalMatrixActivated OutboxEventType = "approval_matrix_activated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventApprovalStageAdvanced,
	EventApprovalFinalized,
	EventApprovalRejected,
	EventChangeRequestOpened,
	EventChangeRequestCompleted,
	EventNotificationRequested,
	EventCarrierDocumentCreated,
	EventApprovalMatrixActivated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason classifies why an event landed in the dead letter queue.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

// String implements fmt.Stringer.
func (r OutboxDLQErrorReason) String() string {
	return string(r)
}
