package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// CarrierDocumentCreatedEvent signals a document entering the workflow.
type CarrierDocumentCreatedEvent struct {
	DocumentID   uuid.UUID          `json:"document_id"`
	DocumentType enums.DocumentType `json:"document_type"`
	MatrixID     uuid.UUID          `json:"matrix_id"`
	OwnerID      uuid.UUID          `json:"owner_id"`
}

// ApprovalStageAdvancedEvent is emitted when an approval moves the document to
// the next level without finalizing it.
type ApprovalStageAdvancedEvent struct {
	DocumentID    uuid.UUID `json:"document_id"`
	MatrixID      uuid.UUID `json:"matrix_id"`
	FromLevel     int       `json:"from_level"`
	ToLevel       int       `json:"to_level"`
	WorkflowState string    `json:"workflow_state"`
	NextActionBy  string    `json:"next_action_by,omitempty"`
	ApprovedBy    uuid.UUID `json:"approved_by"`
}

// ApprovalFinalizedEvent surfaces the terminal approval of a document.
type ApprovalFinalizedEvent struct {
	DocumentID    uuid.UUID `json:"document_id"`
	MatrixID      uuid.UUID `json:"matrix_id"`
	FinalLevel    int       `json:"final_level"`
	WorkflowState string    `json:"workflow_state"`
	ApprovedBy    uuid.UUID `json:"approved_by"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

// ApprovalRejectedEvent is emitted when any level rejects the document.
type ApprovalRejectedEvent struct {
	DocumentID    uuid.UUID `json:"document_id"`
	MatrixID      uuid.UUID `json:"matrix_id"`
	Level         int       `json:"level"`
	WorkflowState string    `json:"workflow_state"`
	RejectedBy    uuid.UUID `json:"rejected_by"`
	Remark        string    `json:"remark,omitempty"`
}

// ChangeRequestOpenedEvent records an approver asking the owner for changes.
type ChangeRequestOpenedEvent struct {
	DocumentID  uuid.UUID `json:"document_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
	Description string    `json:"description"`
}

// ChangeRequestCompletedEvent records the owner resolving a change request.
type ChangeRequestCompletedEvent struct {
	DocumentID  uuid.UUID `json:"document_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// NotificationRequestedEvent tells downstream systems to alert a user or role.
type NotificationRequestedEvent struct {
	DocumentID    uuid.UUID              `json:"document_id"`
	RecipientID   *uuid.UUID             `json:"recipient_id,omitempty"`
	RecipientRole string                 `json:"recipient_role,omitempty"`
	Type          enums.NotificationType `json:"type"`
}

// ApprovalMatrixActivatedEvent is emitted when a matrix becomes active for its
// document type.
type ApprovalMatrixActivatedEvent struct {
	MatrixID     uuid.UUID          `json:"matrix_id"`
	DocumentType enums.DocumentType `json:"document_type"`
	LevelCount   int                `json:"level_count"`
	ActivatedBy  uuid.UUID          `json:"activated_by"`
}
