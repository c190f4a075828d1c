package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	"github.com/meridianerp/vendorhub-backend/pkg/logger"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox/payloads"
	pkgredis "github.com/meridianerp/vendorhub-backend/pkg/redis"
)

const (
	notificationConsumerScope = "approval-notifications"
	processedMarkTTL          = 24 * time.Hour
)

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns notification_requested domain events into stored rows.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  pkgredis.IdempotencyStore
	logg         *logger.Logger
}

// NewConsumer builds the approval notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, idempotency pkgredis.IdempotencyStore, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if idempotency == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  idempotency,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	markKey := c.idempotency.IdempotencyKey(notificationConsumerScope, eventID.String())
	fresh, err := c.idempotency.SetNX(ctx, markKey, time.Now().UTC().Format(time.RFC3339), processedMarkTTL)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Del(ctx, markKey)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"document_id":       payload.DocumentID.String(),
		"notification_type": payload.Type,
	})

	if err := c.handlePayload(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Del(ctx, markKey)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handlePayload(ctx context.Context, payload payloads.NotificationRequestedEvent, logCtx context.Context) error {
	if payload.RecipientID == nil && payload.RecipientRole == "" {
		return fmt.Errorf("notification has no recipient")
	}
	if !payload.Type.IsValid() {
		return fmt.Errorf("unknown notification type %q", payload.Type)
	}

	title, message := renderNotification(payload)
	notification := &models.Notification{
		RecipientUserID: payload.RecipientID,
		Type:            payload.Type,
		Title:           title,
		Message:         message,
	}
	if payload.RecipientID == nil {
		role := payload.RecipientRole
		notification.RecipientRole = &role
	}
	if payload.DocumentID != uuid.Nil {
		documentID := payload.DocumentID
		notification.DocumentID = &documentID
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notification stored")
	return nil
}

func renderNotification(payload payloads.NotificationRequestedEvent) (string, string) {
	documentID := payload.DocumentID.String()
	switch payload.Type {
	case enums.NotificationApprovalPending:
		return "Approval needed", fmt.Sprintf("Document %s is waiting for your approval.", documentID)
	case enums.NotificationApprovalFinalized:
		return "Document approved", fmt.Sprintf("Document %s has completed all approval levels.", documentID)
	case enums.NotificationApprovalRejected:
		return "Document rejected", fmt.Sprintf("Document %s was rejected.", documentID)
	case enums.NotificationChangeRequested:
		return "Changes requested", fmt.Sprintf("Changes were requested on document %s.", documentID)
	case enums.NotificationChangeRequestCompleted:
		return "Change request resolved", fmt.Sprintf("The change request on document %s was resolved.", documentID)
	default:
		return "Workflow update", fmt.Sprintf("Document %s was updated.", documentID)
	}
}
