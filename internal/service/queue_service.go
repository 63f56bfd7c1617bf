package service

import (
	"context"
	"time"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
	"github.com/tillpoint/messaging-backend/internal/provider"
	"github.com/tillpoint/messaging-backend/internal/queue"
	"github.com/tillpoint/messaging-backend/internal/repository"
)

// queuePageSize caps every queue read.
const queuePageSize = 100

// QueueService is the executor side of the workflow queue: it surfaces due
// entries and dispatches them on demand. Nothing fires automatically;
// scheduled_for is inert until a caller asks for ready items.
type QueueService struct {
	Entries   repository.QueueRepositoryInterface
	Clients   repository.ClientRepositoryInterface
	Providers provider.Dispatcher
	Events    queue.Queue

	Now func() time.Time
}

// List returns pending entries for the filter: "ready" (due now),
// "upcoming" (due later), or "all"/empty (every pending entry), ordered by
// scheduled time.
func (s *QueueService) List(tenantID int, filter string) ([]model.QueueEntryDetail, error) {
	return s.Entries.ListPending(tenantID, filter, nowOrDefault(s.Now), queuePageSize)
}

// Send dispatches one entry's pre-rendered body through the channel
// provider. The stored row is marked sent on every attempted dispatch,
// matching the legacy contract; the returned outcome carries what really
// happened (sent, skipped with reason, or failed with the provider error).
func (s *QueueService) Send(ctx context.Context, tenantID, entryID int) (*DispatchOutcome, error) {
	entry, err := s.Entries.GetByID(tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != model.QueueStatusPending {
		return nil, appErrors.NewConflict("queue entry %d has already been %s", entryID, entry.Status)
	}

	client, err := s.Clients.GetByID(tenantID, entry.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, appErrors.NewNotFound("client", entry.ClientID)
	}

	outcome := s.dispatch(ctx, entry, client)

	actedAt := nowOrDefault(s.Now)
	if err := s.Entries.MarkActed(tenantID, entryID, model.QueueStatusSent, actedAt); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *QueueService) dispatch(ctx context.Context, entry *model.QueueEntry, client *model.Client) *DispatchOutcome {
	to := client.Contact(entry.Channel)
	if to == "" {
		return &DispatchOutcome{
			Status: DispatchSkipped,
			Reason: "client has no " + contactLabel(entry.Channel),
		}
	}

	delivered, err := s.Providers.Send(ctx, entry.Channel, to, "", entry.MessageBody)
	if err != nil {
		return &DispatchOutcome{Status: DispatchFailed, Err: appErrors.NewProvider(entry.Channel, err)}
	}
	if !delivered {
		return &DispatchOutcome{
			Status: DispatchSkipped,
			Reason: entry.Channel + " provider not configured",
		}
	}

	publishDelivery(s.Events, queue.DeliveryEvent{
		TenantID:  entry.TenantID,
		ClientID:  client.ID,
		Channel:   entry.Channel,
		Recipient: to,
		Body:      entry.MessageBody,
		Source:    model.DeliverySourceQueue,
		SourceID:  entry.ID,
		SentAt:    nowOrDefault(s.Now),
	})
	return &DispatchOutcome{Status: DispatchSent}
}

// Skip marks the entry skipped without attempting delivery.
func (s *QueueService) Skip(tenantID, entryID int) error {
	entry, err := s.Entries.GetByID(tenantID, entryID)
	if err != nil {
		return err
	}
	if entry.Status != model.QueueStatusPending {
		return appErrors.NewConflict("queue entry %d has already been %s", entryID, entry.Status)
	}
	return s.Entries.MarkActed(tenantID, entryID, model.QueueStatusSkipped, nowOrDefault(s.Now))
}

func contactLabel(channel string) string {
	if channel == "sms" {
		return "phone number"
	}
	return "email address"
}
