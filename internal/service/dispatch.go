package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tillpoint/messaging-backend/internal/logger"
	"github.com/tillpoint/messaging-backend/internal/queue"
)

// DispatchStatus tags the real outcome of a single dispatch attempt.
// The stored queue-entry status intentionally collapses these (see
// QueueService.Send); API callers get the accurate value.
type DispatchStatus string

const (
	DispatchSent    DispatchStatus = "sent"
	DispatchSkipped DispatchStatus = "skipped"
	DispatchFailed  DispatchStatus = "failed"
)

// DispatchOutcome reports what actually happened to one message.
type DispatchOutcome struct {
	Status DispatchStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
	Err    error          `json:"-"`
}

// ErrorMessage returns the provider error text, if any.
func (o DispatchOutcome) ErrorMessage() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return ""
}

// publishDelivery emits a delivery event for the audit log. Best-effort:
// a publish failure is logged and swallowed so it never affects the send.
func publishDelivery(q queue.Queue, evt queue.DeliveryEvent) {
	if q == nil {
		return
	}
	evt.EventID = uuid.NewString()
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.L().Warn("marshal delivery event", zap.Error(err))
		return
	}
	if err := q.Publish(queue.TopicDeliveryLogged, payload); err != nil {
		logger.L().Warn("publish delivery event",
			zap.String("topic", queue.TopicDeliveryLogged), zap.Error(err))
	}
}

// nowOrDefault lets tests pin the clock.
func nowOrDefault(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
