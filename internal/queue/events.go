package queue

import "time"

// TopicDeliveryLogged carries one event per message a provider accepted.
const TopicDeliveryLogged = "delivery.logged"

// DeliveryEvent is the payload published on TopicDeliveryLogged and
// consumed by the worker into the delivery_logs table.
type DeliveryEvent struct {
	EventID   string    `json:"event_id"`
	TenantID  int       `json:"tenant_id"`
	ClientID  int       `json:"client_id"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Body      string    `json:"body"`
	Source    string    `json:"source"`
	SourceID  int       `json:"source_id"`
	SentAt    time.Time `json:"sent_at"`
}
