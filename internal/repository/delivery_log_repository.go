package repository

import (
	"database/sql"
	"time"

	"github.com/tillpoint/messaging-backend/internal/model"
)

type DeliveryLogRepositoryInterface interface {
	Insert(l *model.DeliveryLog) error
}

type DeliveryLogRepository struct {
	DB *sql.DB
}

// Insert appends one delivery record. Duplicate event ids are ignored so
// a redelivered AMQP message does not double-log.
func (r *DeliveryLogRepository) Insert(l *model.DeliveryLog) error {
	l.CreatedAt = time.Now()
	query := `
        INSERT INTO delivery_logs (event_id, tenant_id, client_id, channel, recipient, body, source, source_id, sent_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (event_id) DO NOTHING
    `
	_, err := r.DB.Exec(query,
		l.EventID, l.TenantID, l.ClientID, l.Channel, l.Recipient,
		l.Body, l.Source, l.SourceID, l.SentAt, l.CreatedAt,
	)
	return err
}

var _ DeliveryLogRepositoryInterface = (*DeliveryLogRepository)(nil)
