package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

// Queue read filters.
const (
	QueueFilterReady    = "ready"
	QueueFilterUpcoming = "upcoming"
	QueueFilterAll      = "all"
)

type QueueRepositoryInterface interface {
	Insert(e *model.QueueEntry) error
	GetByID(tenantID, id int) (*model.QueueEntry, error)
	ListPending(tenantID int, filter string, now time.Time, limit int) ([]model.QueueEntryDetail, error)
	ListActiveByClient(tenantID, clientID int) ([]model.QueueEntry, error)
	MarkActed(tenantID, id int, status string, actedAt time.Time) error
}

type QueueRepository struct {
	DB *sql.DB
}

func (r *QueueRepository) Insert(e *model.QueueEntry) error {
	e.CreatedAt = time.Now()
	if e.Status == "" {
		e.Status = model.QueueStatusPending
	}
	query := `
        INSERT INTO workflow_queue (tenant_id, client_id, workflow_step_id, channel, scheduled_for, status, message_body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		e.TenantID, e.ClientID, e.WorkflowStepID, e.Channel,
		e.ScheduledFor, e.Status, e.MessageBody, e.CreatedAt,
	).Scan(&e.ID)
}

func (r *QueueRepository) GetByID(tenantID, id int) (*model.QueueEntry, error) {
	query := `
        SELECT id, tenant_id, client_id, workflow_step_id, channel, scheduled_for, status, message_body, acted_at, created_at
        FROM workflow_queue WHERE tenant_id=$1 AND id=$2
    `
	var e model.QueueEntry
	err := r.DB.QueryRow(query, tenantID, id).Scan(
		&e.ID, &e.TenantID, &e.ClientID, &e.WorkflowStepID, &e.Channel,
		&e.ScheduledFor, &e.Status, &e.MessageBody, &e.ActedAt, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("queue entry", id)
		}
		return nil, err
	}
	return &e, nil
}

// ListPending returns pending entries joined with client display fields,
// narrowed by the time filter, ordered by scheduled_for ascending.
func (r *QueueRepository) ListPending(tenantID int, filter string, now time.Time, limit int) ([]model.QueueEntryDetail, error) {
	query := `
        SELECT q.id, q.tenant_id, q.client_id, q.workflow_step_id, q.channel,
               q.scheduled_for, q.status, q.message_body, q.acted_at, q.created_at,
               c.first_name, c.last_name, c.phone, c.email
        FROM workflow_queue q
        JOIN clients c ON c.id = q.client_id
        WHERE q.tenant_id=$1 AND q.status='pending'
    `
	args := []interface{}{tenantID}
	argPos := 2

	switch filter {
	case QueueFilterReady:
		query += fmt.Sprintf(" AND q.scheduled_for <= $%d", argPos)
		args = append(args, now)
		argPos++
	case QueueFilterUpcoming:
		query += fmt.Sprintf(" AND q.scheduled_for > $%d", argPos)
		args = append(args, now)
		argPos++
	case QueueFilterAll, "":
		// all pending, unfiltered by time
	default:
		return nil, appErrors.NewValidation("unknown queue filter %q", filter)
	}

	query += fmt.Sprintf(" ORDER BY q.scheduled_for ASC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.QueueEntryDetail{}
	for rows.Next() {
		var e model.QueueEntryDetail
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ClientID, &e.WorkflowStepID, &e.Channel,
			&e.ScheduledFor, &e.Status, &e.MessageBody, &e.ActedAt, &e.CreatedAt,
			&e.ClientFirstName, &e.ClientLastName, &e.ClientPhone, &e.ClientEmail,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListActiveByClient returns the client's not-yet-acted entries. The
// 'ready' status only exists in rows migrated from older data; this store
// writes 'pending' exclusively.
func (r *QueueRepository) ListActiveByClient(tenantID, clientID int) ([]model.QueueEntry, error) {
	query := `
        SELECT id, tenant_id, client_id, workflow_step_id, channel, scheduled_for, status, message_body, acted_at, created_at
        FROM workflow_queue
        WHERE tenant_id=$1 AND client_id=$2 AND status IN ('pending', 'ready')
    `
	rows, err := r.DB.Query(query, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.QueueEntry{}
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ClientID, &e.WorkflowStepID, &e.Channel,
			&e.ScheduledFor, &e.Status, &e.MessageBody, &e.ActedAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkActed records the single transition out of pending.
func (r *QueueRepository) MarkActed(tenantID, id int, status string, actedAt time.Time) error {
	query := `UPDATE workflow_queue SET status=$1, acted_at=$2 WHERE tenant_id=$3 AND id=$4`
	res, err := r.DB.Exec(query, status, actedAt, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("queue entry", id)
	}
	return nil
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
