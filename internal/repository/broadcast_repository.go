package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

type BroadcastRepositoryInterface interface {
	Create(b *model.Broadcast) error
	Update(b *model.Broadcast) error
	Delete(tenantID, id int) error
	GetByID(tenantID, id int) (*model.Broadcast, error)
	List(tenantID, offset, limit int, channel, status string) ([]*model.Broadcast, int, error)
	ClaimSending(tenantID, id int) (bool, error)
	Finalize(b *model.Broadcast) error
	InsertMessage(m *model.BroadcastMessage) error
	ListMessages(broadcastID int) ([]model.BroadcastMessage, error)
	GetStats(broadcastID int) (map[string]int, error)
}

type BroadcastRepository struct {
	DB *sql.DB
}

func (r *BroadcastRepository) Create(b *model.Broadcast) error {
	b.CreatedAt = time.Now()
	if b.Status == "" {
		b.Status = model.BroadcastStatusDraft
	}
	query := `
        INSERT INTO broadcasts (tenant_id, name, channel, template_id, custom_body, custom_subject,
                                target_type, target_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		b.TenantID, b.Name, b.Channel, b.TemplateID, b.CustomBody, b.CustomSubject,
		b.TargetType, b.TargetID, b.Status, b.CreatedAt,
	).Scan(&b.ID)
}

// Update rewrites a draft's definition fields. The draft guard is in the
// WHERE clause so an already-claimed broadcast cannot be edited.
func (r *BroadcastRepository) Update(b *model.Broadcast) error {
	query := `
        UPDATE broadcasts
        SET name=$1, channel=$2, template_id=$3, custom_body=$4, custom_subject=$5,
            target_type=$6, target_id=$7, updated_at=NOW()
        WHERE tenant_id=$8 AND id=$9 AND status='draft'
    `
	res, err := r.DB.Exec(query,
		b.Name, b.Channel, b.TemplateID, b.CustomBody, b.CustomSubject,
		b.TargetType, b.TargetID, b.TenantID, b.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("broadcast", b.ID)
	}
	return nil
}

// Delete removes a draft. Sent broadcasts keep their audit rows and are
// never deleted.
func (r *BroadcastRepository) Delete(tenantID, id int) error {
	res, err := r.DB.Exec(`DELETE FROM broadcasts WHERE tenant_id=$1 AND id=$2 AND status='draft'`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("broadcast", id)
	}
	return nil
}

const broadcastColumns = `id, tenant_id, name, channel, template_id, custom_body, custom_subject,
        target_type, target_id, status, total_recipients, sent_count, failed_count, skipped_count,
        sent_at, created_at, updated_at`

func scanBroadcast(row interface{ Scan(...any) error }) (*model.Broadcast, error) {
	var b model.Broadcast
	err := row.Scan(
		&b.ID, &b.TenantID, &b.Name, &b.Channel, &b.TemplateID, &b.CustomBody, &b.CustomSubject,
		&b.TargetType, &b.TargetID, &b.Status, &b.TotalRecipients, &b.SentCount, &b.FailedCount,
		&b.SkippedCount, &b.SentAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BroadcastRepository) GetByID(tenantID, id int) (*model.Broadcast, error) {
	query := `SELECT ` + broadcastColumns + ` FROM broadcasts WHERE tenant_id=$1 AND id=$2`
	b, err := scanBroadcast(r.DB.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("broadcast", id)
		}
		return nil, err
	}
	return b, nil
}

func (r *BroadcastRepository) List(tenantID, offset, limit int, channel, status string) ([]*model.Broadcast, int, error) {
	broadcasts := []*model.Broadcast{}
	query := `SELECT ` + broadcastColumns + ` FROM broadcasts WHERE tenant_id=$1`
	args := []interface{}{tenantID}
	argPos := 2

	if channel != "" {
		query += fmt.Sprintf(" AND channel=$%d", argPos)
		args = append(args, channel)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, 0, err
		}
		broadcasts = append(broadcasts, b)
	}

	countQuery := `SELECT COUNT(*) FROM broadcasts WHERE tenant_id=$1`
	argsCount := []interface{}{tenantID}
	argPosCount := 2
	if channel != "" {
		countQuery += fmt.Sprintf(" AND channel=$%d", argPosCount)
		argsCount = append(argsCount, channel)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return broadcasts, total, nil
}

// ClaimSending moves draft -> sending with a compare-and-swap so two
// concurrent send calls cannot both claim the broadcast.
func (r *BroadcastRepository) ClaimSending(tenantID, id int) (bool, error) {
	query := `
        UPDATE broadcasts SET status='sending', updated_at=NOW()
        WHERE tenant_id=$1 AND id=$2 AND status='draft'
    `
	res, err := r.DB.Exec(query, tenantID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Finalize writes the aggregate counters and terminal status.
func (r *BroadcastRepository) Finalize(b *model.Broadcast) error {
	query := `
        UPDATE broadcasts
        SET status=$1, total_recipients=$2, sent_count=$3, failed_count=$4,
            skipped_count=$5, sent_at=$6, updated_at=NOW()
        WHERE tenant_id=$7 AND id=$8
    `
	_, err := r.DB.Exec(query,
		b.Status, b.TotalRecipients, b.SentCount, b.FailedCount,
		b.SkippedCount, b.SentAt, b.TenantID, b.ID,
	)
	return err
}

func (r *BroadcastRepository) InsertMessage(m *model.BroadcastMessage) error {
	m.CreatedAt = time.Now()
	query := `
        INSERT INTO broadcast_messages (broadcast_id, client_id, channel, recipient,
                                        rendered_subject, rendered_body, status, error_message, sent_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		m.BroadcastID, m.ClientID, m.Channel, m.Recipient,
		m.RenderedSubject, m.RenderedBody, m.Status, m.ErrorMessage, m.SentAt, m.CreatedAt,
	).Scan(&m.ID)
}

func (r *BroadcastRepository) ListMessages(broadcastID int) ([]model.BroadcastMessage, error) {
	query := `
        SELECT id, broadcast_id, client_id, channel, recipient, rendered_subject, rendered_body,
               status, error_message, sent_at, created_at
        FROM broadcast_messages WHERE broadcast_id=$1 ORDER BY id
    `
	rows, err := r.DB.Query(query, broadcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.BroadcastMessage{}
	for rows.Next() {
		var m model.BroadcastMessage
		if err := rows.Scan(
			&m.ID, &m.BroadcastID, &m.ClientID, &m.Channel, &m.Recipient,
			&m.RenderedSubject, &m.RenderedBody, &m.Status, &m.ErrorMessage, &m.SentAt, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *BroadcastRepository) GetStats(broadcastID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM broadcast_messages WHERE broadcast_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, broadcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"sent": 0, "failed": 0, "skipped": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ BroadcastRepositoryInterface = (*BroadcastRepository)(nil)
