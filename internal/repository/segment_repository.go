package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

// SegmentRepositoryInterface covers the tag and segment reads audience
// resolution needs.
type SegmentRepositoryInterface interface {
	ListTags(tenantID int) ([]model.ClientTag, error)
	ListSegments(tenantID int) ([]model.ClientSegment, error)
	GetSegment(tenantID, id int) (*model.ClientSegment, error)
	ClientsByTag(tenantID, tagID int) ([]model.Client, error)
	ClientsHoldingAllTags(tenantID int, tagIDs []int) ([]model.Client, error)
}

type SegmentRepository struct {
	DB *sql.DB
}

func (r *SegmentRepository) ListTags(tenantID int) ([]model.ClientTag, error) {
	rows, err := r.DB.Query(`SELECT id, tenant_id, name FROM client_tags WHERE tenant_id=$1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []model.ClientTag{}
	for rows.Next() {
		var t model.ClientTag
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *SegmentRepository) ListSegments(tenantID int) ([]model.ClientSegment, error) {
	query := `SELECT id, tenant_id, name, filter_criteria, created_at FROM client_segments WHERE tenant_id=$1 ORDER BY name`
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := []model.ClientSegment{}
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *s)
	}
	return segments, rows.Err()
}

func (r *SegmentRepository) GetSegment(tenantID, id int) (*model.ClientSegment, error) {
	query := `SELECT id, tenant_id, name, filter_criteria, created_at FROM client_segments WHERE tenant_id=$1 AND id=$2`
	s, err := scanSegment(r.DB.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("segment", id)
		}
		return nil, err
	}
	return s, nil
}

func scanSegment(row interface{ Scan(...any) error }) (*model.ClientSegment, error) {
	var s model.ClientSegment
	var criteria []byte
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &criteria, &s.CreatedAt); err != nil {
		return nil, err
	}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &s.FilterCriteria); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (r *SegmentRepository) ClientsByTag(tenantID, tagID int) ([]model.Client, error) {
	query := `
        SELECT c.id, c.tenant_id, c.first_name, c.last_name, c.email, c.phone, c.notes, c.created_at
        FROM clients c
        JOIN client_tag_assignments a ON a.client_id = c.id
        WHERE c.tenant_id=$1 AND a.tag_id=$2
        ORDER BY c.id
    `
	return r.queryClients(query, tenantID, tagID)
}

// ClientsHoldingAllTags returns clients that hold every tag in tagIDs.
// Assignments are unique per (client, tag), so the distinct count equals
// the number of listed tags only for clients holding all of them.
func (r *SegmentRepository) ClientsHoldingAllTags(tenantID int, tagIDs []int) ([]model.Client, error) {
	query := `
        SELECT c.id, c.tenant_id, c.first_name, c.last_name, c.email, c.phone, c.notes, c.created_at
        FROM clients c
        JOIN client_tag_assignments a ON a.client_id = c.id
        WHERE c.tenant_id=$1 AND a.tag_id = ANY($2)
        GROUP BY c.id
        HAVING COUNT(DISTINCT a.tag_id) >= $3
        ORDER BY c.id
    `
	return r.queryClients(query, tenantID, pq.Array(tagIDs), len(tagIDs))
}

func (r *SegmentRepository) queryClients(query string, args ...any) ([]model.Client, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

var _ SegmentRepositoryInterface = (*SegmentRepository)(nil)
