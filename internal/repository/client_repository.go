package repository

import (
	"database/sql"

	"github.com/tillpoint/messaging-backend/internal/model"
)

// ClientRepositoryInterface defines the client reads the engine needs plus
// the notes append used for the enrollment audit line.
type ClientRepositoryInterface interface {
	GetByID(tenantID, id int) (*model.Client, error)
	ListByTenant(tenantID int) ([]model.Client, error)
	AppendNote(tenantID, clientID int, note string) error
}

type ClientRepository struct {
	DB *sql.DB
}

const clientColumns = `id, tenant_id, first_name, last_name, email, phone, notes, created_at`

func scanClient(row interface{ Scan(...any) error }) (*model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID fetches a client scoped to the tenant; returns nil when missing.
func (r *ClientRepository) GetByID(tenantID, id int) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id=$1 AND id=$2`
	c, err := scanClient(r.DB.QueryRow(query, tenantID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *ClientRepository) ListByTenant(tenantID int) ([]model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id=$1 ORDER BY id`
	rows, err := r.DB.Query(query, tenantID)
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

// AppendNote adds a line to the client's notes without touching the rest.
func (r *ClientRepository) AppendNote(tenantID, clientID int, note string) error {
	query := `
        UPDATE clients
        SET notes = CASE WHEN notes = '' THEN $3 ELSE notes || E'\n' || $3 END
        WHERE tenant_id=$1 AND id=$2
    `
	_, err := r.DB.Exec(query, tenantID, clientID, note)
	return err
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)
