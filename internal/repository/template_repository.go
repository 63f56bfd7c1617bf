package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.MessageTemplate) error
	Update(t *model.MessageTemplate) error
	Delete(tenantID, id int) error
	GetByID(tenantID, id int) (*model.MessageTemplate, error)
	GetByName(tenantID int, name string) (*model.MessageTemplate, error)
	ListByTenant(tenantID int) ([]model.MessageTemplate, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.MessageTemplate) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO message_templates (tenant_id, name, channel, subject, body, category, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query, t.TenantID, t.Name, t.Channel, t.Subject, t.Body, t.Category, t.CreatedAt).Scan(&t.ID)
}

func (r *TemplateRepository) Update(t *model.MessageTemplate) error {
	query := `
        UPDATE message_templates
        SET name=$1, channel=$2, subject=$3, body=$4, category=$5
        WHERE tenant_id=$6 AND id=$7
    `
	res, err := r.DB.Exec(query, t.Name, t.Channel, t.Subject, t.Body, t.Category, t.TenantID, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("message template", t.ID)
	}
	return nil
}

func (r *TemplateRepository) Delete(tenantID, id int) error {
	res, err := r.DB.Exec(`DELETE FROM message_templates WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("message template", id)
	}
	return nil
}

func (r *TemplateRepository) GetByID(tenantID, id int) (*model.MessageTemplate, error) {
	query := `
        SELECT id, tenant_id, name, channel, subject, body, category, created_at
        FROM message_templates WHERE tenant_id=$1 AND id=$2
    `
	var t model.MessageTemplate
	err := r.DB.QueryRow(query, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Channel, &t.Subject, &t.Body, &t.Category, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("message template", id)
		}
		return nil, err
	}
	return &t, nil
}

// GetByName returns nil when no template carries the name; workflow steps
// fall back to using the name as a literal body in that case.
func (r *TemplateRepository) GetByName(tenantID int, name string) (*model.MessageTemplate, error) {
	query := `
        SELECT id, tenant_id, name, channel, subject, body, category, created_at
        FROM message_templates WHERE tenant_id=$1 AND name=$2
    `
	var t model.MessageTemplate
	err := r.DB.QueryRow(query, tenantID, name).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Channel, &t.Subject, &t.Body, &t.Category, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListByTenant(tenantID int) ([]model.MessageTemplate, error) {
	query := `
        SELECT id, tenant_id, name, channel, subject, body, category, created_at
        FROM message_templates WHERE tenant_id=$1 ORDER BY name
    `
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.MessageTemplate{}
	for rows.Next() {
		var t model.MessageTemplate
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Channel, &t.Subject, &t.Body, &t.Category, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
