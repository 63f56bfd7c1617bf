package repository

import (
	"database/sql"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

type TenantRepositoryInterface interface {
	GetByID(id int) (*model.Tenant, error)
}

type TenantRepository struct {
	DB *sql.DB
}

func (r *TenantRepository) GetByID(id int) (*model.Tenant, error) {
	query := `
        SELECT id, business_name, business_phone, created_at
        FROM tenants WHERE id=$1
    `
	var t model.Tenant
	err := r.DB.QueryRow(query, id).Scan(&t.ID, &t.BusinessName, &t.BusinessPhone, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("tenant", id)
		}
		return nil, err
	}
	return &t, nil
}

var _ TenantRepositoryInterface = (*TenantRepository)(nil)
