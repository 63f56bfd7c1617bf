package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

type WorkflowRepositoryInterface interface {
	Create(w *model.WorkflowTemplate, steps []model.WorkflowStep) error
	Update(w *model.WorkflowTemplate, steps []model.WorkflowStep) error
	Delete(tenantID, id int) error
	GetByID(tenantID, id int) (*model.WorkflowTemplate, error)
	ListByTenant(tenantID int) ([]model.WorkflowTemplate, error)
	ListActiveByTrigger(tenantID int, triggerType string) ([]model.WorkflowTemplate, error)
	ListSteps(workflowID int) ([]model.WorkflowStep, error)
	CountByTenant(tenantID int) (int, error)
}

type WorkflowRepository struct {
	DB *sql.DB
}

// Create inserts the workflow and its steps in one transaction.
func (r *WorkflowRepository) Create(w *model.WorkflowTemplate, steps []model.WorkflowStep) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w.CreatedAt = time.Now()
	query := `
        INSERT INTO workflow_templates (tenant_id, name, trigger_type, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	if err := tx.QueryRow(query, w.TenantID, w.Name, w.TriggerType, w.IsActive, w.CreatedAt).Scan(&w.ID); err != nil {
		return err
	}

	if err := insertSteps(tx, w.ID, steps); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites the workflow row and replaces its step list wholesale;
// steps are never patched in place.
func (r *WorkflowRepository) Update(w *model.WorkflowTemplate, steps []model.WorkflowStep) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        UPDATE workflow_templates
        SET name=$1, trigger_type=$2, is_active=$3
        WHERE tenant_id=$4 AND id=$5
    `
	res, err := tx.Exec(query, w.Name, w.TriggerType, w.IsActive, w.TenantID, w.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("workflow", w.ID)
	}

	if _, err := tx.Exec(`DELETE FROM workflow_steps WHERE workflow_id=$1`, w.ID); err != nil {
		return err
	}
	if err := insertSteps(tx, w.ID, steps); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSteps(tx *sql.Tx, workflowID int, steps []model.WorkflowStep) error {
	query := `
        INSERT INTO workflow_steps (workflow_id, step_order, delay_hours, channel, template_name, description)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	for i := range steps {
		steps[i].WorkflowID = workflowID
		if err := tx.QueryRow(query,
			workflowID, steps[i].StepOrder, steps[i].DelayHours,
			steps[i].Channel, steps[i].TemplateName, steps[i].Description,
		).Scan(&steps[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *WorkflowRepository) Delete(tenantID, id int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM workflow_steps WHERE workflow_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM workflow_templates WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("workflow", id)
	}
	return tx.Commit()
}

func (r *WorkflowRepository) GetByID(tenantID, id int) (*model.WorkflowTemplate, error) {
	query := `
        SELECT id, tenant_id, name, trigger_type, is_active, created_at
        FROM workflow_templates WHERE tenant_id=$1 AND id=$2
    `
	var w model.WorkflowTemplate
	err := r.DB.QueryRow(query, tenantID, id).Scan(
		&w.ID, &w.TenantID, &w.Name, &w.TriggerType, &w.IsActive, &w.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("workflow", id)
		}
		return nil, err
	}
	return &w, nil
}

func (r *WorkflowRepository) ListByTenant(tenantID int) ([]model.WorkflowTemplate, error) {
	query := `
        SELECT id, tenant_id, name, trigger_type, is_active, created_at
        FROM workflow_templates WHERE tenant_id=$1 ORDER BY id
    `
	return r.queryWorkflows(query, tenantID)
}

func (r *WorkflowRepository) ListActiveByTrigger(tenantID int, triggerType string) ([]model.WorkflowTemplate, error) {
	query := `
        SELECT id, tenant_id, name, trigger_type, is_active, created_at
        FROM workflow_templates
        WHERE tenant_id=$1 AND trigger_type=$2 AND is_active=true
        ORDER BY id
    `
	return r.queryWorkflows(query, tenantID, triggerType)
}

func (r *WorkflowRepository) queryWorkflows(query string, args ...any) ([]model.WorkflowTemplate, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := []model.WorkflowTemplate{}
	for rows.Next() {
		var w model.WorkflowTemplate
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Name, &w.TriggerType, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// ListSteps returns the workflow's steps in execution order.
func (r *WorkflowRepository) ListSteps(workflowID int) ([]model.WorkflowStep, error) {
	query := `
        SELECT id, workflow_id, step_order, delay_hours, channel, template_name, description
        FROM workflow_steps WHERE workflow_id=$1 ORDER BY step_order
    `
	rows, err := r.DB.Query(query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []model.WorkflowStep{}
	for rows.Next() {
		var s model.WorkflowStep
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.StepOrder, &s.DelayHours, &s.Channel, &s.TemplateName, &s.Description); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (r *WorkflowRepository) CountByTenant(tenantID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM workflow_templates WHERE tenant_id=$1`, tenantID).Scan(&count)
	return count, err
}

var _ WorkflowRepositoryInterface = (*WorkflowRepository)(nil)
