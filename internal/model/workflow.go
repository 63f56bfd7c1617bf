package model

import "time"

// WorkflowTemplate is a named, trigger-keyed sequence of delayed
// messaging steps.
type WorkflowTemplate struct {
	ID          int       `db:"id" json:"id"`
	TenantID    int       `db:"tenant_id" json:"tenant_id"`
	Name        string    `db:"name" json:"name"`
	TriggerType string    `db:"trigger_type" json:"trigger_type"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// WorkflowStep is one step of a workflow. StepOrder is unique within the
// workflow and defines execution order; DelayHours is an absolute offset
// from the enrollment time, not from the previous step.
type WorkflowStep struct {
	ID           int    `db:"id" json:"id"`
	WorkflowID   int    `db:"workflow_id" json:"workflow_id"`
	StepOrder    int    `db:"step_order" json:"step_order"`
	DelayHours   int    `db:"delay_hours" json:"delay_hours"`
	Channel      string `db:"channel" json:"channel"`
	TemplateName string `db:"template_name" json:"template_name"`
	Description  string `db:"description" json:"description,omitempty"`
}
