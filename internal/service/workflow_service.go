package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/logger"
	"github.com/tillpoint/messaging-backend/internal/model"
	"github.com/tillpoint/messaging-backend/internal/render"
	"github.com/tillpoint/messaging-backend/internal/repository"
)

// WorkflowService owns workflow definitions and the queue scheduler: it
// turns trigger events and manual enrollments into pre-rendered,
// time-stamped queue entries.
type WorkflowService struct {
	Workflows repository.WorkflowRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Clients   repository.ClientRepositoryInterface
	Tenants   repository.TenantRepositoryInterface
	Queue     repository.QueueRepositoryInterface

	// Now overrides the clock in tests; nil means time.Now.
	Now func() time.Time
}

// StepInput is one authored workflow step.
type StepInput struct {
	StepOrder    int    `json:"step_order"`
	DelayHours   int    `json:"delay_hours"`
	Channel      string `json:"channel"`
	TemplateName string `json:"template_name"`
	Description  string `json:"description"`
}

// WorkflowInput is the authoring payload; updates replace the step list
// wholesale.
type WorkflowInput struct {
	Name        string      `json:"name"`
	TriggerType string      `json:"trigger_type"`
	IsActive    bool        `json:"is_active"`
	Steps       []StepInput `json:"steps"`
}

// WorkflowDetail is a workflow plus its ordered steps.
type WorkflowDetail struct {
	model.WorkflowTemplate
	Steps []model.WorkflowStep `json:"steps"`
}

func (in *WorkflowInput) validate() error {
	if in.Name == "" {
		return appErrors.NewValidation("workflow name is required")
	}
	if in.TriggerType == "" {
		return appErrors.NewValidation("workflow trigger_type is required")
	}
	seen := map[int]bool{}
	for _, step := range in.Steps {
		if step.Channel != "sms" && step.Channel != "email" {
			return appErrors.NewValidation("step channel must be sms or email, got %q", step.Channel)
		}
		if step.DelayHours < 0 {
			return appErrors.NewValidation("step delay_hours must be >= 0")
		}
		if seen[step.StepOrder] {
			return appErrors.NewValidation("duplicate step_order %d", step.StepOrder)
		}
		seen[step.StepOrder] = true
	}
	return nil
}

func stepsFromInput(in *WorkflowInput) []model.WorkflowStep {
	steps := make([]model.WorkflowStep, len(in.Steps))
	for i, s := range in.Steps {
		steps[i] = model.WorkflowStep{
			StepOrder:    s.StepOrder,
			DelayHours:   s.DelayHours,
			Channel:      s.Channel,
			TemplateName: s.TemplateName,
			Description:  s.Description,
		}
	}
	return steps
}

// CreateWorkflow authors a new workflow with its steps.
func (s *WorkflowService) CreateWorkflow(tenantID int, in *WorkflowInput) (*WorkflowDetail, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	w := &model.WorkflowTemplate{
		TenantID:    tenantID,
		Name:        in.Name,
		TriggerType: in.TriggerType,
		IsActive:    in.IsActive,
	}
	steps := stepsFromInput(in)
	if err := s.Workflows.Create(w, steps); err != nil {
		return nil, err
	}
	return &WorkflowDetail{WorkflowTemplate: *w, Steps: steps}, nil
}

// UpdateWorkflow rewrites the workflow and replaces its steps.
func (s *WorkflowService) UpdateWorkflow(tenantID, id int, in *WorkflowInput) (*WorkflowDetail, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	w := &model.WorkflowTemplate{
		ID:          id,
		TenantID:    tenantID,
		Name:        in.Name,
		TriggerType: in.TriggerType,
		IsActive:    in.IsActive,
	}
	steps := stepsFromInput(in)
	if err := s.Workflows.Update(w, steps); err != nil {
		return nil, err
	}
	return &WorkflowDetail{WorkflowTemplate: *w, Steps: steps}, nil
}

func (s *WorkflowService) DeleteWorkflow(tenantID, id int) error {
	return s.Workflows.Delete(tenantID, id)
}

func (s *WorkflowService) GetWorkflow(tenantID, id int) (*WorkflowDetail, error) {
	w, err := s.Workflows.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	steps, err := s.Workflows.ListSteps(w.ID)
	if err != nil {
		return nil, err
	}
	return &WorkflowDetail{WorkflowTemplate: *w, Steps: steps}, nil
}

func (s *WorkflowService) ListWorkflows(tenantID int) ([]WorkflowDetail, error) {
	if err := s.EnsureDefaults(tenantID); err != nil {
		return nil, err
	}
	workflows, err := s.Workflows.ListByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	details := make([]WorkflowDetail, 0, len(workflows))
	for _, w := range workflows {
		steps, err := s.Workflows.ListSteps(w.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, WorkflowDetail{WorkflowTemplate: w, Steps: steps})
	}
	return details, nil
}

// EnsureDefaults seeds the tenant's default sequences on first use.
// Idempotent: a tenant with any workflow at all is left alone.
func (s *WorkflowService) EnsureDefaults(tenantID int) error {
	count, err := s.Workflows.CountByTenant(tenantID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, t := range defaultTemplates(tenantID) {
		// Template names are unique per tenant; skip any name the tenant
		// already authored.
		existing, err := s.Templates.GetByName(tenantID, t.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		tpl := t
		if err := s.Templates.Create(&tpl); err != nil {
			return err
		}
	}
	for _, d := range defaultWorkflows(tenantID) {
		w := d.workflow
		if err := s.Workflows.Create(&w, d.steps); err != nil {
			return err
		}
	}
	logger.L().Info("seeded default workflows", zap.Int("tenant_id", tenantID))
	return nil
}

// QueueWorkflow enrolls the client into every active workflow keyed to the
// trigger. No duplicate guard here: re-triggering the same event re-enrolls
// the client into a fresh full sequence.
func (s *WorkflowService) QueueWorkflow(tenantID, clientID int, triggerType string) (int, error) {
	if triggerType == "" {
		return 0, appErrors.NewValidation("trigger_type is required")
	}
	if err := s.EnsureDefaults(tenantID); err != nil {
		return 0, err
	}

	client, err := s.Clients.GetByID(tenantID, clientID)
	if err != nil {
		return 0, err
	}
	if client == nil {
		return 0, appErrors.NewNotFound("client", clientID)
	}

	workflows, err := s.Workflows.ListActiveByTrigger(tenantID, triggerType)
	if err != nil {
		return 0, err
	}
	if len(workflows) == 0 {
		return 0, nil
	}

	vars, err := s.varsFor(tenantID, client)
	if err != nil {
		return 0, err
	}

	enrolledAt := nowOrDefault(s.Now)
	queued := 0
	for _, w := range workflows {
		steps, err := s.Workflows.ListSteps(w.ID)
		if err != nil {
			return queued, err
		}
		n, err := s.insertEntries(tenantID, client.ID, steps, vars, enrolledAt)
		queued += n
		if err != nil {
			return queued, err
		}
	}
	return queued, nil
}

// Enroll manually enrolls the client into one workflow, guarding against a
// second active enrollment in the same workflow, and leaves an audit note
// on the client record.
func (s *WorkflowService) Enroll(tenantID, clientID, workflowID int) (int, error) {
	w, err := s.Workflows.GetByID(tenantID, workflowID)
	if err != nil {
		return 0, err
	}
	if !w.IsActive {
		return 0, appErrors.NewValidation("workflow %q is not active", w.Name)
	}

	steps, err := s.Workflows.ListSteps(w.ID)
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, appErrors.NewValidation("workflow %q has no steps", w.Name)
	}

	client, err := s.Clients.GetByID(tenantID, clientID)
	if err != nil {
		return 0, err
	}
	if client == nil {
		return 0, appErrors.NewNotFound("client", clientID)
	}

	existing, err := s.Queue.ListActiveByClient(tenantID, clientID)
	if err != nil {
		return 0, err
	}
	stepIDs := map[int]bool{}
	for _, step := range steps {
		stepIDs[step.ID] = true
	}
	for _, entry := range existing {
		if stepIDs[entry.WorkflowStepID] {
			return 0, appErrors.NewConflict("client %d is already enrolled in workflow %q", clientID, w.Name)
		}
	}

	vars, err := s.varsFor(tenantID, client)
	if err != nil {
		return 0, err
	}

	enrolledAt := nowOrDefault(s.Now)
	queued, err := s.insertEntries(tenantID, client.ID, steps, vars, enrolledAt)
	if err != nil {
		return queued, err
	}

	note := fmt.Sprintf("Enrolled in workflow %q on %s (%d messages scheduled)",
		w.Name, enrolledAt.Format("2006-01-02"), queued)
	if err := s.Clients.AppendNote(tenantID, clientID, note); err != nil {
		logger.L().Warn("append enrollment note",
			zap.Int("client_id", clientID), zap.Error(err))
	}
	return queued, nil
}

func (s *WorkflowService) varsFor(tenantID int, client *model.Client) (map[string]string, error) {
	tenant, err := s.Tenants.GetByID(tenantID)
	if err != nil {
		return nil, err
	}
	return render.Vars{
		ClientName:      client.FullName(),
		ClientFirstName: client.FirstName,
		BusinessName:    tenant.BusinessName,
		BusinessPhone:   tenant.BusinessPhone,
	}.Map(), nil
}

// insertEntries renders and inserts one pending entry per step. Delays are
// absolute offsets from the enrollment time, not chained between steps.
func (s *WorkflowService) insertEntries(tenantID, clientID int, steps []model.WorkflowStep, vars map[string]string, enrolledAt time.Time) (int, error) {
	queued := 0
	for _, step := range steps {
		body, err := s.stepBody(tenantID, step, vars)
		if err != nil {
			return queued, err
		}
		entry := &model.QueueEntry{
			TenantID:       tenantID,
			ClientID:       clientID,
			WorkflowStepID: step.ID,
			Channel:        step.Channel,
			ScheduledFor:   enrolledAt.Add(time.Duration(step.DelayHours) * time.Hour),
			Status:         model.QueueStatusPending,
			MessageBody:    body,
		}
		if err := s.Queue.Insert(entry); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// stepBody resolves the step's template by name, falling back to treating
// the name itself as the literal body when no template matches.
func (s *WorkflowService) stepBody(tenantID int, step model.WorkflowStep, vars map[string]string) (string, error) {
	tpl, err := s.Templates.GetByName(tenantID, step.TemplateName)
	if err != nil {
		return "", err
	}
	body := step.TemplateName
	if tpl != nil {
		body = tpl.Body
	}
	return render.Render(body, vars), nil
}

// ---- message template CRUD ----

type TemplateInput struct {
	Name     string `json:"name"`
	Channel  string `json:"channel"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

func (in *TemplateInput) validate() error {
	if in.Name == "" {
		return appErrors.NewValidation("template name is required")
	}
	if in.Channel != "sms" && in.Channel != "email" {
		return appErrors.NewValidation("template channel must be sms or email, got %q", in.Channel)
	}
	if in.Body == "" {
		return appErrors.NewValidation("template body is required")
	}
	return nil
}

func (s *WorkflowService) CreateTemplate(tenantID int, in *TemplateInput) (*model.MessageTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &model.MessageTemplate{
		TenantID: tenantID,
		Name:     in.Name,
		Channel:  in.Channel,
		Subject:  in.Subject,
		Body:     in.Body,
		Category: in.Category,
	}
	if err := s.Templates.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *WorkflowService) UpdateTemplate(tenantID, id int, in *TemplateInput) (*model.MessageTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &model.MessageTemplate{
		ID:       id,
		TenantID: tenantID,
		Name:     in.Name,
		Channel:  in.Channel,
		Subject:  in.Subject,
		Body:     in.Body,
		Category: in.Category,
	}
	if err := s.Templates.Update(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *WorkflowService) DeleteTemplate(tenantID, id int) error {
	return s.Templates.Delete(tenantID, id)
}

func (s *WorkflowService) ListTemplates(tenantID int) ([]model.MessageTemplate, error) {
	return s.Templates.ListByTenant(tenantID)
}
