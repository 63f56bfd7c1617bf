// internal/controller/workflow_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/tillpoint/messaging-backend/internal/service"
)

type WorkflowController struct {
	WorkflowService *service.WorkflowService
}

func (c *WorkflowController) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	workflows, err := c.WorkflowService.ListWorkflows(tenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": workflows})
}

func (c *WorkflowController) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.WorkflowInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	workflow, err := c.WorkflowService.CreateWorkflow(tenant, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, workflow)
}

func (c *WorkflowController) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := urlInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	workflow, err := c.WorkflowService.GetWorkflow(tenant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workflow)
}

func (c *WorkflowController) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := urlInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.WorkflowInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	workflow, err := c.WorkflowService.UpdateWorkflow(tenant, id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workflow)
}

func (c *WorkflowController) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := urlInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.WorkflowService.DeleteWorkflow(tenant, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trigger enrolls a client into every active workflow for the trigger
// type, e.g. after a completed sale.
func (c *WorkflowController) Trigger(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		ClientID    int    `json:"client_id"`
		TriggerType string `json:"trigger_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	queued, err := c.WorkflowService.QueueWorkflow(tenant, body.ClientID, body.TriggerType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"client_id":       body.ClientID,
		"trigger_type":    body.TriggerType,
		"messages_queued": queued,
	})
}

// Enroll manually enrolls a client into one workflow.
func (c *WorkflowController) Enroll(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := urlInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		ClientID int `json:"client_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	queued, err := c.WorkflowService.Enroll(tenant, body.ClientID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"client_id":       body.ClientID,
		"workflow_id":     id,
		"messages_queued": queued,
	})
}
