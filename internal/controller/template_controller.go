package controller

import (
	"encoding/json"
	"net/http"

	"github.com/tillpoint/messaging-backend/internal/service"
)

type TemplateController struct {
	WorkflowService *service.WorkflowService
}

func (c *TemplateController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	templates, err := c.WorkflowService.ListTemplates(tenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}

func (c *TemplateController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.TemplateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	tpl, err := c.WorkflowService.CreateTemplate(tenant, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (c *TemplateController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
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
	var in service.TemplateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	tpl, err := c.WorkflowService.UpdateTemplate(tenant, id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (c *TemplateController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
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
	if err := c.WorkflowService.DeleteTemplate(tenant, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
