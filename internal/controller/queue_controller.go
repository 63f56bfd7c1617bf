package controller

import (
	"net/http"

	"github.com/tillpoint/messaging-backend/internal/service"
)

type QueueController struct {
	QueueService *service.QueueService
}

// ListQueue surfaces pending entries. ?filter=ready|upcoming|all, default
// all pending unfiltered by time.
func (c *QueueController) ListQueue(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := c.QueueService.List(tenant, r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}

func (c *QueueController) SendEntry(w http.ResponseWriter, r *http.Request) {
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
	outcome, err := c.QueueService.Send(r.Context(), tenant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry_id": id,
		"outcome":  outcome.Status,
		"reason":   outcome.Reason,
		"error":    outcome.ErrorMessage(),
	})
}

func (c *QueueController) SkipEntry(w http.ResponseWriter, r *http.Request) {
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
	if err := c.QueueService.Skip(tenant, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry_id": id,
		"status":   "skipped",
	})
}
