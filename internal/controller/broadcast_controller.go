// internal/controller/broadcast_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tillpoint/messaging-backend/internal/service"
)

type BroadcastController struct {
	BroadcastService *service.BroadcastService
}

func (c *BroadcastController) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.BroadcastInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	b, err := c.BroadcastService.Create(tenant, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (c *BroadcastController) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	channel := r.URL.Query().Get("channel")
	status := r.URL.Query().Get("status")

	broadcasts, pagination, err := c.BroadcastService.List(tenant, page, pageSize, channel, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       broadcasts,
		"pagination": pagination,
	})
}

func (c *BroadcastController) GetBroadcast(w http.ResponseWriter, r *http.Request) {
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
	details, err := c.BroadcastService.GetDetails(tenant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *BroadcastController) UpdateBroadcast(w http.ResponseWriter, r *http.Request) {
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
	var in service.BroadcastInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	b, err := c.BroadcastService.Update(tenant, id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (c *BroadcastController) DeleteBroadcast(w http.ResponseWriter, r *http.Request) {
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
	if err := c.BroadcastService.Delete(tenant, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBroadcastMessages returns the per-recipient audit rows.
func (c *BroadcastController) ListBroadcastMessages(w http.ResponseWriter, r *http.Request) {
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
	messages, err := c.BroadcastService.Messages(tenant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

// PreviewBroadcast returns the send forecast without mutating anything.
func (c *BroadcastController) PreviewBroadcast(w http.ResponseWriter, r *http.Request) {
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
	preview, err := c.BroadcastService.Preview(tenant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// SendBroadcast runs the full sequential send pass; the response carries
// the finalized aggregates.
func (c *BroadcastController) SendBroadcast(w http.ResponseWriter, r *http.Request) {
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
	b, err := c.BroadcastService.Send(r.Context(), tenant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"broadcast_id":     b.ID,
		"status":           b.Status,
		"total_recipients": b.TotalRecipients,
		"sent_count":       b.SentCount,
		"failed_count":     b.FailedCount,
		"skipped_count":    b.SkippedCount,
	})
}
