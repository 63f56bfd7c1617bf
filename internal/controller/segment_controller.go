package controller

import (
	"net/http"

	"github.com/tillpoint/messaging-backend/internal/service"
)

// SegmentController exposes the tag and segment catalogs broadcast
// authors target against.
type SegmentController struct {
	AudienceService *service.AudienceService
}

func (c *SegmentController) ListTags(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tags, err := c.AudienceService.ListTags(tenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": tags})
}

func (c *SegmentController) ListSegments(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	segments, err := c.AudienceService.ListSegments(tenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": segments})
}
