package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/http/response"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

// AdminHandler exposes the operational endpoints under /api/internal. They
// are reachable only inside the service mesh; the gateway never routes
// external traffic here.
type AdminHandler struct {
	decay      services.DecayService
	trust      services.TrustService
	reputation services.ReputationService
	anomalies  services.AnomalyService
}

func NewAdminHandler(
	decay services.DecayService,
	trust services.TrustService,
	reputation services.ReputationService,
	anomalies services.AnomalyService,
) *AdminHandler {
	return &AdminHandler{
		decay:      decay,
		trust:      trust,
		reputation: reputation,
		anomalies:  anomalies,
	}
}

// POST /api/internal/reputation/decay
func (h *AdminHandler) TriggerDecay(c *gin.Context) {
	summary, err := h.decay.ApplyReputationDecay(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}

// POST /api/internal/users/:id/trust-score
func (h *AdminHandler) UpdateTrustScore(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	update, err := h.trust.UpdateUserTrustScore(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trust": update})
}

type ratingOutcomeRequest struct {
	WasAccurate *bool `json:"was_accurate"`
}

// POST /api/internal/users/:id/rating-outcomes
func (h *AdminHandler) RecordRatingOutcome(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	var req ratingOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.WasAccurate == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errMissingField("was_accurate"))
		return
	}
	update, err := h.trust.RecordRatingOutcome(c.Request.Context(), userID, *req.WasAccurate)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trust": update})
}

type sourceActivityRequest struct {
	At *time.Time `json:"at"`
}

// POST /api/internal/sources/:id/activity
func (h *AdminHandler) RecordSourceActivity(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	var req sourceActivityRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	at := time.Time{}
	if req.At != nil {
		at = *req.At
	}
	if err := h.reputation.RecordSourceActivity(c.Request.Context(), sourceID, at); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/internal/sources/:id/anomalies
func (h *AdminHandler) ListAnomalies(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	views, err := h.anomalies.ListAnomalies(c.Request.Context(), sourceID, queryInt(c, "limit", 0))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"anomalies": views, "count": len(views)})
}

type unflagRequest struct {
	RatingIDs []string `json:"rating_ids"`
}

// POST /api/internal/sources/:id/ratings/unflag
func (h *AdminHandler) UnflagRatings(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	var req unflagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.RatingIDs))
	for _, raw := range req.RatingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_rating_id", err)
			return
		}
		ids = append(ids, id)
	}
	change, err := h.anomalies.UnflagRatings(c.Request.Context(), sourceID, ids)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "score_change": change})
}
