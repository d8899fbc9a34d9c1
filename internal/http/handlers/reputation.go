package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/http/response"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

type ReputationHandler struct {
	reputation services.ReputationService
}

func NewReputationHandler(reputation services.ReputationService) *ReputationHandler {
	return &ReputationHandler{reputation: reputation}
}

// GET /api/sources/:id/reputation
func (h *ReputationHandler) GetReputation(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	view, err := h.reputation.GetReputation(c.Request.Context(), sourceID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reputation": view})
}

// GET /api/sources/:id/reliability-history
func (h *ReputationHandler) GetReliabilityHistory(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	entries, err := h.reputation.GetReliabilityHistory(c.Request.Context(), sourceID, queryInt(c, "limit", 0))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": entries, "count": len(entries)})
}

type crossReferenceRequest struct {
	ContentID          string  `json:"content_id"`
	ClaimID            string  `json:"claim_id,omitempty"`
	WasAccurate        *bool   `json:"was_accurate"`
	VerificationSource string  `json:"verification_source"`
	Confidence         float64 `json:"confidence"`
}

// POST /api/sources/:id/cross-references
func (h *ReputationHandler) RecordCrossReference(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	var req crossReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.WasAccurate == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errMissingField("was_accurate"))
		return
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	in := services.RecordCrossReferenceInput{
		SourceID:           sourceID,
		ContentID:          contentID,
		WasAccurate:        *req.WasAccurate,
		VerificationSource: req.VerificationSource,
		Confidence:         req.Confidence,
	}
	if req.ClaimID != "" {
		claimID, err := uuid.Parse(req.ClaimID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
			return
		}
		in.ClaimID = &claimID
	}
	change, err := h.reputation.RecordCrossReference(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"score_change": change})
}

type missingFieldError struct{ field string }

func (e missingFieldError) Error() string { return e.field + " is required" }

func errMissingField(field string) error { return missingFieldError{field: field} }
