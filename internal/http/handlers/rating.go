package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/http/response"
	"github.com/VitalPointAI/argus-sub001/internal/platform/ctxutil"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

type RatingHandler struct {
	ratings services.RatingService
}

func NewRatingHandler(ratings services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type submitRatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// POST /api/sources/:id/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	res, err := h.ratings.SubmitRating(c.Request.Context(), services.SubmitRatingInput{
		SourceID: sourceID,
		UserID:   rd.UserID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rating": res})
}

// GET /api/sources/:id/ratings
func (h *RatingHandler) GetRatings(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source_id", err)
		return
	}
	page, err := h.ratings.GetRatings(c.Request.Context(), sourceID, queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// queryInt reads an integer query param, falling back on absent or garbage
// values. Range policy lives in the services.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
