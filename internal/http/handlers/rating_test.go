package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"github.com/VitalPointAI/argus-sub001/internal/http/middleware"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

type fakeRatingService struct {
	submitRes  *services.SubmitRatingResult
	submitErr  error
	page       *services.RatingPage
	pageErr    error
	lastInput  services.SubmitRatingInput
	lastLimit  int
	lastOffset int
	calls      int
}

func (f *fakeRatingService) SubmitRating(_ context.Context, in services.SubmitRatingInput) (*services.SubmitRatingResult, error) {
	f.calls++
	f.lastInput = in
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitRes, nil
}

func (f *fakeRatingService) GetRatings(_ context.Context, sourceID uuid.UUID, limit, offset int) (*services.RatingPage, error) {
	f.calls++
	f.lastLimit = limit
	f.lastOffset = offset
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.page, nil
}

func ratingTestRouter(svc services.RatingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.AttachPrincipal())
	h := NewRatingHandler(svc)
	r.POST("/api/sources/:id/ratings", middleware.RequirePrincipal(), h.SubmitRating)
	r.GET("/api/sources/:id/ratings", h.GetRatings)
	return r
}

func TestSubmitRatingHandlerPassesPrincipal(t *testing.T) {
	sourceID := uuid.New()
	analystID := uuid.New()
	fake := &fakeRatingService{
		submitRes: &services.SubmitRatingResult{
			RatingID:  uuid.New(),
			SourceID:  sourceID,
			Rating:    4,
			Weight:    1.0,
			Remaining: 19,
		},
	}
	r := ratingTestRouter(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+sourceID.String()+"/ratings",
		strings.NewReader(`{"rating": 4, "comment": "solid sourcing"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Analyst-Id", analystID.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if fake.lastInput.SourceID != sourceID || fake.lastInput.UserID != analystID {
		t.Fatalf("service input: %+v", fake.lastInput)
	}
	if fake.lastInput.Rating != 4 || fake.lastInput.Comment != "solid sourcing" {
		t.Fatalf("service input body fields: %+v", fake.lastInput)
	}

	var body struct {
		Rating services.SubmitRatingResult `json:"rating"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Rating.Remaining != 19 || body.Rating.SourceID != sourceID {
		t.Fatalf("response envelope: %+v", body.Rating)
	}
}

func TestSubmitRatingHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "invalid_rating",
			err:    reperr.New(reperr.CodeInvalidRating, "RatingService.SubmitRating", "rating must be between 1 and 5", nil),
			status: http.StatusUnprocessableEntity,
			code:   "invalid_rating",
		},
		{
			name:   "rate_limited",
			err:    reperr.New(reperr.CodeRateLimited, "RatingService.SubmitRating", "daily limit of 20 new ratings reached", nil),
			status: http.StatusTooManyRequests,
			code:   "rate_limit_exceeded",
		},
		{
			name:   "not_found",
			err:    reperr.New(reperr.CodeNotFound, "RatingService.SubmitRating", "source not found", nil),
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "retryable",
			err:    reperr.New(reperr.CodeRetryable, "RatingService.SubmitRating", "deadlock detected", nil),
			status: http.StatusServiceUnavailable,
			code:   "retryable",
		},
		{
			name:   "uncoded",
			err:    context.DeadlineExceeded,
			status: http.StatusInternalServerError,
			code:   "internal",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeRatingService{submitErr: tc.err}
			r := ratingTestRouter(fake)

			req := httptest.NewRequest(http.MethodPost, "/api/sources/"+uuid.NewString()+"/ratings",
				strings.NewReader(`{"rating": 3}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Analyst-Id", uuid.NewString())
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tc.status, rec.Body.String())
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Fatalf("error code: got=%q want=%q", body.Error.Code, tc.code)
			}
		})
	}
}

func TestSubmitRatingHandlerRejectsAnonymous(t *testing.T) {
	fake := &fakeRatingService{}
	r := ratingTestRouter(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+uuid.NewString()+"/ratings",
		strings.NewReader(`{"rating": 3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
	if fake.calls != 0 {
		t.Fatalf("service called for anonymous request")
	}
}

func TestSubmitRatingHandlerRejectsBadSourceID(t *testing.T) {
	fake := &fakeRatingService{}
	r := ratingTestRouter(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/sources/not-a-uuid/ratings",
		strings.NewReader(`{"rating": 3}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Analyst-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if fake.calls != 0 {
		t.Fatalf("service called with malformed source id")
	}
}

func TestGetRatingsHandlerPaging(t *testing.T) {
	fake := &fakeRatingService{page: &services.RatingPage{
		Ratings: []*services.RatingView{},
		Stats:   &services.RatingStatsView{},
	}}
	r := ratingTestRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/sources/"+uuid.NewString()+"/ratings?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if fake.lastLimit != 5 || fake.lastOffset != 10 {
		t.Fatalf("paging: limit=%d offset=%d", fake.lastLimit, fake.lastOffset)
	}
}
