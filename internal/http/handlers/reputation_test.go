package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

type fakeReputationService struct {
	view      *services.ReputationView
	viewErr   error
	change    *services.ScoreChange
	changeErr error
	lastInput services.RecordCrossReferenceInput
	calls     int
}

func (f *fakeReputationService) Recalculate(context.Context, uuid.UUID, string) (*services.ScoreChange, error) {
	f.calls++
	return f.change, f.changeErr
}

func (f *fakeReputationService) GetReputation(context.Context, uuid.UUID) (*services.ReputationView, error) {
	f.calls++
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	return f.view, nil
}

func (f *fakeReputationService) RecordCrossReference(_ context.Context, in services.RecordCrossReferenceInput) (*services.ScoreChange, error) {
	f.calls++
	f.lastInput = in
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return f.change, nil
}

func (f *fakeReputationService) GetReliabilityHistory(context.Context, uuid.UUID, int) ([]*services.ReliabilityChangeView, error) {
	f.calls++
	return nil, nil
}

func (f *fakeReputationService) RecordSourceActivity(context.Context, uuid.UUID, time.Time) error {
	f.calls++
	return nil
}

func reputationTestRouter(svc services.ReputationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewReputationHandler(svc)
	r.GET("/api/sources/:id/reputation", h.GetReputation)
	r.GET("/api/sources/:id/reliability-history", h.GetReliabilityHistory)
	r.POST("/api/sources/:id/cross-references", h.RecordCrossReference)
	return r
}

func TestRecordCrossReferenceHandlerParsesBody(t *testing.T) {
	sourceID := uuid.New()
	contentID := uuid.New()
	claimID := uuid.New()
	fake := &fakeReputationService{change: &services.ScoreChange{
		SourceID: sourceID,
		OldScore: 50,
		NewScore: 85.7,
		Applied:  true,
	}}
	r := reputationTestRouter(fake)

	body := `{"content_id": "` + contentID.String() + `", "claim_id": "` + claimID.String() +
		`", "was_accurate": true, "verification_source": "factdesk", "confidence": 0.9}`
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+sourceID.String()+"/cross-references",
		strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	in := fake.lastInput
	if in.SourceID != sourceID || in.ContentID != contentID {
		t.Fatalf("service input ids: %+v", in)
	}
	if in.ClaimID == nil || *in.ClaimID != claimID {
		t.Fatalf("claim id not carried: %+v", in.ClaimID)
	}
	if !in.WasAccurate || in.VerificationSource != "factdesk" || in.Confidence != 0.9 {
		t.Fatalf("service input fields: %+v", in)
	}

	var resp struct {
		ScoreChange services.ScoreChange `json:"score_change"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.ScoreChange.Applied || resp.ScoreChange.NewScore != 85.7 {
		t.Fatalf("response envelope: %+v", resp.ScoreChange)
	}
}

func TestRecordCrossReferenceHandlerRequiresWasAccurate(t *testing.T) {
	fake := &fakeReputationService{}
	r := reputationTestRouter(fake)

	body := `{"content_id": "` + uuid.NewString() + `", "verification_source": "factdesk"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sources/"+uuid.NewString()+"/cross-references",
		strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if fake.calls != 0 {
		t.Fatalf("service called without was_accurate")
	}
}

func TestGetReputationHandlerNotFound(t *testing.T) {
	fake := &fakeReputationService{
		viewErr: reperr.New(reperr.CodeNotFound, "ReputationService.GetReputation", "source not found", nil),
	}
	r := reputationTestRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/sources/"+uuid.NewString()+"/reputation", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
}
