package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/platform/ctxutil"
)

func principalRouter() (*gin.Engine, *ctxutil.RequestData) {
	captured := &ctxutil.RequestData{}
	r := gin.New()
	r.Use(AttachPrincipal())
	r.POST("/guarded", RequirePrincipal(), func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			*captured = *rd
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/open", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, captured
}

func TestPrincipalResolvedFromHeader(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r, captured := principalRouter()

	analystID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set("X-Analyst-Id", analystID.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusNoContent)
	}
	if captured.UserID != analystID {
		t.Fatalf("analyst id: got=%s want=%s", captured.UserID, analystID)
	}
}

func TestRequirePrincipalRejectsAnonymous(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing_header", header: ""},
		{name: "malformed_header", header: "not-a-uuid"},
		{name: "nil_uuid", header: uuid.Nil.String()},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, _ := principalRouter()
			req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
			if tc.header != "" {
				req.Header.Set("X-Analyst-Id", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestOpenRoutesStayAnonymous(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r, _ := principalRouter()

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusNoContent)
	}
}
