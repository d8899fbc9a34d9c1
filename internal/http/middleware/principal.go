package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/platform/ctxutil"
)

const headerAnalystID = "X-Analyst-Id"

// AttachPrincipal reads the analyst identity the upstream gateway resolved
// and puts it on the request context. A missing or malformed header leaves
// the request anonymous; endpoints that need an identity gate on it with
// RequirePrincipal.
func AttachPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerAnalystID))
		if raw == "" {
			c.Next()
			return
		}
		analystID, err := uuid.Parse(raw)
		if err != nil || analystID == uuid.Nil {
			c.Next()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID: analystID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("analyst_id", analystID.String())
		c.Next()
	}
}

// RequirePrincipal rejects requests that arrived without a resolved analyst.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing analyst identity", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}
