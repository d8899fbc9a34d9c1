package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/VitalPointAI/argus-sub001/internal/http/handlers"
	httpMW "github.com/VitalPointAI/argus-sub001/internal/http/middleware"
	"github.com/VitalPointAI/argus-sub001/internal/observability"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	HealthHandler     *httpH.HealthHandler
	RatingHandler     *httpH.RatingHandler
	ReputationHandler *httpH.ReputationHandler
	AdminHandler      *httpH.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())
	r.Use(httpMW.AttachPrincipal())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readycheck", cfg.HealthHandler.ReadyCheck)
	}

	// Prometheus text endpoint, only when metrics are enabled.
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Ratings
		if cfg.RatingHandler != nil {
			api.POST("/sources/:id/ratings", httpMW.RequirePrincipal(), cfg.RatingHandler.SubmitRating)
			api.GET("/sources/:id/ratings", cfg.RatingHandler.GetRatings)
		}

		// Reputation
		if cfg.ReputationHandler != nil {
			api.GET("/sources/:id/reputation", cfg.ReputationHandler.GetReputation)
			api.GET("/sources/:id/reliability-history", cfg.ReputationHandler.GetReliabilityHistory)
			api.POST("/sources/:id/cross-references", cfg.ReputationHandler.RecordCrossReference)
		}

		// Operational surface, mesh-internal.
		if cfg.AdminHandler != nil {
			internal := api.Group("/internal")
			internal.POST("/reputation/decay", cfg.AdminHandler.TriggerDecay)
			internal.POST("/users/:id/trust-score", cfg.AdminHandler.UpdateTrustScore)
			internal.POST("/users/:id/rating-outcomes", cfg.AdminHandler.RecordRatingOutcome)
			internal.POST("/sources/:id/activity", cfg.AdminHandler.RecordSourceActivity)
			internal.GET("/sources/:id/anomalies", cfg.AdminHandler.ListAnomalies)
			internal.POST("/sources/:id/ratings/unflag", cfg.AdminHandler.UnflagRatings)
		}
	}

	return r
}
