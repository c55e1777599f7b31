package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/tally-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tally-backend/internal/http/middleware"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	// AuthMiddleware guards write routes. When nil those routes are not registered.
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler *httpH.HealthHandler
	CountHandler  *httpH.CountHandler
	StatsHandler  *httpH.StatsHandler
	AdminHandler  *httpH.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Count (public)
		if cfg.CountHandler != nil {
			api.GET("/count", cfg.CountHandler.GetCount)
			api.GET("/progress", cfg.CountHandler.GetProgress)
		}

		// Stats (public)
		if cfg.StatsHandler != nil {
			api.GET("/contributors/top", cfg.StatsHandler.TopContributors)
			api.GET("/contributors/:id", cfg.StatsHandler.GetContributor)
			api.GET("/contributors/:id/rank", cfg.StatsHandler.GetRank)
			api.GET("/participants", cfg.StatsHandler.Participants)
			api.GET("/tiers", cfg.StatsHandler.Tiers)
			api.GET("/stats/window", cfg.StatsHandler.Window)
			api.GET("/ledger/recent", cfg.StatsHandler.Recent)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	// Connectors submit attempts and retract deleted messages
	connector := api.Group("/")
	connector.Use(cfg.AuthMiddleware.RequireRole(httpMW.RoleConnector, httpMW.RoleAdmin))
	{
		if cfg.CountHandler != nil {
			connector.POST("/attempts", cfg.CountHandler.PostAttempt)
		}
		if cfg.AdminHandler != nil {
			connector.DELETE("/ledger/ref/:ref", cfg.AdminHandler.DeleteByRef)
		}
	}

	admin := api.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireRole(httpMW.RoleAdmin))
	{
		if cfg.AdminHandler != nil {
			admin.POST("/bootstrap", cfg.AdminHandler.Bootstrap)
			admin.POST("/force", cfg.AdminHandler.ForceSet)
			admin.DELETE("/ledger/:number", cfg.AdminHandler.DeleteBySeq)
			admin.PUT("/contributors/:identifier/total", cfg.AdminHandler.SetContributorTotal)
			admin.POST("/recalculate", cfg.AdminHandler.Recalculate)
		}
		if cfg.StatsHandler != nil {
			admin.GET("/audit", cfg.StatsHandler.AuditLog)
		}
	}

	return r
}
