package app

import (
	"github.com/yungbote/tally-backend/internal/data/db"
	"github.com/yungbote/tally-backend/internal/http"
	httpH "github.com/yungbote/tally-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tally-backend/internal/http/middleware"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Count  *httpH.CountHandler
	Stats  *httpH.StatsHandler
	Admin  *httpH.AdminHandler
}

func wireHandlers(log *logger.Logger, services Services, dbs *db.Service) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(dbs),
		Count:  httpH.NewCountHandler(log, services.Counter, services.Stats),
		Stats:  httpH.NewStatsHandler(services.Stats),
		Admin:  httpH.NewAdminHandler(services.Counter),
	}
}

// wireMiddleware leaves Auth nil without a secret, which keeps write routes unregistered.
func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.JWTSecret == "" {
		log.Warn("API_JWT_SECRET not set; attempt and admin routes are disabled")
		return Middleware{}
	}
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecret)}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		CountHandler:   handlers.Count,
		StatsHandler:   handlers.Stats,
		AdminHandler:   handlers.Admin,
	})
}
