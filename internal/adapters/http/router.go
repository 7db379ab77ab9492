package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default deadline for API requests.
const DefaultRequestTimeout = 30 * time.Second

// WriteScope is the gateway scope a caller needs to change the collection
// or its preferences when auth is enabled.
const WriteScope = "quotes:write"

// RouterConfig contains everything SetupRouter wires together.
type RouterConfig struct {
	Logger *slog.Logger

	// AuthConfig guards mutating routes when Enabled.
	AuthConfig *config.AuthConfig

	AppConfig *config.AppConfig

	// SessionHeader names the session id header. Empty uses X-Session-ID.
	SessionHeader string

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Timeout is the API request deadline. Zero disables it.
	Timeout time.Duration
}

// SetupRouter installs the middleware chain and routes. Order, first to last:
// recovery, context logger, request id, correlation id, otel tracing,
// request metrics, access log. /api/v1 adds the session id and the deadline.
// Probes live under /-/ without auth or deadline.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine.Use(
		middleware.Recovery(),
		middleware.ContextLogger(logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(
		middleware.SessionID(cfg.SessionHeader),
		middleware.Timeout(cfg.Timeout),
	)

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(apiV1, mutationGuard(cfg.AuthConfig)...)
	}
}

// mutationGuard returns the middleware placed in front of mutating routes.
func mutationGuard(auth *config.AuthConfig) []gin.HandlerFunc {
	if auth == nil || !auth.Enabled {
		return nil
	}

	return []gin.HandlerFunc{middleware.RequireAuth(auth), middleware.RequireScope(auth, WriteScope)}
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	authCfg *config.AuthConfig,
	healthHandler *handlers.HealthHandler,
	quoteHandler *handlers.QuoteHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AuthConfig:    authCfg,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
