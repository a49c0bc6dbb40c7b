package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/servicehub-backend/internal/auth"
	"github.com/nekogravitycat/servicehub-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/servicehub-backend/internal/booking/http"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/logger"
	"github.com/nekogravitycat/servicehub-backend/internal/provider"
	providerHttp "github.com/nekogravitycat/servicehub-backend/internal/provider/http"
	"github.com/nekogravitycat/servicehub-backend/internal/user"
	userHttp "github.com/nekogravitycat/servicehub-backend/internal/user/http"
)

// Config carries the services and settings the router is assembled from.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	Logger          *zap.Logger
	RateLimitPerMin int
	MaxPhotoBytes   int64

	UserService     user.Service
	ProviderService provider.Service
	BookingService  booking.Service
	JWTManager      *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: request-scoped zap logger plus one line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logger.Middleware(cfg.Logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(RateLimit(cfg.RateLimitPerMin))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// providerMiddleware: Further checks that the account offers services.
	providerMiddleware := RequireProvider()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	providerHandler := providerHttp.NewHandler(cfg.ProviderService, cfg.MaxPhotoBytes)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		providerHttp.RegisterRoutes(v1, providerHandler, authMiddleware, providerMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, providerMiddleware)
	}

	return r
}

// corsConfig allows local frontends in development and PROD_ORIGINS in production.
func corsConfig(cfg Config) cors.Config {
	config := cors.DefaultConfig()
	if cfg.IsProduction {
		var origins []string
		for _, o := range strings.Split(cfg.ProdOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.AllowOrigins = origins
	} else {
		config.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8081", // Swagger
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return config
}
