package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"notifyhub/internal/config"
	"notifyhub/internal/domain/auth"
	"notifyhub/internal/domain/notification"
	"notifyhub/internal/metrics"
	"notifyhub/internal/middleware"
	"notifyhub/internal/pkg/jwt"
	"notifyhub/internal/pkg/response"
)

// App is the assembled HTTP service. It owns the notification state, so
// two Apps never see each other's channels or logs.
type App struct {
	router        *gin.Engine
	notifications *notification.Service
	db            *gorm.DB
	log           logrus.FieldLogger
}

// New migrates the user store and wires every route.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) (*App, error) {
	users := auth.NewUserRepository(db)
	if err := users.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}

	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.New()

	notifications := notification.NewService(notification.Options{
		PingInterval:    cfg.PingInterval,
		CallbackTimeout: cfg.CallbackTimeout,
		Metrics:         m,
		Log:             log,
	})

	authHandler := auth.NewHandler(auth.NewService(users, jwtService, cfg.IsAdminEmail), log)
	notificationHandler := notification.NewHandler(notifications, log)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", health(db))

		// public
		authHandler.RegisterPublicRoutes(v1)

		// JWT in header
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			notification.RegisterRoutes(protected, notificationHandler)
		}

		// JWT in header or ?token=
		stream := v1.Group("")
		stream.Use(middleware.StreamAuth(jwtService))
		notification.RegisterStreamRoutes(stream, notificationHandler)

		// upstream systems
		internal := v1.Group("")
		internal.Use(middleware.InternalTokenAuth(cfg.InternalAPIToken, log))
		notification.RegisterInternalRoutes(internal, notificationHandler)

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtService), middleware.AdminOnly())
		notification.RegisterAdminRoutes(admin, notificationHandler)
	}

	if cfg.InternalAPIToken == "" {
		log.Warn("INTERNAL_API_TOKEN is empty, bulk dispatch is unauthenticated")
	}

	return &App{
		router:        r,
		notifications: notifications,
		db:            db,
		log:           log,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Notifications() *notification.Service {
	return a.notifications
}

// Shutdown closes live channels and waits for pending callbacks.
func (a *App) Shutdown(ctx context.Context) error {
	return a.notifications.Shutdown(ctx)
}

// Close releases the database. Call after the HTTP server has drained.
func (a *App) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "Database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
