package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/nmakri/userhub/internal/auth"
	"github.com/nmakri/userhub/internal/config"
	"github.com/nmakri/userhub/internal/http/handlers"
	"github.com/nmakri/userhub/internal/http/middlewares"
	"github.com/nmakri/userhub/internal/observability"
	"github.com/nmakri/userhub/internal/redisclient"
	"github.com/nmakri/userhub/internal/repo/postgres"
	"github.com/nmakri/userhub/internal/security"
	"github.com/nmakri/userhub/internal/users"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redisclient.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics get their own registry so repeated router construction in
	// tests never double-registers collectors
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.Env))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(otelgin.Middleware("userhub"))
	r.Use(prom.GinHandleMiddleware())

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and services
	usersRepo := postgres.NewUsersRepo(pool, prom)
	hasher := security.NewHasher()
	userService := users.NewService(usersRepo, hasher)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	authHandler := handlers.NewAuthHandler(userService, jwtManager, cfg, prom)
	usersHandler := handlers.NewUsersHandler(userService)

	authn := middlewares.NewAuthMiddleware(jwtManager)

	// rate limit stores: redis when available, in-process otherwise
	var store middlewares.CounterStore
	if rdb != nil {
		store = middlewares.NewRedisStore(rdb)
	} else {
		store = middlewares.NewMemoryStore()
	}

	registerLimit := middlewares.NewRateLimiter(store, cfg.RegisterRateLimit, time.Minute)
	loginLimit := middlewares.NewRateLimiter(store, cfg.LoginRateLimit, time.Minute)

	// auth routes
	r.POST("/auth/register", registerLimit.Middleware(middlewares.KeyByIP), authHandler.Register)
	r.POST("/auth/login", loginLimit.Middleware(middlewares.KeyByIP), authHandler.Login)
	r.POST("/auth/refresh", authHandler.Refresh)
	r.POST("/auth/logout", authHandler.Logout)

	// authenticated routes
	r.GET("/me", authn.RequireAuth(), usersHandler.Me)
	r.GET("/admin", authn.RequireAuth(), middlewares.RequireRole(userService, "admin"), usersHandler.Admin)

	return r
}
