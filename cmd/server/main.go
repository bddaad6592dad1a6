package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/tunevault/internal/api"
	"github.com/lalith-99/tunevault/internal/cache"
	"github.com/lalith-99/tunevault/internal/catalog"
	"github.com/lalith-99/tunevault/internal/config"
	"github.com/lalith-99/tunevault/internal/db"
	"github.com/lalith-99/tunevault/internal/middleware"
	"github.com/lalith-99/tunevault/internal/migrate"
	"github.com/lalith-99/tunevault/internal/observ"
	"github.com/lalith-99/tunevault/internal/policy"
	"github.com/lalith-99/tunevault/internal/profile"
	"github.com/lalith-99/tunevault/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no parent request or deadline — Background() is the
	// right root here. Once the server runs, each request carries its own.
	ctx := context.Background()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	// The aggregate cache is optional: if Redis is unreachable the
	// dashboards just hit Postgres every time.
	var aggCache catalog.AggregateCache
	redisCache, err := cache.NewRedisAggregates(cfg.RedisURL, 5*time.Minute, logger)
	if err != nil {
		logger.Warn("aggregate cache disabled", zap.Error(err))
	} else {
		defer redisCache.Close()
		aggCache = redisCache
	}

	pool := database.Pool()
	songRepo := postgres.NewSongStore(pool)
	profileRepo := postgres.NewProfileStore(pool)
	accountRepo := postgres.NewAccountStore(pool)
	tenantRepo := postgres.NewTenantStore(pool)

	engine := policy.NewEngine()
	catalogSvc := catalog.NewService(songRepo, engine, aggCache, cfg.SearchResultLimit)
	profileSvc := profile.NewService(profileRepo, accountRepo, engine)

	authHandler := api.NewAuthHandler(accountRepo, tenantRepo, cfg.JWTSecret, logger)
	catalogHandler := api.NewCatalogHandler(catalogSvc, cfg.RecommendDefault, logger)
	profileHandler := api.NewProfileHandler(profileSvc, cfg.JWTSecret, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Health check is PUBLIC — load balancers hit this without a token.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Signup and login are the only other public routes — they are what
	// produce the token everything else requires.
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.POST("/accounts", authHandler.CreateAccount)

	v1.GET("/songs", catalogHandler.List)
	v1.POST("/songs", catalogHandler.Insert)
	v1.GET("/songs/search", catalogHandler.Search)
	v1.GET("/genres/counts", catalogHandler.GenreCounts)
	v1.GET("/dashboard/genre-ratings", catalogHandler.GenreRatings)
	v1.GET("/recommendations", catalogHandler.Recommend)

	v1.GET("/profile", profileHandler.Get)
	v1.PUT("/profile", profileHandler.Update)
	v1.POST("/subscription/upgrade", profileHandler.Upgrade)

	logger.Info("starting TuneVault",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
