package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tinylink/internal/config"
	"tinylink/internal/database"
	apperrors "tinylink/internal/errors"
	"tinylink/internal/handler"
	"tinylink/internal/redis"
	"tinylink/internal/repository"
	"tinylink/internal/service"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db, err := database.Connect(cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatal("Failed to connect database: ", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	log.Println("Successfully connected to database")

	// Redis нужен только для rate limiting, без него работаем на in-memory лимитере
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
		})
		if err != nil {
			log.Printf("Failed to connect to Redis (falling back to in-memory rate limiting): %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Successfully connected to Redis")
		}
	}

	linkRepo := repository.NewPostgresLinkRepository(db)
	linkService := service.NewLinkService(linkRepo, cfg.GetBaseURL())
	linkHandler := handler.NewLinkHandler(linkService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Стандартный Recovery отдает пустой 500, клиенту не по чему ветвиться.
	// Поэтому паника отвечает тем же телом {error, code}, что и остальные ошибки.
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(recoveryHandler))

	// Middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	rateWindow := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if redisClient != nil {
		router.Use(RedisRateLimitMiddleware(redisClient, cfg.RateLimit.MaxRequests, rateWindow))
	} else {
		router.Use(InMemoryRateLimitMiddleware(cfg.RateLimit.MaxRequests, rateWindow))
	}

	// Liveness: проверяем БД и, если подключен, Redis
	healthChecks := []func() error{
		func() error { return database.HealthCheck(db) },
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.HealthCheck(ctx)
		})
	}
	router.GET("/healthz", healthzHandler(healthChecks...))

	// API routes
	api := router.Group("/api")
	{
		api.POST("/links", linkHandler.CreateLink)
		api.GET("/links", linkHandler.ListLinks)
		api.GET("/links/:code", linkHandler.GetLinkStats)
		api.DELETE("/links/:code", linkHandler.DeleteLink)
	}

	router.GET("/:code", linkHandler.Redirect)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"code":  apperrors.CodeRouteNotFound,
		})
	})

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.GetServerAddress())
		log.Printf("API endpoints: /api/links, redirect: GET /{code}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server gracefully stopped")
}

// recoveryHandler превращает панику в стандартное тело ошибки
func recoveryHandler(c *gin.Context, recovered any) {
	log.Printf("Recovered from panic: %v", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
		"code":  apperrors.CodeInternal,
	})
}

// healthzHandler сообщает живость сервиса: любой упавший check означает 503
func healthzHandler(checks ...func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range checks {
			if err := check(); err != nil {
				log.Printf("Health check failed: %v", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"ok":      false,
					"version": version,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"version": version,
		})
	}
}

// RedisRateLimitMiddleware - rate limiter на Redis, общий для всех инстансов
func RedisRateLimitMiddleware(rc *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rc.Keys().RateLimit(c.ClientIP())

		count, err := rc.IncrementRateLimit(ctx, key, window)
		if err != nil {
			log.Printf("Rate limit error: %v", err)
			// При ошибке Redis пропускаем запрос
			c.Next()
			return
		}

		if count > int64(maxRequests) {
			tooManyRequests(c)
			return
		}

		c.Next()
	}
}

// InMemoryRateLimitMiddleware - fallback rate limiter без Redis
func InMemoryRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	requests := make(map[string][]time.Time)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		now := time.Now()

		mu.Lock()

		// Очищаем записи старше окна
		validTimes := requests[clientIP][:0]
		for _, t := range requests[clientIP] {
			if now.Sub(t) < window {
				validTimes = append(validTimes, t)
			}
		}
		requests[clientIP] = validTimes

		if len(requests[clientIP]) >= maxRequests {
			mu.Unlock()
			tooManyRequests(c)
			return
		}

		requests[clientIP] = append(requests[clientIP], now)
		mu.Unlock()

		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error": "Too many requests. Please try again later.",
		"code":  "RATE_LIMITED",
	})
	c.Abort()
}
