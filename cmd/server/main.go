package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/cache"
	httpdelivery "github.com/RonaldHZzzz/project-predict-traffic/internal/delivery/http"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/delivery/ws"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/repository/postgres"
	"github.com/RonaldHZzzz/project-predict-traffic/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	var repo service.SnapshotRepository
	if cfg.DatabaseURL != "" {
		connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.New(connCtx, cfg.DatabaseURL)
		connCancel()
		if err != nil {
			log.Printf("Warning: Could not connect to database: %v", err)
			log.Println("Running without persistence")
			repo = postgres.NewMockRepository()
		} else {
			defer pool.Close()
			log.Println("Connected to PostgreSQL")
			repo = postgres.NewPostgresRepository(pool)
		}
	} else {
		log.Println("DATABASE_URL not set, running without persistence")
		repo = postgres.NewMockRepository()
	}

	// Segment/bus-stop cache (degrades gracefully when Redis is absent)
	cch := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, cfg.RedisDB)
	defer cch.Close()

	// Scene push hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Dependency Injection: backend client and orchestrator
	backend := service.NewHTTPBackend(cfg.BackendURL, cfg.BackendToken)
	orch := service.NewOrchestrator(backend, cch, repo, cfg.PollInterval, hub.BroadcastScene)
	orch.Start(ctx)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Corridor Monitor v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	httpdelivery.SetupRoutes(app, orch, repo, hub)

	// Graceful shutdown
	go func() {
		port := cfg.Port
		if port == "" {
			port = "8080"
		}
		log.Printf("Server starting on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	orch.Stop()
	log.Println("Server exited gracefully")
}

type Config struct {
	BackendURL    string
	BackendToken  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	RedisDB       int
	Port          string
	PollInterval  time.Duration
}

func loadConfig() *Config {
	pollSeconds, err := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "30"))
	if err != nil || pollSeconds <= 0 {
		pollSeconds = 30
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}

	return &Config{
		BackendURL:    getEnv("BACKEND_URL", "http://127.0.0.1:8000"),
		BackendToken:  getEnv("BACKEND_TOKEN", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisPrefix:   getEnv("REDIS_PREFIX", "corridor"),
		RedisDB:       redisDB,
		Port:          getEnv("PORT", "8080"),
		PollInterval:  time.Duration(pollSeconds) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
