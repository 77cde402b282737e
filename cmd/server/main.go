package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/chainpilot/assistant-backend/internal/ai/anthropic"
	"github.com/chainpilot/assistant-backend/internal/api"
	"github.com/chainpilot/assistant-backend/internal/cache/redis"
	"github.com/chainpilot/assistant-backend/internal/chain"
	"github.com/chainpilot/assistant-backend/internal/config"
	"github.com/chainpilot/assistant-backend/internal/pricing"
	"github.com/chainpilot/assistant-backend/internal/service"
	"github.com/chainpilot/assistant-backend/internal/service/assistant"
	"github.com/chainpilot/assistant-backend/internal/storage/ipfs"
	"github.com/chainpilot/assistant-backend/internal/storage/postgres"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Local development overrides; missing .env is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	// Configure log format
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	logger.Info("starting assistant-backend server")

	// Connect to database
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis client
	redisClient, err := redis.New(cfg.Redis.URI)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	// Initialize Anthropic client
	anthropicClient := anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)

	// Initialize chain client
	chainClient, err := chain.NewClient(ctx, cfg.Chain, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to chain RPC")
	}

	// Initialize services
	authService := service.NewAuthService(cfg.Server.JWTSecret)
	pricingService := pricing.NewService(redisClient, logger, cfg.Chain.NativeCoinID, cfg.Chain.NativeSymbol)
	ipfsClient := ipfs.NewClient(cfg.Storage.GatewayURL, cfg.Storage.APIToken)

	// Initialize repositories
	convRepo := postgres.NewConversationRepository(db.Pool())
	msgRepo := postgres.NewMessageRepository(db.Pool())

	// Initialize assistant service
	assistantService := assistant.NewService(anthropicClient, msgRepo, convRepo, redisClient, chainClient, pricingService, ipfsClient, logger)

	// Initialize API server
	server := api.NewServer(authService, convRepo, msgRepo, assistantService, logger)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Info("request")
			return nil
		},
	}))

	// Health check endpoint (public)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Assistant routes (authenticated)
	assistantGroup := e.Group("/assistant", server.AuthMiddleware)
	assistantGroup.POST("/conversations", server.CreateConversation)
	assistantGroup.POST("/conversations/list", server.ListConversations)
	assistantGroup.POST("/conversations/:id", server.GetConversation)
	assistantGroup.DELETE("/conversations/:id", server.DeleteConversation)
	assistantGroup.POST("/conversations/:id/messages", server.SendMessage)
	assistantGroup.POST("/conversations/:id/reset", server.ResetConversation)
	assistantGroup.POST("/conversations/:id/transcript", server.ExportTranscript)
	assistantGroup.POST("/conversations/:id/transcript/import", server.ImportTranscript)
	assistantGroup.POST("/conversations/:id/upload", server.UploadImage)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.WithField("addr", addr).Info("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown error")
	}

	logger.Info("server stopped")
}
