package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpulse/internal/ai"
	"coinpulse/internal/auth"
	"coinpulse/internal/config"
	cronrunner "coinpulse/internal/cron"
	"coinpulse/internal/db"
	"coinpulse/internal/handler"
	"coinpulse/internal/logger"
	"coinpulse/internal/market"
	gormrepository "coinpulse/internal/repository/gorm"
	"coinpulse/internal/service"
)

func main() {
	cfgPath := os.Getenv("CP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	marketHTTP := &http.Client{Timeout: cfg.Binance.Timeout}
	marketClient := market.NewClient(marketHTTP, cfg.Binance.BaseURL)
	aiHTTP := &http.Client{Timeout: cfg.Gemini.Timeout}
	aiClient := ai.NewClient(aiHTTP, cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model)

	store := gormrepository.New(dbConn.Gorm)

	validator := &service.Validator{
		Prices:    marketClient,
		Coherence: aiClient,
		Logger:    logger,
	}
	submissions := &service.SubmissionService{
		Repo:      store,
		Validator: validator,
		Logger:    logger,
	}
	aggregation := &service.AggregationService{
		Repo:       store,
		Summarizer: aiClient,
		Logger:     logger,
	}
	resolver := &service.Resolver{
		Repo:   store,
		Prices: marketClient,
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(handler.RequestIDMiddleware())
	engine.Use(auth.RequireIdentityMiddleware(cfg.Auth.Disabled))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	predictionHandler := &handler.PredictionHandler{
		Submissions: submissions,
		Aggregation: aggregation,
		Logger:      logger,
	}
	predictionHandler.Register(engine)
	userHandler := &handler.UserPredictionHandler{
		Resolver:    resolver,
		Submissions: submissions,
		Logger:      logger,
	}
	userHandler.Register(engine)
	marketHandler := &handler.MarketHandler{Market: marketClient, Logger: logger}
	marketHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Sweep.Enabled {
		spec := "@every " + cfg.Sweep.Interval.String()
		_, err := cronRunner.Add(spec, func(ctx context.Context) {
			n, err := resolver.Sweep(ctx, cfg.Sweep.BatchSize)
			if err != nil {
				logger.Warn("cron fulfillment sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("cron fulfillment sweep ok", zap.Int("resolved", n))
			}
		})
		if err != nil {
			logger.Warn("cron register fulfillment sweep failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-User-ID,X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
