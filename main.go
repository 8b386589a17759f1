package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"miniapp-shop-api/config"
	"miniapp-shop-api/handlers"
	"miniapp-shop-api/logger"
	"miniapp-shop-api/middleware"
	"miniapp-shop-api/notify"
	"miniapp-shop-api/repository"
	"miniapp-shop-api/routes"
	"miniapp-shop-api/services"
	"miniapp-shop-api/storage"
	"miniapp-shop-api/telegram"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Env: cfg.AppEnv, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.DevMode {
		log.Warn("DEV MODE is on: unauthenticated requests act as the dev admin")
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.Fatal("failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}

	r, err := setupRouter(cfg, db, log)
	if err != nil {
		log.Fatal("failed to build router", zap.Error(err))
	}
	startServer(cfg, r, log)
}

func setupRouter(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*gin.Engine, error) {
	store := repository.NewStore(db)

	bot := telegram.NewBot(cfg.TelegramAPIURL, cfg.BotToken, cfg.NotifyTimeout)
	var notifier notify.Notifier = notify.Nop{}
	if cfg.BotToken != "" {
		notifier = notify.NewTelegramNotifier(bot, cfg.NotifyTimeout, log)
	} else {
		log.Warn("BOT_TOKEN is empty: Telegram notifications and invoices are disabled")
	}

	uploads, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	users := services.NewUserService(store, cfg.PresidentUsername, log)
	verifier := telegram.NewVerifier(cfg.BotToken, cfg.InitDataMaxAge)
	sessions := middleware.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL)

	h := handlers.New(handlers.Deps{
		Users:         users,
		Catalog:       services.NewCatalogService(store, services.ShopScope{Policy: cfg.ShopScopePolicy}, log),
		Orders:        services.NewOrderService(store, notifier, bot, log),
		Verifier:      verifier,
		Sessions:      sessions,
		Storage:       uploads,
		Log:           log,
		DevMode:       cfg.DevMode,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	opts := routes.Options{
		Auth: middleware.NewAuthenticator(verifier, sessions, users, middleware.AuthOptions{
			LegacyHeader: cfg.LegacyTelegramID,
			DevMode:      cfg.DevMode,
		}, log),
	}
	if cfg.AuthRateLimit > 0 {
		opts.AuthLimiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, int(cfg.AuthRateLimit)*2+1)
	}
	if local, ok := uploads.(*storage.Local); ok {
		opts.UploadDir = local.Dir()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	// CORS middleware for the Mini App frontend
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Telegram-Id")
		c.Header("Access-Control-Expose-Headers", "Deprecation, "+middleware.RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Mini App shop API",
			"docs":    "/api/state-machine",
			"health":  "/api/health",
		})
	})

	routes.SetupRoutes(r, h, opts)
	return r, nil
}

func startServer(cfg *config.Config, r http.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
