// @title EventHub API
// @version 1.0
// @description Event listing backend with owner-scoped mutations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"eventhub/config"
	_ "eventhub/docs"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/media"
	httpdelivery "eventhub/internal/delivery/http"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/repository/rediscache"
	"eventhub/internal/services"
)

const serviceTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := postgres.Open(cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	mediaStore, err := media.NewStore(cfg.Media, logger)
	if err != nil {
		logger.Error("init media store", "err", err)
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	eventRepo := rediscache.New(postgres.NewEventRepository(db), rdb, cfg.CacheTTL, logger)
	userRepo := postgres.NewUserRepository(db)

	codec := auth.NewJWTCodec(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)

	eventService := services.NewEventService(eventRepo, mediaStore, logger, serviceTimeout)
	authService := services.NewAuthService(userRepo, hasher, codec, cfg.JWTExpiry, serviceTimeout)

	eventController := controllers.NewEventController(logger, eventService)
	authController := controllers.NewAuthController(logger, authService)

	mux := httpdelivery.NewRouter(eventController, authController, codec, logger)
	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	addr := ":" + cfg.Port
	logger.Info("server listening", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
