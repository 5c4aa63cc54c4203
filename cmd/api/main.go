package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumebuilder/internal/api"
	"resumebuilder/internal/auth"
	"resumebuilder/internal/builder"
	"resumebuilder/internal/config"
	"resumebuilder/internal/database"
	"resumebuilder/internal/export"
	"resumebuilder/internal/preview"
	"resumebuilder/internal/storage"
	"resumebuilder/internal/store"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("name", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	authService, err := auth.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	renderer, err := preview.NewRenderer()
	if err != nil {
		log.Fatalf("init preview renderer: %v", err)
	}

	gateway := store.NewGateway(store.NewRedisKV(redisClient), logger)

	// 会话内产生的提示（保存成功/失败等）经 Redis 转发到前端 WebSocket。
	notify := func(accountID uint, n builder.Notice) {
		payload, err := json.Marshal(map[string]string{
			"status":  "notice",
			"kind":    n.Kind,
			"message": n.Message,
		})
		if err != nil {
			return
		}
		channel := fmt.Sprintf("user_notify:%d", accountID)
		if err := redisClient.Publish(context.Background(), channel, payload).Err(); err != nil {
			logger.Warn("publish session notice failed", slog.Any("error", err))
		}
	}

	sessions := builder.NewManager(builder.ManagerConfig{
		Renderer: renderer,
		Gateway:  gateway,
		Logger:   logger,
		Notify:   notify,
	})

	downloadTTL := time.Duration(cfg.Export.DownloadTTLHours) * time.Hour

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, api.RouteDeps{
		DB:            db,
		AsynqClient:   asynqClient,
		AuthService:   authService,
		AuthSettings:  cfg.Auth,
		RedisClient:   redisClient,
		Logger:        logger,
		StorageClient: storageClient,
		Sessions:      sessions,
		TextExporter:  export.NewTextExporter(),
		WordExporter:  export.NewWordExporter(renderer),
		ClamdAddr:     cfg.Scanner.Address,
		DownloadTTL:   downloadTTL,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		logger.Info("api listening", slog.String("address", address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// 关会话会冲刷未落盘的自动保存，放在 HTTP 停止之后。
	sessions.Close()
	logger.Info("api server stopped")
}
