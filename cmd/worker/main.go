package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumebuilder/internal/config"
	"resumebuilder/internal/database"
	"resumebuilder/internal/export"
	"resumebuilder/internal/metrics"
	"resumebuilder/internal/preview"
	"resumebuilder/internal/storage"
	"resumebuilder/internal/tasks"
	"resumebuilder/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	renderer, err := preview.NewRenderer()
	if err != nil {
		log.Fatalf("init preview renderer: %v", err)
	}

	// PDF 先走浏览器打印（矢量），失败回落到截图栅格化，
	// 最后兜底交付可打印的 HTML。
	pdfChain, err := export.NewChain(export.FormatPDF, logger,
		export.NewPrintPDFExporter(renderer),
		export.NewRasterPDFExporter(renderer),
		export.NewPrintViewExporter(renderer),
	)
	if err != nil {
		log.Fatalf("build pdf export chain: %v", err)
	}
	chains := map[export.Format]worker.FormatExporter{
		export.FormatPDF: pdfChain,
	}

	downloadTTL := time.Duration(cfg.Export.DownloadTTLHours) * time.Hour
	handler := worker.NewExportTaskHandler(db, storageClient, redisClient, logger, chains, downloadTTL)

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: cfg.Export.Concurrency,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeExportGenerate, handler)

	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Export.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
