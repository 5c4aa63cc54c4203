package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumebuilder/internal/database"
	"resumebuilder/internal/errcode"
	"resumebuilder/internal/export"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/tasks"
)

// FormatExporter 是导出链的消费侧视角。
type FormatExporter interface {
	Export(ctx context.Context, doc resume.Document) (export.Artifact, error)
}

// ObjectStore 是任务处理器需要的对象存储能力。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	PresignDownload(ctx context.Context, objectKey string, duration time.Duration, attachmentName string) (string, error)
}

// Publisher 把通知发布到 Redis 频道。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ExportTaskHandler 负责消费简历导出任务。
type ExportTaskHandler struct {
	db          *gorm.DB
	store       ObjectStore
	publisher   Publisher
	logger      *slog.Logger
	chains      map[export.Format]FormatExporter
	downloadTTL time.Duration
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	store ObjectStore,
	publisher Publisher,
	logger *slog.Logger,
	chains map[export.Format]FormatExporter,
	downloadTTL time.Duration,
) *ExportTaskHandler {
	if downloadTTL <= 0 {
		downloadTTL = 24 * time.Hour
	}
	return &ExportTaskHandler{
		db:          db,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		chains:      chains,
		downloadTTL: downloadTTL,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("record_id", uint64(payload.RecordID)),
	)
	log.Info("Starting resume export task...")

	var record database.ExportRecord
	if err := h.db.WithContext(ctx).First(&record, payload.RecordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("export record not found, skipping task")
			return nil
		}
		log.Error("query export record failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.Uint64("user_id", uint64(record.UserID)),
		slog.String("format", record.Format),
	)

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		update := map[string]any{
			"status":        "failed",
			"error_message": strings.TrimSpace(retErr.Error()),
		}
		if err := h.db.WithContext(ctx).Model(&record).Updates(update).Error; err != nil {
			log.Error("mark export record failed", slog.Any("error", err))
		}

		notify := ExportNotifyMessage{
			Status:        "error",
			RecordID:      record.ID,
			Format:        record.Format,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.ExportFailure,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishExportNotify(ctx, record.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	format, err := export.ParseFormat(record.Format)
	if err != nil {
		return err
	}
	chain, ok := h.chains[format]
	if !ok {
		return fmt.Errorf("no export chain configured for %s", format)
	}

	doc := resume.NewDocument()
	if err := json.Unmarshal(record.Snapshot, &doc); err != nil {
		return fmt.Errorf("decode document snapshot: %w", err)
	}
	doc = resume.Normalize(doc)

	artifact, err := chain.Export(ctx, doc)
	if err != nil {
		log.Error("export document failed", slog.Any("error", err))
		return err
	}

	objectKey := fmt.Sprintf("exports/%d/%s/%s", record.UserID, uuid.NewString(), artifact.Filename)
	reader := bytes.NewReader(artifact.Data)
	if _, err := h.store.UploadFile(ctx, objectKey, reader, int64(len(artifact.Data)), artifact.ContentType); err != nil {
		log.Error("upload export artifact failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"object_key": objectKey,
		"filename":   artifact.Filename,
		"status":     "completed",
	}
	if err := h.db.WithContext(ctx).Model(&record).Updates(update).Error; err != nil {
		log.Error("update export record failed", slog.Any("error", err))
		return err
	}

	downloadURL, err := h.store.PresignDownload(ctx, objectKey, h.downloadTTL, artifact.Filename)
	if err != nil {
		log.Error("presign download url failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Status:        "completed",
		RecordID:      record.ID,
		Format:        record.Format,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		DownloadURL:   downloadURL,
		Filename:      artifact.Filename,
	}
	if err := h.publishExportNotify(ctx, record.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Resume export task completed successfully.")
	return nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, userID uint, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
