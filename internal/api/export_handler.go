package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/builder"
	"resumebuilder/internal/database"
	"resumebuilder/internal/export"
	"resumebuilder/internal/storage"
	"resumebuilder/internal/tasks"
)

// ExportHandler 暴露导出接口。文本与 Word 轻量，直接同步下发；
// PDF 要起浏览器，落到任务队列异步生成，完成后经 WebSocket 通知。
type ExportHandler struct {
	sessions    *builder.Manager
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     *storage.Client
	text        export.Exporter
	word        export.Exporter
	downloadTTL time.Duration
}

// NewExportHandler 构造导出处理器。
func NewExportHandler(
	sessions *builder.Manager,
	db *gorm.DB,
	asynqClient *asynq.Client,
	storageClient *storage.Client,
	text export.Exporter,
	word export.Exporter,
	downloadTTL time.Duration,
) *ExportHandler {
	if downloadTTL <= 0 {
		downloadTTL = 24 * time.Hour
	}
	return &ExportHandler{
		sessions:    sessions,
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		text:        text,
		word:        word,
		downloadTTL: downloadTTL,
	}
}

// DownloadText 同步导出纯文本。
func (h *ExportHandler) DownloadText(c *gin.Context) {
	h.downloadSync(c, h.text)
}

// DownloadWord 同步导出 Word 文档。
func (h *ExportHandler) DownloadWord(c *gin.Context) {
	h.downloadSync(c, h.word)
}

func (h *ExportHandler) downloadSync(c *gin.Context, exporter export.Exporter) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	s, err := h.sessions.Session(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("open edit session failed", "error", err)
		Internal(c, "failed to open session")
		return
	}

	artifact, err := exporter.Export(c.Request.Context(), s.Document())
	if err != nil {
		middleware.LoggerFromContext(c).Error("sync export failed",
			"format", string(exporter.Format()), "error", err)
		Internal(c, "export failed")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// EnqueuePDF 提交异步 PDF 导出。快照当前文档入库后推队列,
// 返回 202 与记录 ID；完成通知走 user_notify 频道。
func (h *ExportHandler) EnqueuePDF(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	log := middleware.LoggerFromContext(c)

	s, err := h.sessions.Session(c.Request.Context(), userID)
	if err != nil {
		log.Error("open edit session failed", "error", err)
		Internal(c, "failed to open session")
		return
	}

	snapshot, err := json.Marshal(s.Document())
	if err != nil {
		log.Error("marshal document snapshot failed", "error", err)
		Internal(c, "failed to snapshot document")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	record := database.ExportRecord{
		UserID:        userID,
		Format:        string(export.FormatPDF),
		CorrelationID: correlationID,
		Snapshot:      snapshot,
		Status:        "pending",
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&record).Error; err != nil {
		log.Error("create export record failed", "error", err)
		Internal(c, "failed to create export record")
		return
	}

	task, err := tasks.NewExportGenerateTask(record.ID, correlationID)
	if err != nil {
		log.Error("build export task failed", "error", err)
		Internal(c, "failed to enqueue export")
		return
	}
	if _, err := h.asynqClient.EnqueueContext(c.Request.Context(), task, asynq.MaxRetry(3)); err != nil {
		log.Error("enqueue export task failed", "error", err)
		Internal(c, "failed to enqueue export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"recordId":      record.ID,
		"correlationId": correlationID,
		"status":        record.Status,
	})
}

// GetExportStatus 查询导出记录；已完成时附带限时下载链接。
func (h *ExportHandler) GetExportStatus(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid record id")
		return
	}

	var record database.ExportRecord
	err = h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", recordID, userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "export record not found")
		return
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("query export record failed", "error", err)
		Internal(c, "failed to query export record")
		return
	}

	resp := gin.H{
		"recordId": record.ID,
		"format":   record.Format,
		"status":   record.Status,
	}
	if record.Status == "failed" {
		resp["error"] = record.ErrorMessage
	}
	if record.Status == "completed" && record.ObjectKey != "" {
		url, err := h.storage.PresignDownload(c.Request.Context(), record.ObjectKey, h.downloadTTL, record.Filename)
		if err != nil {
			middleware.LoggerFromContext(c).Error("presign download failed", "error", err)
			Internal(c, "failed to presign download")
			return
		}
		resp["downloadUrl"] = url
		resp["filename"] = record.Filename
	}
	c.JSON(http.StatusOK, resp)
}
