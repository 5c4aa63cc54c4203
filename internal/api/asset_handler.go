package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/builder"
	"resumebuilder/internal/storage"
)

// 头像上传限制：2MB 与前端校验一致；每账号每天限 30 次。
const (
	maxProfilePictureBytes = 2 << 20
	uploadDailyLimit       = 30
)

var allowedPictureTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// AssetHandler 负责头像上传：病毒扫描、类型与大小校验，
// 通过后编码为 data URI 写入文档，并在对象存储留档一份原图。
type AssetHandler struct {
	sessions    *builder.Manager
	redisClient *redis.Client
	storage     *storage.Client
	logger      *slog.Logger
	clamdAddr   string
}

// NewAssetHandler 返回 AssetHandler 实例。clamdAddr 为空时跳过扫描。
func NewAssetHandler(sessions *builder.Manager, redisClient *redis.Client, storageClient *storage.Client, logger *slog.Logger, clamdAddr string) *AssetHandler {
	return &AssetHandler{
		sessions:    sessions,
		redisClient: redisClient,
		storage:     storageClient,
		logger:      logger,
		clamdAddr:   clamdAddr,
	}
}

// UploadProfilePicture 处理头像上传。
func (h *AssetHandler) UploadProfilePicture(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	log := middleware.LoggerFromContext(c)

	rateKey := fmt.Sprintf("upload_rate:%d", userID)
	if count, err := incrWithTTL(c.Request.Context(), h.redisClient, rateKey, 24*time.Hour); err == nil && count > uploadDailyLimit {
		Error(c, http.StatusTooManyRequests, "upload limit reached")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > maxProfilePictureBytes {
		BadRequest(c, "image size should be less than 2MB")
		return
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxProfilePictureBytes+1))
	reader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}
	if len(data) > maxProfilePictureBytes {
		BadRequest(c, "image size should be less than 2MB")
		return
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedPictureTypes[contentType]; !ok {
		BadRequest(c, "unsupported image type")
		return
	}

	if h.clamdAddr != "" {
		if err := h.scan(data); err != nil {
			log.Warn("profile picture rejected by scanner", slog.Any("error", err))
			BadRequest(c, "malicious file detected")
			return
		}
	}

	dataURI := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	// 留档失败不拦截：文档里的 data URI 才是事实来源。
	if h.storage != nil {
		objectKey := fmt.Sprintf("profile-pictures/%d/%s%s", userID, uuid.NewString(), extensionForType(contentType))
		if _, err := h.storage.UploadFile(c.Request.Context(), objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			log.Warn("archive profile picture failed", slog.Any("error", err))
		}
	}

	s, err := h.sessions.Session(c.Request.Context(), userID)
	if err != nil {
		log.Error("open edit session failed", slog.Any("error", err))
		Internal(c, "failed to open session")
		return
	}
	s.SetProfilePicture(dataURI)

	c.JSON(http.StatusOK, gin.H{"profilePicture": dataURI})
}

// RemoveProfilePicture 移除头像。
func (h *AssetHandler) RemoveProfilePicture(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	s, err := h.sessions.Session(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("open edit session failed", slog.Any("error", err))
		Internal(c, "failed to open session")
		return
	}
	s.SetProfilePicture("")
	c.JSON(http.StatusOK, gin.H{"profilePicture": ""})
}

func extensionForType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func (h *AssetHandler) scan(data []byte) error {
	clamdClient := clamd.NewClamd(h.clamdAddr)

	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := clamdClient.ScanStream(bytes.NewReader(data), abortChan)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("scanner verdict %s: %s", result.Status, result.Description)
		}
	}
	return nil
}
