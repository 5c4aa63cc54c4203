package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/builder"
	"resumebuilder/internal/resume"
)

// DocumentHandler 暴露简历文档的编辑操作。所有写操作都走会话，
// 由会话负责重建预览与防抖落盘。
type DocumentHandler struct {
	sessions *builder.Manager
}

// NewDocumentHandler 构造文档处理器。
func NewDocumentHandler(sessions *builder.Manager) *DocumentHandler {
	return &DocumentHandler{sessions: sessions}
}

func (h *DocumentHandler) session(c *gin.Context) (*builder.Session, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}
	s, err := h.sessions.Session(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("open edit session failed", "error", err)
		Internal(c, "failed to open session")
		return nil, false
	}
	return s, true
}

// GetDocument 返回当前文档与预览标记。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document": s.Document(),
		"preview":  s.Preview(),
	})
}

// GetPreview 只返回预览标记，供轮询刷新。
func (h *DocumentHandler) GetPreview(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": s.Preview()})
}

// ApplyForm 用一次完整的表单快照重建文档。
func (h *DocumentHandler) ApplyForm(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var form resume.FormState
	if err := c.ShouldBindJSON(&form); err != nil {
		BadRequest(c, "invalid form payload")
		return
	}
	s.ApplyForm(form)
	c.JSON(http.StatusOK, gin.H{"preview": s.Preview()})
}

type addEntryRequest struct {
	Fields map[string]string `json:"fields"`
}

// AddEntry 在分类末尾追加条目。
func (h *DocumentHandler) AddEntry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, "invalid entry payload")
		return
	}
	rowID, err := s.AddEntry(resume.Category(c.Param("category")), req.Fields)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rowId": rowID, "preview": s.Preview()})
}

// RemoveEntry 删除分类中指定下标的条目。
func (h *DocumentHandler) RemoveEntry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		BadRequest(c, "invalid entry index")
		return
	}
	if err := s.RemoveEntry(resume.Category(c.Param("category")), index); err != nil {
		BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": s.Preview()})
}

type reorderRequest struct {
	Order []int `json:"order"`
}

// ReorderEntries 按下标排列重排分类内条目。
func (h *DocumentHandler) ReorderEntries(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid reorder payload")
		return
	}
	if err := s.ReorderEntries(resume.Category(c.Param("category")), req.Order); err != nil {
		BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": s.Preview()})
}

type settingsRequest struct {
	Template     string   `json:"template"`
	Theme        string   `json:"theme"`
	Font         string   `json:"font"`
	Accent       string   `json:"accent"`
	SectionOrder []string `json:"sectionOrder"`
}

// UpdateSettings 应用一批展示设置；缺省字段不改动。
func (h *DocumentHandler) UpdateSettings(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid settings payload")
		return
	}
	if req.Template != "" {
		s.SetTemplate(req.Template)
	}
	if req.Theme != "" {
		if err := s.SetTheme(req.Theme); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	if req.Font != "" {
		s.SetFont(req.Font)
	}
	if req.Accent != "" {
		s.SetAccent(req.Accent)
	}
	if len(req.SectionOrder) > 0 {
		if err := s.SetSectionOrder(req.SectionOrder); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"settings": s.Document().Settings,
		"preview":  s.Preview(),
	})
}

// CycleTheme 切到下一个主题。
func (h *DocumentHandler) CycleTheme(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	theme := s.CycleTheme()
	c.JSON(http.StatusOK, gin.H{"theme": theme, "preview": s.Preview()})
}

// SaveNow 跳过防抖立即保存。
func (h *DocumentHandler) SaveNow(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SaveNow(c.Request.Context()); err != nil {
		middleware.LoggerFromContext(c).Error("explicit save failed", "error", err)
		Internal(c, "failed to save")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// Clear 清空文档与存档。
func (h *DocumentHandler) Clear(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Clear(c.Request.Context()); err != nil {
		middleware.LoggerFromContext(c).Error("clear document failed", "error", err)
		Internal(c, "failed to clear")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document": s.Document(),
		"preview":  s.Preview(),
	})
}
