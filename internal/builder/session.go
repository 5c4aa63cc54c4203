package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/store"
)

// Notice 是推送给界面的一条通知（对应前端的 toast）。
type Notice struct {
	Kind    string `json:"kind"` // success / error / info
	Message string `json:"message"`
}

// NotifyFunc 把通知送往界面层；可以为 nil。
type NotifyFunc func(Notice)

// Config 是会话的装配参数。Renderer 与 Gateway 必填。
type Config struct {
	AccountID     uint
	Renderer      *preview.Renderer
	Gateway       *store.Gateway
	Logger        *slog.Logger
	Notify        NotifyFunc
	AutoSaveDelay time.Duration // <= 0 时用 store.AutoSaveDelay
	SaveTimeout   time.Duration // <= 0 时用 5s
}

// Session 是单个账号的编辑会话：持有文档唯一事实来源，
// 每次变更后重建预览并安排防抖保存。所有方法并发安全。
type Session struct {
	mu        sync.Mutex
	accountID uint
	doc       resume.Document
	markup    string

	// dirty 标记有未落盘的变更；gen 在每次 Clear 时递增，
	// 用来作废清空前启动的落盘。
	dirty bool
	gen   uint64

	renderer    *preview.Renderer
	gateway     *store.Gateway
	saver       *store.AutoSaver
	logger      *slog.Logger
	notify      NotifyFunc
	saveTimeout time.Duration
}

// NewSession 打开会话：读取存档（缺失则从空白文档开始）并渲染首个预览。
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Renderer == nil || cfg.Gateway == nil {
		return nil, fmt.Errorf("builder: renderer and gateway are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.SaveTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s := &Session{
		accountID:   cfg.AccountID,
		renderer:    cfg.Renderer,
		gateway:     cfg.Gateway,
		logger:      logger,
		notify:      cfg.Notify,
		saveTimeout: timeout,
	}
	s.saver = store.NewAutoSaver(cfg.AutoSaveDelay, s.persist)

	doc, ok, err := cfg.Gateway.Load(ctx, cfg.AccountID)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if !ok {
		doc = resume.NewDocument()
	}
	s.doc = doc
	s.rerenderLocked()
	return s, nil
}

// Document 返回当前文档的深拷贝。
func (s *Session) Document() resume.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Preview 返回最近一次渲染的预览标记。
func (s *Session) Preview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markup
}

// ApplyForm 用一次表单快照重建文档。设置与头像不经表单，沿用当前值。
func (s *Session) ApplyForm(form resume.FormState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = resume.CaptureDocument(form, s.doc.Settings, s.doc.ProfilePicture)
	s.afterChangeLocked()
}

// AddEntry 在分类末尾追加一条条目并返回界面定位用的行 ID。
// initial 中的未知字段丢弃；不传 initial 即追加空白行。
func (s *Session) AddEntry(category resume.Category, initial map[string]string) (string, error) {
	fields := resume.FieldsFor(category)
	if fields == nil {
		return "", fmt.Errorf("unknown category %q", category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := resume.BlankEntry(category)
	for _, field := range fields {
		if v, ok := initial[field]; ok {
			entry[field] = v
		}
	}
	s.doc.Sections[category] = append(s.doc.Sections[category], entry)
	s.afterChangeLocked()
	return fmt.Sprintf("%s_%d", category, time.Now().UnixMilli()), nil
}

// RemoveEntry 删除分类中指定下标的条目。删掉最后一条是合法的，
// 该章节随之从预览消失。
func (s *Session) RemoveEntry(category resume.Category, index int) error {
	if resume.FieldsFor(category) == nil {
		return fmt.Errorf("unknown category %q", category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.doc.Sections[category]
	if index < 0 || index >= len(entries) {
		return fmt.Errorf("entry index %d out of range for %s", index, category)
	}
	s.doc.Sections[category] = append(entries[:index], entries[index+1:]...)
	s.afterChangeLocked()
	return nil
}

// ReorderEntries 按给出的下标排列重排分类内条目。
// order 必须是 0..n-1 的排列，否则拒绝且不改动任何状态。
func (s *Session) ReorderEntries(category resume.Category, order []int) error {
	if resume.FieldsFor(category) == nil {
		return fmt.Errorf("unknown category %q", category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.doc.Sections[category]
	if len(order) != len(entries) {
		return fmt.Errorf("reorder %s: got %d indexes for %d entries", category, len(order), len(entries))
	}
	seen := make([]bool, len(entries))
	reordered := make([]resume.Entry, len(entries))
	for pos, idx := range order {
		if idx < 0 || idx >= len(entries) || seen[idx] {
			return fmt.Errorf("reorder %s: invalid permutation %v", category, order)
		}
		seen[idx] = true
		reordered[pos] = entries[idx]
	}
	s.doc.Sections[category] = reordered
	s.afterChangeLocked()
	return nil
}

// SetSectionOrder 应用拖拽后的章节顺序，必须是七个章节键的完整排列。
func (s *Session) SetSectionOrder(order []string) error {
	if !resume.IsCompleteSectionOrder(order) {
		return fmt.Errorf("section order %v is not a complete permutation", order)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings.SectionOrder = append([]string(nil), order...)
	s.afterChangeLocked()
	return nil
}

// SetTemplate 切换版式模板。
func (s *Session) SetTemplate(template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if template == "" {
		template = resume.DefaultTemplate
	}
	s.doc.Settings.Template = template
	s.afterChangeLocked()
}

// SetTheme 直接指定主题，必须在主题循环之内。
func (s *Session) SetTheme(theme string) error {
	valid := false
	for _, t := range resume.Themes {
		if t == theme {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown theme %q", theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings.Theme = theme
	s.afterChangeLocked()
	return nil
}

// CycleTheme 切到循环中的下一个主题并返回它。
func (s *Session) CycleTheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Settings.Theme = resume.NextTheme(s.doc.Settings.Theme)
	s.afterChangeLocked()
	return s.doc.Settings.Theme
}

// SetFont 更新预览字体族。
func (s *Session) SetFont(font string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if font == "" {
		font = resume.DefaultFont
	}
	s.doc.Settings.Font = font
	s.afterChangeLocked()
}

// SetAccent 更新强调色。
func (s *Session) SetAccent(accent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accent == "" {
		accent = resume.DefaultAccent
	}
	s.doc.Settings.Accent = accent
	s.afterChangeLocked()
}

// SetProfilePicture 设置头像 data URI；传空串即移除头像。
func (s *Session) SetProfilePicture(dataURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ProfilePicture = dataURI
	s.afterChangeLocked()
}

// Clear 丢弃文档与存档，回到空白默认状态。挂起的自动保存一并取消，
// 不会出现“清空后又把旧数据写回去”的中间态。
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saver.Stop()
	// Stop 拦不住已经到点的计时器：作废挂起的落盘，换代让
	// 在途的落盘结束后自行把槽位删回去。
	s.dirty = false
	s.gen++
	doc, err := s.gateway.Clear(ctx, s.accountID)
	if err != nil {
		s.send(Notice{Kind: "error", Message: "Failed to clear resume data."})
		return fmt.Errorf("clear session: %w", err)
	}
	s.doc = doc
	s.rerenderLocked()
	s.send(Notice{Kind: "success", Message: "All data cleared successfully!"})
	return nil
}

// SaveNow 跳过防抖立即落盘，用于显式的“保存”按钮。
func (s *Session) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	s.saver.Stop()
	s.dirty = false
	doc := s.doc.Clone()
	gen := s.gen
	s.mu.Unlock()

	if err := s.saveSnapshot(ctx, doc, gen); err != nil {
		s.send(Notice{Kind: "error", Message: "Failed to save data. Storage may be full."})
		return err
	}
	s.send(Notice{Kind: "success", Message: "Resume saved successfully!"})
	return nil
}

// Close 结束会话：把挂起的自动保存冲刷出去。
func (s *Session) Close() {
	s.saver.Flush()
}

// afterChangeLocked 在每次变更后执行：重建预览、安排防抖保存。
// 调用方必须已持有 s.mu。
func (s *Session) afterChangeLocked() {
	s.rerenderLocked()
	s.dirty = true
	s.saver.Schedule()
}

func (s *Session) rerenderLocked() {
	markup, err := s.renderer.Render(s.doc)
	if err != nil {
		// 渲染失败保留上一帧预览，文档本身不受影响。
		s.logger.Error("render preview failed",
			slog.Uint64("account_id", uint64(s.accountID)),
			slog.Any("error", err),
		)
		return
	}
	s.markup = markup
}

// persist 是防抖计时器到点后的落盘动作，在计时器协程上执行。
func (s *Session) persist() {
	s.mu.Lock()
	if !s.dirty {
		// 计时器到点与 Clear/显式保存赛跑输了，这次落盘作废。
		s.mu.Unlock()
		return
	}
	s.dirty = false
	doc := s.doc.Clone()
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.saveSnapshot(ctx, doc, gen); err != nil {
		s.logger.Error("auto save failed",
			slog.Uint64("account_id", uint64(s.accountID)),
			slog.Any("error", err),
		)
		s.send(Notice{Kind: "error", Message: "Failed to save data. Storage may be full."})
	}
}

// saveSnapshot 落盘一份快照。写入期间若发生过 Clear（代际变了），
// 把刚写进去的槽位删回去：清空之后存储里不能留下任何数据。
func (s *Session) saveSnapshot(ctx context.Context, doc resume.Document, gen uint64) error {
	if err := s.gateway.Save(ctx, s.accountID, doc); err != nil {
		return err
	}

	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		if _, err := s.gateway.Clear(ctx, s.accountID); err != nil {
			return fmt.Errorf("discard stale save: %w", err)
		}
	}
	return nil
}

func (s *Session) send(n Notice) {
	if s.notify != nil {
		s.notify(n)
	}
}
