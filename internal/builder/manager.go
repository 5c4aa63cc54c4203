package builder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"resumebuilder/internal/preview"
	"resumebuilder/internal/store"
)

// ManagerConfig 是会话管理器的装配参数。
type ManagerConfig struct {
	Renderer      *preview.Renderer
	Gateway       *store.Gateway
	Logger        *slog.Logger
	Notify        func(accountID uint, n Notice)
	AutoSaveDelay time.Duration
}

// Manager 按账号维护编辑会话：首次访问时从存档打开，之后复用。
// 并发安全。
type Manager struct {
	mu       sync.Mutex
	sessions map[uint]*Session
	cfg      ManagerConfig
}

// NewManager 构造会话管理器。
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[uint]*Session),
		cfg:      cfg,
	}
}

// Session 返回账号的会话，必要时打开新会话。
func (m *Manager) Session(ctx context.Context, accountID uint) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[accountID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// 打开会话要读存档，不能拿着锁做 IO。
	var notify NotifyFunc
	if m.cfg.Notify != nil {
		id := accountID
		notify = func(n Notice) { m.cfg.Notify(id, n) }
	}
	s, err := NewSession(ctx, Config{
		AccountID:     accountID,
		Renderer:      m.cfg.Renderer,
		Gateway:       m.cfg.Gateway,
		Logger:        m.cfg.Logger,
		Notify:        notify,
		AutoSaveDelay: m.cfg.AutoSaveDelay,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[accountID]; ok {
		// 并发打开时保留先到的会话，丢弃这份。
		s.Close()
		return existing, nil
	}
	m.sessions[accountID] = s
	return s, nil
}

// Evict 关闭并移除账号的会话（冲刷挂起的保存）。
func (m *Manager) Evict(accountID uint) {
	m.mu.Lock()
	s, ok := m.sessions[accountID]
	delete(m.sessions, accountID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close 关闭全部会话，用于进程收尾。
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uint]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
