package store

import (
	"sync"
	"time"
)

// AutoSaveDelay 是自动保存的静默窗口：最后一次编辑后 1 秒才落盘。
const AutoSaveDelay = 1000 * time.Millisecond

// AutoSaver 实现尾沿防抖：窗口内的连续编辑合并为一次保存，
// 新的编辑会重置窗口。保存回调在计时器协程上执行。
type AutoSaver struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	save  func()
}

// NewAutoSaver 构造防抖保存器；delay <= 0 时使用 AutoSaveDelay。
func NewAutoSaver(delay time.Duration, save func()) *AutoSaver {
	if delay <= 0 {
		delay = AutoSaveDelay
	}
	return &AutoSaver{delay: delay, save: save}
}

// Schedule 记录一次编辑：取消未触发的保存并重新计时。
func (a *AutoSaver) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.save)
}

// Flush 立即执行挂起的保存（若有），用于显式保存与会话收尾。
func (a *AutoSaver) Flush() {
	a.mu.Lock()
	pending := a.timer != nil && a.timer.Stop()
	a.timer = nil
	a.mu.Unlock()
	if pending {
		a.save()
	}
}

// Stop 丢弃挂起的保存，不再触发。
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
