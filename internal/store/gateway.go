package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"resumebuilder/internal/resume"
)

// Gateway 负责文档的序列化存取：每个账号一个命名存档槽。
// 旧版（第二套实现）的存档与主存档键名隔离，只读导入，不回写。
type Gateway struct {
	kv     KV
	logger *slog.Logger
}

// NewGateway 构造持久层网关。
func NewGateway(kv KV, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{kv: kv, logger: logger}
}

func slotKey(accountID uint) string {
	return fmt.Sprintf("resume:slot:%d", accountID)
}

// Save 将完整文档（含设置）序列化进存档槽。
func (g *Gateway) Save(ctx context.Context, accountID uint, doc resume.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := g.kv.Set(ctx, slotKey(accountID), data); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

// Load 读取存档并合并到默认文档上，使旧档缺失的新字段回落为默认值。
// 主槽缺失时尝试导入旧版存档；两者都缺失返回 ok=false，属正常情况。
func (g *Gateway) Load(ctx context.Context, accountID uint) (resume.Document, bool, error) {
	data, err := g.kv.Get(ctx, slotKey(accountID))
	if errors.Is(err, ErrSlotMissing) {
		return g.loadLegacy(ctx, accountID)
	}
	if err != nil {
		return resume.Document{}, false, fmt.Errorf("read slot: %w", err)
	}

	doc := resume.NewDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return resume.Document{}, false, fmt.Errorf("decode slot: %w", err)
	}
	return resume.Normalize(doc), true, nil
}

// Clear 删除存档槽（含旧版槽）并返回空白默认文档。重复调用结果一致。
func (g *Gateway) Clear(ctx context.Context, accountID uint) (resume.Document, error) {
	keys := []string{slotKey(accountID), legacySlotKey(accountID), legacyDarkKey(accountID)}
	if err := g.kv.Del(ctx, keys...); err != nil {
		return resume.Document{}, fmt.Errorf("delete slots: %w", err)
	}
	return resume.NewDocument(), nil
}
