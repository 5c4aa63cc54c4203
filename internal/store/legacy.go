package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"resumebuilder/internal/resume"
)

// 旧版（第二套脚本）的存档布局：personal + 三个顶层列表 + 保存时间戳，
// 外加一个独立的暗色模式布尔槽。与主存档互不兼容，这里只做单向导入。
type legacySnapshot struct {
	Personal   resume.PersonalInfo `json:"personal"`
	Education  []resume.Entry      `json:"education"`
	Experience []resume.Entry      `json:"experience"`
	Skills     []resume.Entry      `json:"skills"`
	Timestamp  string              `json:"timestamp"`
}

func legacySlotKey(accountID uint) string {
	return fmt.Sprintf("resume:legacy:%d", accountID)
}

func legacyDarkKey(accountID uint) string {
	return fmt.Sprintf("resume:legacy:dark:%d", accountID)
}

func (g *Gateway) loadLegacy(ctx context.Context, accountID uint) (resume.Document, bool, error) {
	data, err := g.kv.Get(ctx, legacySlotKey(accountID))
	if errors.Is(err, ErrSlotMissing) {
		return resume.Document{}, false, nil
	}
	if err != nil {
		return resume.Document{}, false, fmt.Errorf("read legacy slot: %w", err)
	}

	var snapshot legacySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return resume.Document{}, false, fmt.Errorf("decode legacy slot: %w", err)
	}

	doc := resume.NewDocument()
	doc.Personal = snapshot.Personal
	if len(snapshot.Education) > 0 {
		doc.Sections[resume.CategoryEducation] = snapshot.Education
	}
	if len(snapshot.Experience) > 0 {
		doc.Sections[resume.CategoryExperience] = snapshot.Experience
	}
	if len(snapshot.Skills) > 0 {
		doc.Sections[resume.CategorySkills] = snapshot.Skills
	}

	if flag, err := g.kv.Get(ctx, legacyDarkKey(accountID)); err == nil && string(flag) == "true" {
		doc.Settings.Theme = "dark"
	} else if err != nil && !errors.Is(err, ErrSlotMissing) {
		g.logger.Warn("read legacy dark flag failed", slog.Any("error", err))
	}

	g.logger.Info("imported legacy resume snapshot",
		slog.Uint64("account_id", uint64(accountID)),
		slog.String("saved_at", snapshot.Timestamp),
	)
	return resume.Normalize(doc), true, nil
}
