package resume

// Normalize 将（可能来自旧版本存档的）文档补齐为合法状态：
//   - 所有分类的条目列表存在且无 nil 条目；
//   - 条目字段按分类模式补齐，未知字段丢弃；
//   - 设置中缺失的字段回落到默认值；
//   - sectionOrder 必须是七个章节键的完整排列，缺失或残缺时重置为默认顺序。
func Normalize(doc Document) Document {
	out := doc

	if out.Sections == nil {
		out.Sections = make(map[Category][]Entry, len(Categories))
	} else {
		sections := make(map[Category][]Entry, len(Categories))
		for category, entries := range out.Sections {
			sections[category] = entries
		}
		out.Sections = sections
	}

	for _, category := range Categories {
		entries := out.Sections[category]
		normalized := make([]Entry, 0, len(entries))
		for _, entry := range entries {
			if entry == nil {
				continue
			}
			projected := make(Entry, len(categoryFields[category]))
			for _, field := range categoryFields[category] {
				projected[field] = entry[field]
			}
			normalized = append(normalized, projected)
		}
		out.Sections[category] = normalized
	}

	out.Settings = normalizeSettings(out.Settings)
	return out
}

func normalizeSettings(s Settings) Settings {
	if s.Template == "" {
		s.Template = DefaultTemplate
	}
	if s.Theme == "" {
		s.Theme = DefaultTheme
	}
	if s.Font == "" {
		s.Font = DefaultFont
	}
	if s.Accent == "" {
		s.Accent = DefaultAccent
	}
	if !IsCompleteSectionOrder(s.SectionOrder) {
		s.SectionOrder = append([]string(nil), DefaultSectionOrder...)
	} else {
		s.SectionOrder = append([]string(nil), s.SectionOrder...)
	}
	return s
}

// IsCompleteSectionOrder 校验 order 是否为七个已知章节键的排列。
func IsCompleteSectionOrder(order []string) bool {
	if len(order) != len(DefaultSectionOrder) {
		return false
	}
	seen := make(map[string]struct{}, len(order))
	known := make(map[string]struct{}, len(DefaultSectionOrder))
	for _, key := range DefaultSectionOrder {
		known[key] = struct{}{}
	}
	for _, key := range order {
		if _, ok := known[key]; !ok {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
