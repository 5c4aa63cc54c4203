package resume

// FormState 是客户端上报的一次表单快照。条目顺序与屏幕顺序一致，
// 已包含此前拖拽排序的结果。
type FormState struct {
	Personal PersonalInfo           `json:"personal"`
	Sections map[Category][]FormRow `json:"sections"`
}

// FormRow 是表单上的一行条目。ID 仅用于界面定位（时间戳生成），不参与持久化。
type FormRow struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// CaptureDocument 从表单快照重建文档。纯函数：
//   - 按分类模式投影字段，未知字段丢弃；
//   - 条目在至少一个字段非空时才被收录（不做去空白）；
//   - 条目顺序保持快照顺序；
//   - 模板/主题/章节顺序/强调色/头像不来自表单，由 settings 与 picture 带入。
func CaptureDocument(form FormState, settings Settings, profilePicture string) Document {
	sections := make(map[Category][]Entry, len(Categories))
	for _, category := range Categories {
		rows := form.Sections[category]
		entries := make([]Entry, 0, len(rows))
		for _, row := range rows {
			entry := captureEntry(category, row.Fields)
			if entry.IsEmpty() {
				continue
			}
			entries = append(entries, entry)
		}
		sections[category] = entries
	}

	return Document{
		Personal:       form.Personal,
		Sections:       sections,
		ProfilePicture: profilePicture,
		Settings:       settings,
	}
}

func captureEntry(category Category, fields map[string]string) Entry {
	entry := make(Entry, len(categoryFields[category]))
	for _, field := range categoryFields[category] {
		entry[field] = fields[field]
	}
	if category == CategoryExperience {
		normalizeExperience(entry)
	}
	return entry
}

// normalizeExperience 统一两种时间表示：自由文本 period 与 startDate/endDate +
// “至今”勾选。勾选 current 会清空 endDate（联动副作用）；period 为空时由
// 日期区间推导，填写了 period 则以 period 为准。
func normalizeExperience(entry Entry) {
	if entry["current"] == "true" {
		entry["endDate"] = ""
	} else {
		entry["current"] = ""
	}
	if entry["period"] != "" || entry["startDate"] == "" {
		return
	}
	end := entry["endDate"]
	if entry["current"] == "true" {
		end = "Present"
	}
	if end == "" {
		entry["period"] = entry["startDate"]
		return
	}
	entry["period"] = entry["startDate"] + " - " + end
}
