package resume

// Category 表示一个可重复条目分类（教育、工作经历等）。
type Category string

const (
	CategoryEducation      Category = "education"
	CategoryExperience     Category = "experience"
	CategorySkills         Category = "skills"
	CategoryLanguages      Category = "languages"
	CategoryCertifications Category = "certifications"
	CategoryHobbies        Category = "hobbies"
)

// Categories 是所有分类的固定遍历顺序。
var Categories = []Category{
	CategoryEducation,
	CategoryExperience,
	CategorySkills,
	CategoryLanguages,
	CategoryCertifications,
	CategoryHobbies,
}

// SectionSummary 是个人简介在 sectionOrder 中的键，与六个分类并列。
const SectionSummary = "summary"

// DefaultSectionOrder 是预览渲染的默认章节顺序。
var DefaultSectionOrder = []string{
	SectionSummary,
	string(CategoryExperience),
	string(CategoryEducation),
	string(CategorySkills),
	string(CategoryLanguages),
	string(CategoryCertifications),
	string(CategoryHobbies),
}

// Default presentation settings.
const (
	DefaultTemplate = "template-classic"
	DefaultTheme    = "light"
	DefaultFont     = "Inter, Arial, sans-serif"
	DefaultAccent   = "#3b82f6"
)

// Themes 是主题循环顺序：light → dark → professional → creative → light。
var Themes = []string{"light", "dark", "professional", "creative"}

// Entry 是分类内的一条记录：字段名 → 字符串值。
// 字段集合由分类决定（见 FieldsFor），条目本身没有持久化身份。
type Entry map[string]string

// PersonalInfo 是表单上的个人信息字段，缺省一律为空字符串。
type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
}

// Settings 描述展示层配置：模板、主题、字体、强调色与章节顺序。
type Settings struct {
	Template     string   `json:"template"`
	Theme        string   `json:"theme"`
	Font         string   `json:"font"`
	Accent       string   `json:"accent"`
	SectionOrder []string `json:"sectionOrder"`
}

// Document 是简历的唯一事实来源：个人信息 + 各分类的有序条目 + 设置 + 头像。
// 表单与预览都是它的投影。
type Document struct {
	Personal       PersonalInfo         `json:"personal"`
	Sections       map[Category][]Entry `json:"sections"`
	ProfilePicture string               `json:"profilePicture"`
	Settings       Settings             `json:"settings"`
}

var categoryFields = map[Category][]string{
	CategoryEducation:      {"school", "degree", "field", "period", "description"},
	CategoryExperience:     {"company", "position", "location", "period", "startDate", "endDate", "current", "description"},
	CategorySkills:         {"name", "level"},
	CategoryLanguages:      {"name", "level"},
	CategoryCertifications: {"name", "year", "organization"},
	CategoryHobbies:        {"name"},
}

// FieldsFor 返回分类的字段模式；未知分类返回 nil。
func FieldsFor(category Category) []string {
	return categoryFields[category]
}

// IsEmpty 在条目的所有字段均为空字符串时返回 true。
// 只判断空，不做去空白（前后空格视为内容）。
func (e Entry) IsEmpty() bool {
	for _, v := range e {
		if v != "" {
			return false
		}
	}
	return true
}

// BlankEntry 构造一个字段齐全但全为空的条目。
func BlankEntry(category Category) Entry {
	entry := make(Entry, len(categoryFields[category]))
	for _, field := range categoryFields[category] {
		entry[field] = ""
	}
	return entry
}

// DefaultSettings 返回全新的默认展示配置。
func DefaultSettings() Settings {
	return Settings{
		Template:     DefaultTemplate,
		Theme:        DefaultTheme,
		Font:         DefaultFont,
		Accent:       DefaultAccent,
		SectionOrder: append([]string(nil), DefaultSectionOrder...),
	}
}

// NewDocument 构造空白文档：教育/经历/技能各播种一条空白条目，其余分类为空。
func NewDocument() Document {
	sections := make(map[Category][]Entry, len(Categories))
	for _, category := range Categories {
		sections[category] = []Entry{}
	}
	for _, category := range []Category{CategoryEducation, CategoryExperience, CategorySkills} {
		sections[category] = []Entry{BlankEntry(category)}
	}
	return Document{
		Personal: PersonalInfo{},
		Sections: sections,
		Settings: DefaultSettings(),
	}
}

// NextTheme 返回循环中的下一个主题；未知主题按 light 处理。
func NextTheme(current string) string {
	idx := -1
	for i, t := range Themes {
		if t == current {
			idx = i
			break
		}
	}
	return Themes[(idx+1)%len(Themes)]
}

// Clone 深拷贝文档，避免调用方与状态容器共享底层 map/slice。
func (d Document) Clone() Document {
	out := d
	out.Sections = make(map[Category][]Entry, len(d.Sections))
	for category, entries := range d.Sections {
		copied := make([]Entry, 0, len(entries))
		for _, entry := range entries {
			dup := make(Entry, len(entry))
			for k, v := range entry {
				dup[k] = v
			}
			copied = append(copied, dup)
		}
		out.Sections[category] = copied
	}
	out.Settings.SectionOrder = append([]string(nil), d.Settings.SectionOrder...)
	return out
}
