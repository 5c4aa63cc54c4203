package preview

import (
	"fmt"
	"html/template"
	"strings"

	"resumebuilder/internal/resume"
)

// Renderer 将文档投影为预览 HTML。无副作用，可并发复用。
// 所有用户文本经 html/template 转义后插入，换行在转义后转为 <br>。
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer 解析内置模板并构造 Renderer。
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("preview").Funcs(template.FuncMap{
		"safeCSS":      safeCSS,
		"safeImageURL": safeImageURL,
		"nl2br":        nl2br,
		"orLabel":      orLabel,
	}).Parse(previewTemplateString)
	if err != nil {
		return nil, fmt.Errorf("parse preview template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render 生成预览标记。章节按 sectionOrder 输出，且必须同时满足
// “已生成”（有数据）与“已列出”（在顺序表中）两个条件。
func (r *Renderer) Render(doc resume.Document) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.Execute(&buf, newView(doc)); err != nil {
		return "", fmt.Errorf("execute preview template: %w", err)
	}
	return buf.String(), nil
}

type view struct {
	Template       string
	ContainerStyle string
	ProfilePicture string
	Name           string
	Personal       resume.PersonalInfo
	Sections       []sectionView
}

type sectionView struct {
	Key       string
	Summary   string
	Entries   []resume.Entry
	HobbyList string
}

func newView(doc resume.Document) view {
	name := doc.Personal.FullName
	if name == "" {
		name = "Your Name"
	}

	v := view{
		Template:       doc.Settings.Template,
		ContainerStyle: containerStyle(doc.Settings),
		ProfilePicture: doc.ProfilePicture,
		Name:           name,
		Personal:       doc.Personal,
	}

	for _, key := range doc.Settings.SectionOrder {
		if section, ok := buildSection(doc, key); ok {
			v.Sections = append(v.Sections, section)
		}
	}
	return v
}

// buildSection 为单个章节生成视图；数据为空的章节返回 ok=false 被静默跳过。
func buildSection(doc resume.Document, key string) (sectionView, bool) {
	if key == resume.SectionSummary {
		if doc.Personal.Summary == "" {
			return sectionView{}, false
		}
		return sectionView{Key: key, Summary: doc.Personal.Summary}, true
	}

	// 只有“已捕获”的条目（至少一个字段非空）才算数据；
	// 播种的空白条目不会让章节出现。
	all := doc.Sections[resume.Category(key)]
	entries := make([]resume.Entry, 0, len(all))
	for _, entry := range all {
		if !entry.IsEmpty() {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return sectionView{}, false
	}

	section := sectionView{Key: key, Entries: entries}
	if resume.Category(key) == resume.CategoryHobbies {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			name := entry["name"]
			if name == "" {
				name = "Hobby"
			}
			names = append(names, name)
		}
		section.HobbyList = strings.Join(names, ", ")
	}
	return section, true
}

func containerStyle(s resume.Settings) string {
	return fmt.Sprintf("font-family: %s; --accent-color: %s;", s.Font, s.Accent)
}

// safeCSS 放行由本包自己拼接的样式串；用户输入只进入字体与颜色两个值，
// 含引号/花括号/分号注入的值整体拒绝。
func safeCSS(s string) template.CSS {
	if strings.ContainsAny(s, "{}<>\"'\\") {
		return template.CSS("")
	}
	return template.CSS(s)
}

// safeImageURL 仅放行 data:image/* URI，其余一律置空（头像只能是内嵌图片）。
func safeImageURL(s string) template.URL {
	if strings.HasPrefix(s, "data:image/") && !strings.ContainsAny(s, "\"'<> ") {
		return template.URL(s)
	}
	return template.URL("")
}

// nl2br 先转义再把换行替换为 <br>，用于 summary 与 description 字段。
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// orLabel 在字段为空时代入占位标签，保证部分填写的条目不出现空行。
func orLabel(label, value string) string {
	if value == "" {
		return label
	}
	return value
}
