package export

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"resumebuilder/internal/resume"
)

// TextExporter 生成纯文本版简历。章节顺序固定（简介、经历、教育、技能、
// 语言、证书、爱好），不跟随预览的 sectionOrder——纯文本没有版式可言，
// 固定顺序可保证输出稳定可比对。
type TextExporter struct{}

// NewTextExporter 构造纯文本导出器。
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Format 实现 Exporter。
func (e *TextExporter) Format() Format {
	return FormatText
}

// Export 实现 Exporter。纯函数，永不失败。
func (e *TextExporter) Export(_ context.Context, doc resume.Document) (Artifact, error) {
	return Artifact{
		Filename:    Filename(doc, "txt"),
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(Transcript(doc)),
	}, nil
}

// Transcript 把文档排成纯文本。姓名下划线用 = 且与姓名等长，
// 各章节标题下划线用 -，长度沿用既有格式的固定值。
func Transcript(doc resume.Document) string {
	var b strings.Builder

	name := doc.Personal.FullName
	if name == "" {
		name = "YOUR NAME"
	}
	b.WriteString(name + "\n")
	// 下划线按字符数对齐，非 ASCII 姓名不能按字节算。
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(name)) + "\n\n")

	writeContact(&b, "Email", doc.Personal.Email)
	writeContact(&b, "Phone", doc.Personal.Phone)
	writeContact(&b, "Address", doc.Personal.Address)
	writeContact(&b, "LinkedIn", doc.Personal.LinkedIn)
	writeContact(&b, "GitHub", doc.Personal.GitHub)
	writeContact(&b, "Website", doc.Personal.Website)
	b.WriteString("\n")

	if doc.Personal.Summary != "" {
		writeHeading(&b, "PROFESSIONAL SUMMARY", 20)
		b.WriteString(doc.Personal.Summary + "\n\n")
	}

	if entries := captured(doc, resume.CategoryExperience); len(entries) > 0 {
		// 历史格式如此：下划线 25 个,比标题本身长两格。
		writeHeading(&b, "PROFESSIONAL EXPERIENCE", 25)
		for _, exp := range entries {
			b.WriteString(orText(exp["position"], "Position") + " | " + orText(exp["company"], "Company") + "\n")
			line := orText(exp["period"], "Period")
			if exp["location"] != "" {
				line += " | " + exp["location"]
			}
			b.WriteString(line + "\n")
			if exp["description"] != "" {
				b.WriteString(exp["description"] + "\n")
			}
			b.WriteString("\n")
		}
	}

	if entries := captured(doc, resume.CategoryEducation); len(entries) > 0 {
		writeHeading(&b, "EDUCATION", 9)
		for _, edu := range entries {
			line := orText(edu["degree"], "Degree")
			if edu["field"] != "" {
				line += " in " + edu["field"]
			}
			b.WriteString(line + "\n")
			b.WriteString(orText(edu["school"], "School") + " | " + orText(edu["period"], "Period") + "\n")
			if edu["description"] != "" {
				b.WriteString(edu["description"] + "\n")
			}
			b.WriteString("\n")
		}
	}

	if entries := captured(doc, resume.CategorySkills); len(entries) > 0 {
		writeHeading(&b, "SKILLS", 6)
		for _, skill := range entries {
			writeBullet(&b, orText(skill["name"], "Skill"), skill["level"])
		}
		b.WriteString("\n")
	}

	if entries := captured(doc, resume.CategoryLanguages); len(entries) > 0 {
		writeHeading(&b, "LANGUAGES", 9)
		for _, lang := range entries {
			writeBullet(&b, orText(lang["name"], "Language"), lang["level"])
		}
		b.WriteString("\n")
	}

	if entries := captured(doc, resume.CategoryCertifications); len(entries) > 0 {
		writeHeading(&b, "CERTIFICATIONS", 14)
		for _, cert := range entries {
			b.WriteString("• " + orText(cert["name"], "Certification") + "\n")
			line := "  " + orText(cert["organization"], "Organization")
			if cert["year"] != "" {
				line += " (" + cert["year"] + ")"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if entries := captured(doc, resume.CategoryHobbies); len(entries) > 0 {
		writeHeading(&b, "INTERESTS & HOBBIES", 19)
		names := make([]string, 0, len(entries))
		for _, hobby := range entries {
			if hobby["name"] != "" {
				names = append(names, hobby["name"])
			}
		}
		b.WriteString(strings.Join(names, ", ") + "\n")
	}

	return b.String()
}

// captured 过滤掉播种的空白条目。
func captured(doc resume.Document, category resume.Category) []resume.Entry {
	all := doc.Sections[category]
	entries := make([]resume.Entry, 0, len(all))
	for _, entry := range all {
		if !entry.IsEmpty() {
			entries = append(entries, entry)
		}
	}
	return entries
}

func writeHeading(b *strings.Builder, title string, rule int) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", rule) + "\n")
}

func writeContact(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func writeBullet(b *strings.Builder, name, level string) {
	line := "• " + name
	if level != "" {
		line += " (" + level + ")"
	}
	b.WriteString(line + "\n")
}

func orText(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
