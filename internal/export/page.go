package export

import (
	"fmt"
	"strings"

	"resumebuilder/internal/resume"
)

// printStylesheet 是导出用的独立样式表。预览在浏览器里吃的是前端
// 样式，这里必须自带一份结构等价的 CSS，class 名与预览模板保持一致。
const printStylesheet = `
body { margin: 0; padding: 0; background: white; }
.resume-container { max-width: 800px; margin: 0 auto; padding: 32px; box-sizing: border-box; color: #1f2937; }
.resume-header { display: flex; align-items: center; gap: 24px; border-bottom: 3px solid var(--accent-color); padding-bottom: 16px; margin-bottom: 20px; }
.profile-picture img { width: 96px; height: 96px; border-radius: 50%; object-fit: cover; }
.name { margin: 0 0 8px; font-size: 28px; color: var(--accent-color); }
.contact-info { display: flex; flex-wrap: wrap; gap: 4px 16px; font-size: 13px; }
.resume-section { margin-bottom: 18px; }
.section-title { font-size: 17px; color: var(--accent-color); border-bottom: 1px solid var(--accent-color); padding-bottom: 4px; margin: 0 0 10px; }
.experience-item, .education-item, .certification-item { margin-bottom: 12px; }
.experience-header, .education-header { display: flex; justify-content: space-between; align-items: baseline; }
.position, .degree, .cert-name { margin: 0; font-size: 15px; }
.period, .cert-year { font-size: 13px; color: #6b7280; }
.company-location, .school, .cert-details { font-size: 14px; color: #374151; }
.description, .summary-text { font-size: 13px; line-height: 1.5; margin-top: 4px; }
.skills-grid, .languages-grid { display: flex; flex-wrap: wrap; gap: 6px 14px; }
.skill-item, .language-item { font-size: 13px; }
.skill-level, .language-level { color: #6b7280; margin-left: 4px; }
.hobbies-list { font-size: 13px; }
.theme-dark .resume-container { background: #111827; color: #e5e7eb; }
.theme-dark .period, .theme-dark .skill-level, .theme-dark .language-level { color: #9ca3af; }
.theme-dark .company-location, .theme-dark .school, .theme-dark .cert-details { color: #d1d5db; }
.theme-professional .resume-container { color: #111827; }
.theme-professional .section-title { text-transform: uppercase; letter-spacing: 1px; }
.theme-creative .section-title { border-bottom-width: 3px; }
@page { size: A4; margin: 0; }
@media print { body { -webkit-print-color-adjust: exact; print-color-adjust: exact; } }
`

// printablePage 把预览标记包成一张可独立渲染的 HTML 页。
// markup 来自 preview.Renderer,已完成转义,容器自带字体与强调色。
func printablePage(settings resume.Settings, markup string) string {
	// 主题名拼进 class 属性，存档里出现未知值时回落默认主题。
	theme := resume.DefaultTheme
	for _, t := range resume.Themes {
		if t == settings.Theme {
			theme = t
			break
		}
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>")
	b.WriteString(printStylesheet)
	b.WriteString("</style>\n</head>\n")
	fmt.Fprintf(&b, "<body class=\"theme-%s\">\n", theme)
	b.WriteString(markup)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
