package export

import (
	"context"
	"fmt"
	"strings"

	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
)

// WordExporter 生成 Word 可打开的 .doc 文件：一页自包含 HTML,
// 以 application/msword 下发,Word 按旧式 HTML 文档导入。
// 没有服务端可用的 docx 装配库,这条兼容路径就是 Word 链的全部。
type WordExporter struct {
	renderer *preview.Renderer
}

// NewWordExporter 构造 Word 导出器。
func NewWordExporter(renderer *preview.Renderer) *WordExporter {
	return &WordExporter{renderer: renderer}
}

// Format 实现 Exporter。
func (e *WordExporter) Format() Format {
	return FormatWord
}

// Export 实现 Exporter。
func (e *WordExporter) Export(_ context.Context, doc resume.Document) (Artifact, error) {
	markup, err := e.renderer.Render(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("render resume markup: %w", err)
	}

	font := doc.Settings.Font
	if font == "" || strings.ContainsAny(font, "{}<>\"'\\") {
		font = resume.DefaultFont
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>`)
	fmt.Fprintf(&b, "body{font-family:%s;} .resume-container{max-width:800px;margin:0 auto;}", font)
	b.WriteString(`</style></head><body>`)
	b.WriteString(markup)
	b.WriteString(`</body></html>`)

	return Artifact{
		Filename:    Filename(doc, "doc"),
		ContentType: "application/msword",
		Data:        []byte(b.String()),
	}, nil
}
