package export

import (
	"context"

	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
)

// PrintViewExporter 是 PDF 链的兜底：两种 PDF 生成都不可用时，
// 交付一份自带打印样式的 HTML,用户用浏览器的打印对话框另存为 PDF。
type PrintViewExporter struct {
	renderer *preview.Renderer
}

// NewPrintViewExporter 构造打印视图导出器。
func NewPrintViewExporter(renderer *preview.Renderer) *PrintViewExporter {
	return &PrintViewExporter{renderer: renderer}
}

// Format 实现 Exporter。产物是 HTML，但它顶 PDF 的班。
func (e *PrintViewExporter) Format() Format {
	return FormatPDF
}

// Export 实现 Exporter。
func (e *PrintViewExporter) Export(_ context.Context, doc resume.Document) (Artifact, error) {
	markup, err := e.renderer.Render(doc)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Filename:    Filename(doc, "html"),
		ContentType: "text/html; charset=utf-8",
		Data:        []byte(printablePage(doc.Settings, markup)),
	}, nil
}
