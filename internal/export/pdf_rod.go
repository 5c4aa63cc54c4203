package export

import (
	"context"
	"fmt"

	"resumebuilder/internal/pdf"
	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
)

// PrintPDFExporter 走无头浏览器的打印管线,产出矢量 PDF,
// 文本可选中。是 PDF 链的首选。
type PrintPDFExporter struct {
	renderer *preview.Renderer
	generate func(html string) ([]byte, error)
}

// NewPrintPDFExporter 构造打印式 PDF 导出器。
func NewPrintPDFExporter(renderer *preview.Renderer) *PrintPDFExporter {
	return &PrintPDFExporter{
		renderer: renderer,
		generate: pdf.GeneratePDFFromHTML,
	}
}

// Format 实现 Exporter。
func (e *PrintPDFExporter) Format() Format {
	return FormatPDF
}

// Export 实现 Exporter。
func (e *PrintPDFExporter) Export(_ context.Context, doc resume.Document) (Artifact, error) {
	markup, err := e.renderer.Render(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("render resume markup: %w", err)
	}

	data, err := e.generate(printablePage(doc.Settings, markup))
	if err != nil {
		return Artifact{}, fmt.Errorf("print to pdf: %w", err)
	}
	return Artifact{
		Filename:    Filename(doc, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
