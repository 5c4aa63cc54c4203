package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/go-pdf/fpdf"

	"resumebuilder/internal/pdf"
	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
)

// A4 页面尺寸（mm），与前端栅格化导出用的常量一致。
const (
	rasterPageWidth  = 210.0
	rasterPageHeight = 295.0
)

// RasterPDFExporter 是 PDF 链的降级路径：整页截图后按 A4 高度切片平铺。
// 产出是位图 PDF（文本不可选中），但不依赖浏览器的打印管线。
type RasterPDFExporter struct {
	renderer *preview.Renderer
	capture  func(html string) ([]byte, error)
}

// NewRasterPDFExporter 构造栅格化 PDF 导出器。
func NewRasterPDFExporter(renderer *preview.Renderer) *RasterPDFExporter {
	return &RasterPDFExporter{
		renderer: renderer,
		capture:  pdf.CaptureScreenshotFromHTML,
	}
}

// Format 实现 Exporter。
func (e *RasterPDFExporter) Format() Format {
	return FormatPDF
}

// Export 实现 Exporter。
func (e *RasterPDFExporter) Export(_ context.Context, doc resume.Document) (Artifact, error) {
	markup, err := e.renderer.Render(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("render resume markup: %w", err)
	}

	shot, err := e.capture(printablePage(doc.Settings, markup))
	if err != nil {
		return Artifact{}, fmt.Errorf("capture page image: %w", err)
	}

	data, err := tileImageToPDF(shot)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Filename:    Filename(doc, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// tileImageToPDF 把一张整页 PNG 沿页高切片进多页 A4：
// 图像宽度缩放到页宽，每页向上偏移一个页高，直到剩余高度耗尽。
func tileImageToPDF(pngData []byte) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode page image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("page image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}

	imageHeight := float64(cfg.Height) * rasterPageWidth / float64(cfg.Width)

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: rasterPageWidth, Ht: rasterPageHeight},
	})
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	doc.RegisterImageOptionsReader("resume-page", opts, bytes.NewReader(pngData))

	heightLeft := imageHeight
	position := 0.0
	doc.AddPage()
	doc.ImageOptions("resume-page", 0, position, rasterPageWidth, imageHeight, false, opts, 0, "")
	heightLeft -= rasterPageHeight

	for heightLeft > 0 {
		position = heightLeft - imageHeight
		doc.AddPage()
		doc.ImageOptions("resume-page", 0, position, rasterPageWidth, imageHeight, false, opts, 0, "")
		heightLeft -= rasterPageHeight
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}
	return buf.Bytes(), nil
}
