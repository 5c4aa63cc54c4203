package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"resumebuilder/internal/resume"
)

// Format 是导出目标格式。
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatWord Format = "word"
	FormatText Format = "text"
)

// Formats 是全部支持的导出格式。
var Formats = []Format{FormatPDF, FormatWord, FormatText}

// ParseFormat 校验外部传入的格式串。
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Artifact 是一次导出的产物。
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter 把文档导出为某种格式的字节。实现必须无状态、可并发调用。
type Exporter interface {
	Format() Format
	Export(ctx context.Context, doc resume.Document) (Artifact, error)
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Filename 生成下载文件名：姓名（空白折叠为下划线，缺省 Resume）+ 固定后缀。
func Filename(doc resume.Document, ext string) string {
	name := doc.Personal.FullName
	if name == "" {
		name = "Resume"
	}
	return whitespaceRE.ReplaceAllString(name, "_") + "_Resume." + ext
}

// Chain 按顺序尝试多个导出器，前者失败落到后者。
// 对应前端“首选库不可用就降级”的导出链。
type Chain struct {
	format    Format
	exporters []Exporter
	logger    *slog.Logger
}

// NewChain 组装导出链。所有导出器必须与 format 一致。
func NewChain(format Format, logger *slog.Logger, exporters ...Exporter) (*Chain, error) {
	if len(exporters) == 0 {
		return nil, fmt.Errorf("export chain for %s has no exporters", format)
	}
	for _, e := range exporters {
		if e.Format() != format {
			return nil, fmt.Errorf("exporter format %s does not match chain %s", e.Format(), format)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{format: format, exporters: exporters, logger: logger}, nil
}

// Format 返回链的目标格式。
func (c *Chain) Format() Format {
	return c.format
}

// Export 依次尝试各导出器，返回第一个成功的产物。
// 全部失败时返回聚合错误。
func (c *Chain) Export(ctx context.Context, doc resume.Document) (Artifact, error) {
	var errs []error
	for i, e := range c.exporters {
		artifact, err := e.Export(ctx, doc)
		if err == nil {
			if i > 0 {
				c.logger.Warn("export succeeded via fallback",
					slog.String("format", string(c.format)),
					slog.Int("attempts", i+1),
				)
			}
			return artifact, nil
		}
		c.logger.Warn("exporter failed, trying next",
			slog.String("format", string(c.format)),
			slog.Int("attempt", i+1),
			slog.Any("error", err),
		)
		errs = append(errs, err)
	}
	return Artifact{}, fmt.Errorf("export %s: all exporters failed: %w", c.format, errors.Join(errs...))
}
