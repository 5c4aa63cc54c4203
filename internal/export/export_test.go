package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
)

func sampleDocument() resume.Document {
	doc := resume.NewDocument()
	doc.Personal = resume.PersonalInfo{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+44 123",
		Summary:  "First programmer.",
	}
	doc.Sections[resume.CategoryExperience] = []resume.Entry{
		{"position": "Analyst", "company": "Analytical Engines", "period": "1842-1843", "location": "London", "description": "Wrote the first program."},
	}
	doc.Sections[resume.CategoryEducation] = []resume.Entry{
		{"degree": "Self-taught", "field": "Mathematics", "school": "Private tutors", "period": "1830s"},
	}
	doc.Sections[resume.CategorySkills] = []resume.Entry{
		{"name": "Mathematics", "level": "Expert"},
		{"name": "Translation", "level": ""},
	}
	doc.Sections[resume.CategoryLanguages] = []resume.Entry{{"name": "French", "level": "Fluent"}}
	doc.Sections[resume.CategoryCertifications] = []resume.Entry{{"name": "None", "organization": "", "year": "1840"}}
	doc.Sections[resume.CategoryHobbies] = []resume.Entry{{"name": "Horses"}, {"name": "Music"}}
	return doc
}

func TestTranscriptLayout(t *testing.T) {
	got := Transcript(sampleDocument())

	want := strings.Join([]string{
		"Ada Lovelace",
		"============",
		"",
		"Email: ada@example.com",
		"Phone: +44 123",
		"",
		"PROFESSIONAL SUMMARY",
		"--------------------",
		"First programmer.",
		"",
		"PROFESSIONAL EXPERIENCE",
		"-------------------------",
		"Analyst | Analytical Engines",
		"1842-1843 | London",
		"Wrote the first program.",
		"",
		"EDUCATION",
		"---------",
		"Self-taught in Mathematics",
		"Private tutors | 1830s",
		"",
		"SKILLS",
		"------",
		"• Mathematics (Expert)",
		"• Translation",
		"",
		"LANGUAGES",
		"---------",
		"• French (Fluent)",
		"",
		"CERTIFICATIONS",
		"--------------",
		"• None",
		"  Organization (1840)",
		"",
		"INTERESTS & HOBBIES",
		"-------------------",
		"Horses, Music",
		"",
	}, "\n")

	if got != want {
		t.Errorf("transcript mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestTranscriptBlankDocument(t *testing.T) {
	got := Transcript(resume.NewDocument())

	if !strings.HasPrefix(got, "YOUR NAME\n=========\n\n") {
		t.Errorf("blank header wrong:\n%s", got)
	}
	// 播种的空白条目不产生章节。
	for _, heading := range []string{"EDUCATION", "SKILLS", "PROFESSIONAL EXPERIENCE"} {
		if strings.Contains(got, heading) {
			t.Errorf("blank document produced %s section:\n%s", heading, got)
		}
	}
}

func TestTranscriptNameRuleCountsRunes(t *testing.T) {
	doc := resume.NewDocument()
	doc.Personal.FullName = "李雷"

	got := Transcript(doc)
	if !strings.HasPrefix(got, "李雷\n==\n\n") {
		t.Errorf("non-ASCII name rule wrong:\n%s", got)
	}
}

func TestFilename(t *testing.T) {
	doc := resume.NewDocument()
	if got := Filename(doc, "pdf"); got != "Resume_Resume.pdf" {
		t.Errorf("blank name filename = %q", got)
	}
	doc.Personal.FullName = "Ada  King\tLovelace"
	if got := Filename(doc, "txt"); got != "Ada_King_Lovelace_Resume.txt" {
		t.Errorf("filename = %q", got)
	}
}

func TestWordExportWrapsMarkup(t *testing.T) {
	renderer, err := preview.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	doc := sampleDocument()

	artifact, err := NewWordExporter(renderer).Export(context.Background(), doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if artifact.ContentType != "application/msword" {
		t.Errorf("content type = %q", artifact.ContentType)
	}
	if artifact.Filename != "Ada_Lovelace_Resume.doc" {
		t.Errorf("filename = %q", artifact.Filename)
	}
	body := string(artifact.Data)
	if !strings.Contains(body, `<meta charset="utf-8">`) || !strings.Contains(body, "Ada Lovelace") {
		t.Errorf("word body incomplete:\n%s", body)
	}
	if !strings.Contains(body, "font-family:"+doc.Settings.Font) {
		t.Error("font missing from word stylesheet")
	}
}

type stubExporter struct {
	format Format
	data   []byte
	err    error
	calls  int
}

func (s *stubExporter) Format() Format { return s.format }

func (s *stubExporter) Export(context.Context, resume.Document) (Artifact, error) {
	s.calls++
	if s.err != nil {
		return Artifact{}, s.err
	}
	return Artifact{Filename: "x", Data: s.data}, nil
}

func TestChainFallsBack(t *testing.T) {
	broken := &stubExporter{format: FormatPDF, err: errors.New("chromium missing")}
	working := &stubExporter{format: FormatPDF, data: []byte("%PDF")}

	chain, err := NewChain(FormatPDF, nil, broken, working)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	artifact, err := chain.Export(context.Background(), resume.NewDocument())
	if err != nil {
		t.Fatalf("chain export: %v", err)
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Errorf("call counts: broken=%d working=%d", broken.calls, working.calls)
	}
	if string(artifact.Data) != "%PDF" {
		t.Errorf("wrong artifact: %q", artifact.Data)
	}
}

func TestChainAllFail(t *testing.T) {
	chain, err := NewChain(FormatPDF, nil, &stubExporter{format: FormatPDF, err: errors.New("boom")})
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	if _, err := chain.Export(context.Background(), resume.NewDocument()); err == nil {
		t.Fatal("chain with only failing exporters succeeded")
	}
}

func TestChainRejectsMixedFormats(t *testing.T) {
	if _, err := NewChain(FormatPDF, nil, &stubExporter{format: FormatText}); err == nil {
		t.Fatal("mixed format chain accepted")
	}
	if _, err := NewChain(FormatPDF, nil); err == nil {
		t.Fatal("empty chain accepted")
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("pdf"); err != nil {
		t.Errorf("pdf rejected: %v", err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("xlsx accepted")
	}
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRasterExportTilesTallPages(t *testing.T) {
	renderer, err := preview.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	// 三页高的截图：794px 宽对应 210mm,高度取三倍页高。
	tall := encodeTestPNG(t, 794, 794*3)
	exporter := &RasterPDFExporter{
		renderer: renderer,
		capture: func(string) ([]byte, error) {
			return tall, nil
		},
	}

	artifact, err := exporter.Export(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(artifact.Data, []byte("%PDF")) {
		t.Error("artifact is not a pdf")
	}
	if artifact.ContentType != "application/pdf" {
		t.Errorf("content type = %q", artifact.ContentType)
	}

	short := encodeTestPNG(t, 794, 400)
	exporter.capture = func(string) ([]byte, error) { return short, nil }
	single, err := exporter.Export(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("single page export: %v", err)
	}
	if len(single.Data) >= len(artifact.Data) {
		t.Error("single page pdf not smaller than multi page pdf")
	}
}

func TestRasterExportPropagatesCaptureFailure(t *testing.T) {
	renderer, err := preview.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	exporter := &RasterPDFExporter{
		renderer: renderer,
		capture: func(string) ([]byte, error) {
			return nil, errors.New("no browser")
		},
	}
	if _, err := exporter.Export(context.Background(), sampleDocument()); err == nil {
		t.Fatal("capture failure swallowed")
	}
}

func TestPrintablePageThemeClass(t *testing.T) {
	settings := resume.DefaultSettings()
	settings.Theme = "dark"
	page := printablePage(settings, "<div class=\"resume-container\"></div>")
	if !strings.Contains(page, `class="theme-dark"`) {
		t.Error("theme class missing")
	}

	settings.Theme = "\"><script>"
	page = printablePage(settings, "")
	if !strings.Contains(page, `class="theme-light"`) {
		t.Errorf("unknown theme not sanitized:\n%s", page)
	}
}
