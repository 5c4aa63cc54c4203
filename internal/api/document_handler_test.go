package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/builder"
	"resumebuilder/internal/export"
	"resumebuilder/internal/preview"
	"resumebuilder/internal/store"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrSlotMissing
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func newTestSessions(t *testing.T) *builder.Manager {
	t.Helper()
	renderer, err := preview.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gateway := store.NewGateway(newMemKV(), logger)
	return builder.NewManager(builder.ManagerConfig{
		Renderer: renderer,
		Gateway:  gateway,
		Logger:   logger,
	})
}

func performAs(t *testing.T, userID uint, handler gin.HandlerFunc, method, path, body string, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if userID > 0 {
		c.Set("userID", userID)
	}
	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestGetDocumentRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	w := performAs(t, 0, h.GetDocument, http.MethodGet, "/v1/document", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestApplyFormRefreshesPreview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	body := `{"personal":{"fullName":"Grace Hopper","email":"grace@navy.mil"},"sections":{}}`
	w := performAs(t, 1, h.ApplyForm, http.MethodPut, "/v1/document/form", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	previewHTML, _ := resp["preview"].(string)
	if !strings.Contains(previewHTML, "Grace Hopper") {
		t.Fatalf("preview missing applied name: %s", previewHTML)
	}
}

func TestAddEntryReturnsRowID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	params := gin.Params{{Key: "category", Value: "education"}}
	body := `{"fields":{"degree":"BSc Mathematics"}}`
	w := performAs(t, 1, h.AddEntry, http.MethodPost, "/v1/document/entries/education", body, params)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	rowID, _ := resp["rowId"].(string)
	if !strings.HasPrefix(rowID, "education_") {
		t.Fatalf("unexpected row id %q", rowID)
	}
}

func TestAddEntryRejectsUnknownCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	params := gin.Params{{Key: "category", Value: "awards"}}
	w := performAs(t, 1, h.AddEntry, http.MethodPost, "/v1/document/entries/awards", "", params)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestRemoveEntryRejectsBadIndex(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	params := gin.Params{
		{Key: "category", Value: "skills"},
		{Key: "index", Value: "abc"},
	}
	w := performAs(t, 1, h.RemoveEntry, http.MethodDelete, "/v1/document/entries/skills/abc", "", params)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestUpdateSettingsRejectsUnknownTheme(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	w := performAs(t, 1, h.UpdateSettings, http.MethodPut, "/v1/document/settings", `{"theme":"neon"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateSettingsAppliesTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	w := performAs(t, 1, h.UpdateSettings, http.MethodPut, "/v1/document/settings", `{"template":"modern","accent":"#ff0000"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	settings, _ := resp["settings"].(map[string]any)
	if settings["template"] != "modern" {
		t.Fatalf("template not applied: %v", settings)
	}
	if settings["accent"] != "#ff0000" {
		t.Fatalf("accent not applied: %v", settings)
	}
}

func TestCycleThemeAdvances(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	w := performAs(t, 1, h.CycleTheme, http.MethodPost, "/v1/document/theme/cycle", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["theme"] != "dark" {
		t.Fatalf("expected dark after first cycle, got %v", resp["theme"])
	}
}

func TestClearResetsDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(newTestSessions(t))

	body := `{"personal":{"fullName":"Grace Hopper"},"sections":{}}`
	if w := performAs(t, 1, h.ApplyForm, http.MethodPut, "/v1/document/form", body, nil); w.Code != http.StatusOK {
		t.Fatalf("apply form: %d", w.Code)
	}

	w := performAs(t, 1, h.Clear, http.MethodDelete, "/v1/document", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	resp := decodeBody(t, w)
	doc, _ := resp["document"].(map[string]any)
	personal, _ := doc["personal"].(map[string]any)
	if personal["fullName"] != "" {
		t.Fatalf("document not cleared: %v", personal)
	}
}

func TestDownloadTextAttachesTranscript(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := newTestSessions(t)
	docHandler := NewDocumentHandler(sessions)

	body := `{"personal":{"fullName":"Grace Hopper","email":"grace@navy.mil"},"sections":{}}`
	if w := performAs(t, 1, docHandler.ApplyForm, http.MethodPut, "/v1/document/form", body, nil); w.Code != http.StatusOK {
		t.Fatalf("apply form: %d", w.Code)
	}

	h := NewExportHandler(sessions, nil, nil, nil, export.NewTextExporter(), nil, 0)
	w := performAs(t, 1, h.DownloadText, http.MethodGet, "/v1/export/text", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "Grace_Hopper_Resume.txt") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.Contains(w.Body.String(), "Grace Hopper\n============") {
		t.Fatalf("transcript missing header: %s", w.Body.String())
	}
}
