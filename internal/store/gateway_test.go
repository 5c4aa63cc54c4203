package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"resumebuilder/internal/resume"
)

type memoryKV struct {
	data map[string][]byte
	sets int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, ErrSlotMissing
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type failingKV struct{ memoryKV }

func (f *failingKV) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	gateway := NewGateway(kv, nil)

	doc := resume.NewDocument()
	doc.Personal.FullName = "Ada Lovelace"
	doc.Personal.Summary = "First programmer."
	doc.ProfilePicture = "data:image/png;base64,AAAA"
	doc.Sections[resume.CategoryExperience] = []resume.Entry{
		{"position": "Engineer", "company": "Acme", "period": "2020-2022"},
		{"position": "Lead", "company": "Initech", "period": "2022-"},
	}
	doc.Sections[resume.CategoryLanguages] = []resume.Entry{{"name": "French", "level": "Fluent"}}
	doc.Settings.Theme = "professional"
	doc.Settings.Accent = "#112233"
	doc.Settings.SectionOrder = []string{"hobbies", "certifications", "languages", "skills", "education", "experience", "summary"}

	if err := gateway.Save(ctx, 7, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := gateway.Load(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}

	normalized := resume.Normalize(doc)
	if !reflect.DeepEqual(loaded, normalized) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, normalized)
	}
}

func TestLoadMissingSlotIsSilent(t *testing.T) {
	gateway := NewGateway(newMemoryKV(), nil)

	_, ok, err := gateway.Load(context.Background(), 1)
	if err != nil {
		t.Fatalf("missing slot returned error: %v", err)
	}
	if ok {
		t.Error("missing slot reported as present")
	}
}

func TestLoadMergesOntoDefaults(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	// Older schema: no settings block at all.
	kv.data[slotKey(3)] = []byte(`{"personal":{"fullName":"Ada"}}`)
	gateway := NewGateway(kv, nil)

	doc, ok, err := gateway.Load(ctx, 3)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if doc.Personal.FullName != "Ada" {
		t.Errorf("stored field lost: %+v", doc.Personal)
	}
	if doc.Settings.Template != resume.DefaultTemplate {
		t.Errorf("missing settings did not fall back: %+v", doc.Settings)
	}
	if len(doc.Settings.SectionOrder) != len(resume.DefaultSectionOrder) {
		t.Errorf("section order not defaulted: %v", doc.Settings.SectionOrder)
	}
}

func TestLoadResetsPartialSectionOrder(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	kv.data[slotKey(4)] = []byte(`{"settings":{"sectionOrder":["experience","skills"]}}`)
	gateway := NewGateway(kv, nil)

	doc, _, err := gateway.Load(ctx, 4)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(doc.Settings.SectionOrder, resume.DefaultSectionOrder) {
		t.Errorf("partial order survived load: %v", doc.Settings.SectionOrder)
	}
}

func TestSaveFailureIsWrapped(t *testing.T) {
	gateway := NewGateway(&failingKV{}, nil)

	err := gateway.Save(context.Background(), 1, resume.NewDocument())
	if err == nil {
		t.Fatal("expected save error")
	}
}

func TestClearIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	gateway := NewGateway(kv, nil)

	doc := resume.NewDocument()
	doc.Personal.FullName = "Ada"
	if err := gateway.Save(ctx, 2, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := gateway.Clear(ctx, 2)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	second, err := gateway.Clear(ctx, 2)
	if err != nil {
		t.Fatalf("second clear: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("clear is not idempotent")
	}
	if !reflect.DeepEqual(first, resume.NewDocument()) {
		t.Error("clear did not reset to empty-with-defaults")
	}
	if _, ok, _ := gateway.Load(ctx, 2); ok {
		t.Error("slot still present after clear")
	}
}

func TestLegacyImport(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	snapshot := legacySnapshot{
		Personal:   resume.PersonalInfo{FullName: "Grace Hopper"},
		Experience: []resume.Entry{{"company": "Navy", "position": "Rear Admiral"}},
		Skills:     []resume.Entry{{"name": "COBOL"}},
		Timestamp:  "2024-01-02T03:04:05Z",
	}
	raw, _ := json.Marshal(snapshot)
	kv.data[legacySlotKey(9)] = raw
	kv.data[legacyDarkKey(9)] = []byte("true")
	gateway := NewGateway(kv, nil)

	doc, ok, err := gateway.Load(ctx, 9)
	if err != nil || !ok {
		t.Fatalf("legacy load: ok=%v err=%v", ok, err)
	}
	if doc.Personal.FullName != "Grace Hopper" {
		t.Errorf("personal not imported: %+v", doc.Personal)
	}
	if doc.Sections[resume.CategoryExperience][0]["company"] != "Navy" {
		t.Errorf("experience not imported: %v", doc.Sections[resume.CategoryExperience])
	}
	if doc.Settings.Theme != "dark" {
		t.Errorf("dark flag ignored: %q", doc.Settings.Theme)
	}

	// 主槽存在时旧档不再参与。
	if err := gateway.Save(ctx, 9, resume.NewDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, _, err = gateway.Load(ctx, 9)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if doc.Personal.FullName != "" {
		t.Errorf("legacy shadowed primary slot: %+v", doc.Personal)
	}
}
