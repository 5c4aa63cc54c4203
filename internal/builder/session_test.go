package builder

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"resumebuilder/internal/preview"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/store"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
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
	if m.fail {
		return errors.New("quota exceeded")
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memKV) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) record(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.notices))
	for _, n := range l.notices {
		out = append(out, n.Kind)
	}
	return out
}

func newTestSession(t *testing.T, kv *memKV, notify NotifyFunc) *Session {
	t.Helper()
	renderer, err := preview.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	s, err := NewSession(context.Background(), Config{
		AccountID:     1,
		Renderer:      renderer,
		Gateway:       store.NewGateway(kv, nil),
		Notify:        notify,
		AutoSaveDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestSessionOpensBlank(t *testing.T) {
	s := newTestSession(t, newMemKV(), nil)

	doc := s.Document()
	if len(doc.Sections[resume.CategoryEducation]) != 1 {
		t.Errorf("education not seeded: %v", doc.Sections[resume.CategoryEducation])
	}
	if !strings.Contains(s.Preview(), "Your Name") {
		t.Error("blank preview missing header fallback")
	}
	// 播种的空白行不产生章节。
	if strings.Contains(s.Preview(), "education-section") {
		t.Error("blank seeded entry produced a section")
	}
}

func TestApplyFormRefreshesPreviewAndAutoSaves(t *testing.T) {
	kv := newMemKV()
	s := newTestSession(t, kv, nil)

	s.ApplyForm(resume.FormState{
		Personal: resume.PersonalInfo{FullName: "Ada Lovelace"},
		Sections: map[resume.Category][]resume.FormRow{
			resume.CategorySkills: {{Fields: map[string]string{"name": "Mathematics", "level": "Expert"}}},
		},
	})

	if !strings.Contains(s.Preview(), "Ada Lovelace") {
		t.Error("preview not refreshed after form apply")
	}

	time.Sleep(120 * time.Millisecond)
	if kv.len() == 0 {
		t.Fatal("debounced save never fired")
	}
	loaded, ok, err := store.NewGateway(kv, nil).Load(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("load after autosave: ok=%v err=%v", ok, err)
	}
	if loaded.Personal.FullName != "Ada Lovelace" {
		t.Errorf("saved document stale: %+v", loaded.Personal)
	}
}

func TestEntryLifecycle(t *testing.T) {
	s := newTestSession(t, newMemKV(), nil)

	if _, err := s.AddEntry(resume.CategoryLanguages, map[string]string{"name": "French", "level": "Fluent"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddEntry(resume.CategoryLanguages, map[string]string{"name": "German"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.ReorderEntries(resume.CategoryLanguages, []int{1, 0}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	doc := s.Document()
	langs := doc.Sections[resume.CategoryLanguages]
	if langs[0]["name"] != "German" || langs[1]["name"] != "French" {
		t.Fatalf("reorder not applied: %v", langs)
	}

	if err := s.RemoveEntry(resume.CategoryLanguages, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveEntry(resume.CategoryLanguages, 0); err != nil {
		t.Fatalf("remove last: %v", err)
	}
	if got := len(s.Document().Sections[resume.CategoryLanguages]); got != 0 {
		t.Errorf("entries left after removing all: %d", got)
	}
	// 清空后章节从预览消失。
	if strings.Contains(s.Preview(), "French") || strings.Contains(s.Preview(), "German") {
		t.Error("removed entries still rendered")
	}
}

func TestEntryOperationsRejectBadInput(t *testing.T) {
	s := newTestSession(t, newMemKV(), nil)

	if _, err := s.AddEntry("awards", nil); err == nil {
		t.Error("unknown category accepted")
	}
	if err := s.RemoveEntry(resume.CategorySkills, 5); err == nil {
		t.Error("out of range index accepted")
	}
	if _, err := s.AddEntry(resume.CategorySkills, map[string]string{"name": "Go"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := s.Document().Sections[resume.CategorySkills]
	if err := s.ReorderEntries(resume.CategorySkills, []int{0, 0}); err == nil {
		t.Error("duplicate index accepted")
	}
	if !reflect.DeepEqual(before, s.Document().Sections[resume.CategorySkills]) {
		t.Error("rejected reorder mutated state")
	}
}

func TestThemeCycle(t *testing.T) {
	s := newTestSession(t, newMemKV(), nil)

	want := []string{"dark", "professional", "creative", "light"}
	for _, theme := range want {
		if got := s.CycleTheme(); got != theme {
			t.Fatalf("cycle got %q, want %q", got, theme)
		}
	}
	if err := s.SetTheme("neon"); err == nil {
		t.Error("unknown theme accepted")
	}
}

func TestSectionOrderValidation(t *testing.T) {
	s := newTestSession(t, newMemKV(), nil)

	if err := s.SetSectionOrder([]string{"experience", "skills"}); err == nil {
		t.Error("partial order accepted")
	}
	order := []string{"hobbies", "certifications", "languages", "skills", "education", "experience", "summary"}
	if err := s.SetSectionOrder(order); err != nil {
		t.Fatalf("valid permutation rejected: %v", err)
	}
	if !reflect.DeepEqual(s.Document().Settings.SectionOrder, order) {
		t.Errorf("order not applied: %v", s.Document().Settings.SectionOrder)
	}
}

func TestClearCancelsPendingSave(t *testing.T) {
	kv := newMemKV()
	notices := &noticeLog{}
	s := newTestSession(t, kv, notices.record)

	s.ApplyForm(resume.FormState{Personal: resume.PersonalInfo{FullName: "Ada"}})
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if kv.len() != 0 {
		t.Error("pending autosave resurrected cleared data")
	}
	if got := s.Document().Personal.FullName; got != "" {
		t.Errorf("document not reset: %q", got)
	}
	if kinds := notices.kinds(); len(kinds) == 0 || kinds[len(kinds)-1] != "success" {
		t.Errorf("clear did not notify success: %v", kinds)
	}
}

// blockingKV 卡住第一次写入直到测试放行，用来制造“写到一半”的落盘。
type blockingKV struct {
	*memKV
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingKV) Set(ctx context.Context, key string, value []byte) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.memKV.Set(ctx, key, value)
}

func TestClearDiscardsInFlightAutoSave(t *testing.T) {
	kv := newMemKV()
	bkv := &blockingKV{
		memKV:   kv,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	renderer, err := preview.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	s, err := NewSession(context.Background(), Config{
		AccountID:     1,
		Renderer:      renderer,
		Gateway:       store.NewGateway(bkv, nil),
		AutoSaveDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.ApplyForm(resume.FormState{Personal: resume.PersonalInfo{FullName: "Ada"}})

	// 等防抖落盘真正进入写入。
	select {
	case <-bkv.entered:
	case <-time.After(time.Second):
		t.Fatal("debounced save never started")
	}

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	close(bkv.release)

	// 在途的写入落地后必须把槽位删回去。
	deadline := time.Now().Add(time.Second)
	for kv.len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("cleared slot resurrected by in-flight save: %d keys", kv.len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := s.Document().Personal.FullName; got != "" {
		t.Errorf("document not reset: %q", got)
	}
}

func TestStaleAutoSaveAfterClearIsNoOp(t *testing.T) {
	kv := newMemKV()
	s := newTestSession(t, kv, nil)

	s.ApplyForm(resume.FormState{Personal: resume.PersonalInfo{FullName: "Ada"}})
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// 模拟已越过 Stop、在 Clear 之后才拿到锁的计时器回调。
	s.persist()
	if kv.len() != 0 {
		t.Fatalf("stale timer callback wrote %d keys after clear", kv.len())
	}
}

func TestSaveNowAndFailureNotices(t *testing.T) {
	kv := newMemKV()
	notices := &noticeLog{}
	s := newTestSession(t, kv, notices.record)

	if err := s.SaveNow(context.Background()); err != nil {
		t.Fatalf("save now: %v", err)
	}
	if kv.len() == 0 {
		t.Fatal("explicit save wrote nothing")
	}

	kv.mu.Lock()
	kv.fail = true
	kv.mu.Unlock()
	if err := s.SaveNow(context.Background()); err == nil {
		t.Fatal("save against full storage succeeded")
	}
	kinds := notices.kinds()
	if len(kinds) != 2 || kinds[0] != "success" || kinds[1] != "error" {
		t.Errorf("notice sequence = %v, want [success error]", kinds)
	}
}
