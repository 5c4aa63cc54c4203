package resume

import "testing"

func TestNormalizeResetsPartialSectionOrder(t *testing.T) {
	cases := [][]string{
		nil,
		{},
		{"experience"},
		{"summary", "experience", "education", "skills", "languages", "certifications"},          // one missing
		{"summary", "experience", "education", "skills", "languages", "certifications", "bogus"}, // unknown key
		{"summary", "summary", "education", "skills", "languages", "certifications", "hobbies"},  // duplicate
	}
	for _, order := range cases {
		doc := NewDocument()
		doc.Settings.SectionOrder = order
		got := Normalize(doc).Settings.SectionOrder
		if len(got) != len(DefaultSectionOrder) {
			t.Fatalf("order %v not reset: got %v", order, got)
		}
		for i := range DefaultSectionOrder {
			if got[i] != DefaultSectionOrder[i] {
				t.Fatalf("order %v not reset to default: got %v", order, got)
			}
		}
	}
}

func TestNormalizeKeepsCompletePermutation(t *testing.T) {
	order := []string{"hobbies", "certifications", "languages", "skills", "education", "experience", "summary"}
	doc := NewDocument()
	doc.Settings.SectionOrder = order

	got := Normalize(doc).Settings.SectionOrder

	for i := range order {
		if got[i] != order[i] {
			t.Fatalf("valid permutation rewritten: got %v", got)
		}
	}
}

func TestNormalizeFillsMissingSettings(t *testing.T) {
	doc := Document{}
	got := Normalize(doc)

	if got.Settings.Template != DefaultTemplate ||
		got.Settings.Theme != DefaultTheme ||
		got.Settings.Font != DefaultFont ||
		got.Settings.Accent != DefaultAccent {
		t.Errorf("defaults not applied: %+v", got.Settings)
	}
	for _, category := range Categories {
		if got.Sections[category] == nil {
			t.Errorf("%s section list missing", category)
		}
	}
}

func TestNormalizeProjectsEntryFields(t *testing.T) {
	doc := NewDocument()
	doc.Sections[CategorySkills] = []Entry{
		{"name": "Go", "obsolete": "x"},
		nil,
	}

	got := Normalize(doc)

	skills := got.Sections[CategorySkills]
	if len(skills) != 1 {
		t.Fatalf("nil entry survived: %v", skills)
	}
	if _, ok := skills[0]["obsolete"]; ok {
		t.Errorf("unknown field survived: %v", skills[0])
	}
	if skills[0]["level"] != "" {
		t.Errorf("schema field not backfilled: %v", skills[0])
	}
}
