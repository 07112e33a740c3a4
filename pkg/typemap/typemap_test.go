package typemap

import "testing"

func TestNormalize(t *testing.T) {
	m := NewMapper()

	tests := []struct {
		raw  string
		want string
	}{
		{"PERSON", "persona"},
		{"per", "persona"},
		{"People", "persona"},
		{"persona", "persona"},
		{"GPE", "luogo"},
		{"Location", "luogo"},
		{"ORG", "organizzazione"},
		{"institution", "organizzazione"},
		{"DATE", "data"},
		{"temporal", "data"},
		{"MONEY", "money"},
		{"denaro", "money"},
		{"LAW", "norma"},
		{"statute", "norma"},
		{"ID", "id"},
		{"code", "id"},
		{"Cardinal", "numeric"},
		{"PERCENT", "numeric"},
		{"WORK_OF_ART", "creative-work"},
		{"FAC", "facility"},
		{"NORP", "norp"},
		{"EVENT", "event"},
		{"xyz-unmapped", "xyz-unmapped"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := m.Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	m := NewMapper()
	raws := []string{
		"PERSON", "GPE", "ORG", "DATE", "MONEY", "LAW", "ID",
		"Cardinal", "WORK_OF_ART", "FAC", "NORP", "EVENT", "PRODUCT",
		"LANGUAGE", "xyz-unmapped",
	}
	for _, raw := range raws {
		once := m.Normalize(raw)
		if twice := m.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)): got %q then %q", raw, once, twice)
		}
	}
}

func TestNormalizeDisabled(t *testing.T) {
	m := NewMapper(WithDisabled(true))
	if got := m.Normalize("PERSON"); got != "PERSON" {
		t.Errorf("disabled Normalize(PERSON) = %q, want identity", got)
	}
	if m.Enabled() {
		t.Error("Enabled() = true, want false")
	}
	if !m.IsPerson("PERSON") {
		t.Error("IsPerson must ignore the disabled switch")
	}
}

func TestNormalizeExtraTable(t *testing.T) {
	m := NewMapper(WithTable(map[string]string{
		"Sentenza": "norma",
		"ruling":   "norma",
	}))
	if got := m.Normalize("sentenza"); got != "norma" {
		t.Errorf("Normalize(sentenza) = %q, want norma", got)
	}
	// Built-in ladder wins over the extra table.
	m2 := NewMapper(WithTable(map[string]string{"person": "operatore"}))
	if got := m2.Normalize("person"); got != "persona" {
		t.Errorf("Normalize(person) = %q, want persona", got)
	}
}

func TestIsPerson(t *testing.T) {
	m := NewMapper()
	for _, raw := range []string{"PERSON", "persona", "persone", "per"} {
		if !m.IsPerson(raw) {
			t.Errorf("IsPerson(%q) = false, want true", raw)
		}
	}
	for _, raw := range []string{"ORG", "luogo", "parte"} {
		if m.IsPerson(raw) {
			t.Errorf("IsPerson(%q) = true, want false", raw)
		}
	}
}
