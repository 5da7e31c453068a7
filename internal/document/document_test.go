package document

import (
	"strings"
	"testing"
)

func TestJoinPagesOrder(t *testing.T) {
	pages := []PageText{
		{Page: 2, Text: "third"},
		{Page: 0, Text: "first"},
		{Page: 1, Text: "second"},
	}

	got := JoinPages(pages)
	want := "first" + PageSeparator + "second" + PageSeparator + "third"
	if got != want {
		t.Errorf("JoinPages() = %q, want %q", got, want)
	}
}

func TestJoinPagesEmpty(t *testing.T) {
	if got := JoinPages(nil); got != "" {
		t.Errorf("JoinPages(nil) = %q, want empty", got)
	}
}

func TestNewFieldSetComplete(t *testing.T) {
	fs := NewFieldSet()
	if len(fs) != len(FieldNames()) {
		t.Fatalf("NewFieldSet() has %d entries, want %d", len(fs), len(FieldNames()))
	}
	for _, name := range FieldNames() {
		f, ok := fs[name]
		if !ok {
			t.Errorf("field %q missing", name)
			continue
		}
		if f.Found() {
			t.Errorf("field %q should start unset", name)
		}
		if f.Name != name {
			t.Errorf("field %q has Name %q", name, f.Name)
		}
	}
}

func TestFieldSetCloneIndependent(t *testing.T) {
	fs := NewFieldSet()
	fs.Set(FieldAmount, "100.50", 0.8, SourceHeuristic)

	clone := fs.Clone()
	clone.Set(FieldAmount, "999", 0.9, SourceLLM)

	if fs[FieldAmount].Value != "100.50" {
		t.Errorf("clone mutation leaked into original: %q", fs[FieldAmount].Value)
	}
}

func TestFieldSetFillFrom(t *testing.T) {
	primary := NewFieldSet()
	primary.Set(FieldAmount, "100", 0.8, SourceHeuristic)

	secondary := NewFieldSet()
	secondary.Set(FieldAmount, "200", 0.9, SourceHeuristic)
	secondary.Set(FieldCurrency, "KZT", 0.7, SourceHeuristic)

	primary.FillFrom(secondary)

	if primary[FieldAmount].Value != "100" {
		t.Errorf("FillFrom overwrote a set field: %q", primary[FieldAmount].Value)
	}
	if primary[FieldCurrency].Value != "KZT" {
		t.Errorf("FillFrom did not fill unset field: %q", primary[FieldCurrency].Value)
	}
}

func TestFieldSetSufficient(t *testing.T) {
	tests := []struct {
		name string
		set  func(fs FieldSet)
		want bool
	}{
		{"empty", func(fs FieldSet) {}, false},
		{"party only", func(fs FieldSet) {
			fs.Set(FieldBankName, "Kaspi Bank", 0.9, SourceHeuristic)
		}, false},
		{"ident only", func(fs FieldSet) {
			fs.Set(FieldDocType, "receipt", 0.7, SourceHeuristic)
		}, false},
		{"bank and type", func(fs FieldSet) {
			fs.Set(FieldBankName, "Kaspi Bank", 0.9, SourceHeuristic)
			fs.Set(FieldDocType, "receipt", 0.7, SourceHeuristic)
		}, true},
		{"client and id", func(fs FieldSet) {
			fs.Set(FieldClientName, "Ivan Petrov", 0.8, SourceHeuristic)
			fs.Set(FieldDocID, "A-123", 0.9, SourceHeuristic)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFieldSet()
			tt.set(fs)
			if got := fs.Sufficient(); got != tt.want {
				t.Errorf("Sufficient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldSetOrdered(t *testing.T) {
	fs := NewFieldSet()
	ordered := fs.Ordered()
	if len(ordered) != len(FieldNames()) {
		t.Fatalf("Ordered() returned %d fields, want %d", len(ordered), len(FieldNames()))
	}
	for i, name := range FieldNames() {
		if ordered[i].Name != name {
			t.Errorf("Ordered()[%d] = %q, want %q", i, ordered[i].Name, name)
		}
	}
}

func TestNewDocument(t *testing.T) {
	doc := New("/tmp/statement.pdf", "ru")
	if doc.ID == "" {
		t.Error("New() did not assign an ID")
	}
	if doc.Path != "/tmp/statement.pdf" || doc.LanguageHint != "ru" {
		t.Errorf("New() = %+v", doc)
	}
	if strings.Contains(doc.ID, " ") {
		t.Errorf("ID contains whitespace: %q", doc.ID)
	}
}
