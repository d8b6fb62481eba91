package entity

import "testing"

func TestWordlistEntryIsValid(t *testing.T) {
	if (WordlistEntry{}).IsValid() {
		t.Errorf("zero-value WordlistEntry should be invalid")
	}
	if !(WordlistEntry{Key: "TOKYO"}).IsValid() {
		t.Errorf("a WordlistEntry with a non-empty key should be valid even at id 0")
	}
}

func TestWordlistEntryIdlistIDs(t *testing.T) {
	e := WordlistEntry{Idlist: "geonlp:a:名前1/geonlp:b:名前2"}
	got := e.IdlistIDs()
	want := []string{"geonlp:a", "geonlp:b"}
	if len(got) != len(want) {
		t.Fatalf("IdlistIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IdlistIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWordlistEntryIdlistIDsEmpty(t *testing.T) {
	if got := (WordlistEntry{}).IdlistIDs(); got != nil {
		t.Errorf("IdlistIDs() on an empty idlist = %v, want nil", got)
	}
}

func TestAppendIdlistEntry(t *testing.T) {
	idlist := AppendIdlistEntry("", "geonlp:a", "名前1")
	if idlist != "geonlp:a:名前1" {
		t.Fatalf("AppendIdlistEntry on empty idlist = %q", idlist)
	}
	idlist = AppendIdlistEntry(idlist, "geonlp:b", "名前2")
	if idlist != "geonlp:a:名前1/geonlp:b:名前2" {
		t.Errorf("AppendIdlistEntry appended incorrectly: %q", idlist)
	}
}
