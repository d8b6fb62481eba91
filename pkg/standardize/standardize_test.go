package standardize

import "testing"

func TestNormalizeStripsSeparators(t *testing.T) {
	got := Normalize("東京－都")
	want := Normalize("東京都")
	if got != want {
		t.Errorf("Normalize(東京－都) = %q, want it to equal Normalize(東京都) = %q", got, want)
	}
}

func TestNormalizeFoldsWidth(t *testing.T) {
	if Normalize("ﾄｳｷｮｳ") != Normalize("トウキョウ") {
		t.Errorf("half-width and full-width katakana should normalize identically")
	}
}

func TestNormalizeUppercasesASCII(t *testing.T) {
	if got, want := Normalize("tokyo"), "TOKYO"; got != want {
		t.Errorf("Normalize(tokyo) = %q, want %q", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize("東京都・新宿区")
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize should be idempotent, got %q then %q", once, twice)
	}
}
