package labels

import "testing"

func newLabels(t *testing.T) *Labels {
	t.Helper()
	l, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return l
}

func TestLookup(t *testing.T) {
	l := newLabels(t)

	tests := []struct {
		lang, key, want string
	}{
		{"en", "moveUp", "Move Up"},
		{"ja", "appTitle", "チラシ広告ジェネレーター"},
		{"ja-JP", "appTitle", "チラシ広告ジェネレーター"},
		{"fr", "moveDown", "Move Down"},
		{"", "remove", "Remove"},
		{"en", "noSuchKey", "noSuchKey"},
		{"ja", "noSuchKey", "noSuchKey"},
	}
	for _, tt := range tests {
		if got := l.Lookup(tt.lang, tt.key); got != tt.want {
			t.Errorf("Lookup(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	l := newLabels(t)
	if got := l.Resolve("ja,en;q=0.8").String(); got != "ja" {
		t.Errorf("Resolve(accept header) = %q, want ja", got)
	}
	if got := l.Resolve("de").String(); got != "en" {
		t.Errorf("Resolve(de) = %q, want en", got)
	}
}

func TestTable_SameKeysInEveryLanguage(t *testing.T) {
	l := newLabels(t)
	_, en := l.Table("en")
	tag, ja := l.Table("ja")

	if tag.String() != "ja" {
		t.Errorf("Table(ja) resolved to %q", tag)
	}
	if len(en) == 0 || len(en) != len(ja) {
		t.Fatalf("table sizes differ: en=%d ja=%d", len(en), len(ja))
	}
	for k, v := range ja {
		if v == k {
			t.Errorf("ja label %q falls back to its key", k)
		}
	}
	if en["dragModeEnabled"] != "Drag Mode Enabled" {
		t.Errorf("en dragModeEnabled = %q", en["dragModeEnabled"])
	}
}

func TestLanguages(t *testing.T) {
	langs := newLabels(t).Languages()
	if len(langs) != 2 {
		t.Errorf("Languages() = %v, want en and ja", langs)
	}
}
