package stopwords

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultKeepsOperators(t *testing.T) {
	set := Default()
	for _, op := range []string{"and", "or", "not"} {
		if set.Contains(op) {
			t.Errorf("default set contains operator word %q", op)
		}
	}
	if !set.Contains("the") {
		t.Error("default set is missing \"the\"")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"json", `["a", "ale", " by "]`, []string{"a", "ale", "by"}},
		{"lines", "# czech\na\nale\n\nby\n", []string{"a", "ale", "by"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "stopwords.txt")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing file: %v", err)
			}
			set, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(set) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%v)", len(set), len(tt.want), set)
			}
			for _, w := range tt.want {
				if !set.Contains(w) {
					t.Errorf("missing %q", w)
				}
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`["a",`), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
