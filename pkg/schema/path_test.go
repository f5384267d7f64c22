package schema

import (
	"slices"
	"testing"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"a", []string{"a"}},
		{"a.b.c", []string{"a", "b", "c"}},
		{"children[0].father", []string{"children", "0", "father"}},
		{"a.0.b", []string{"a", "0", "b"}},
		{`meta["a.b"].x`, []string{"meta", "a.b", "x"}},
		{`meta['k'][1]`, []string{"meta", "k", "1"}},
		{"a..b", []string{"a", "", "b"}},
		{"a[0", []string{"a", "0"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := SplitPath(tt.path); !slices.Equal(got, tt.want) {
			t.Errorf("SplitPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
