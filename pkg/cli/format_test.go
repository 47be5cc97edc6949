package cli

import (
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int
		want string
	}{
		{500, "500ms"},
		{1500, "1.5s"},
		{65000, "1m5.0s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.ms); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.bytes); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestLevelBar(t *testing.T) {
	full := LevelBar(0, 10)
	if !strings.Contains(full, strings.Repeat("#", 10)) {
		t.Errorf("full-scale bar = %q", full)
	}
	empty := LevelBar(-160, 10)
	if strings.Contains(empty, "#") {
		t.Errorf("silence bar = %q", empty)
	}
	if LevelBar(-30, 0) != "" {
		t.Error("zero-width bar should be empty")
	}
}
