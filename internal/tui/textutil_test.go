package tui

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string, int) string
		in     string
		limit  int
		expect string
	}{
		{"end fits", truncateEnd, "Tokyo", 10, "Tokyo"},
		{"end cut", truncateEnd, "Tokyo rain warning", 6, "Tokyo…"},
		{"end multibyte", truncateEnd, "Землетрясение", 4, "Зем…"},
		{"end zero", truncateEnd, "x", 0, ""},
		{"middle cut", truncateMiddle, "/home/user/.newsmap/exports", 11, "/home…ports"},
		{"middle fits", truncateMiddle, "short", 10, "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in, tt.limit); got != tt.expect {
				t.Errorf("got %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestClip(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5"}
	if got := clip(lines, 0, 10); len(got) != 6 {
		t.Errorf("expected all lines, got %v", got)
	}
	got := clip(lines, 4, 3)
	if len(got) != 3 || got[0] != "3" || got[2] != "5" {
		t.Errorf("expected lines 3..5, got %v", got)
	}
}
