package util

import "testing"

func TestParseSize(t *testing.T) {
	const def = 64 << 10
	tests := []struct {
		in   string
		want int64
	}{
		{"64KB", 64 << 10},
		{"1MB", 1 << 20},
		{"1m", 1 << 20},
		{"2G", 2 << 30},
		{" 512 kb ", 512 << 10},
		{"300B", 300},
		{"2048", 2048},
		{"", def},
		{"lots", def},
		{"-1KB", def},
		{"1.5MB", def},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSize(tt.in, def); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in      string
		visible int
		want    string
	}{
		{"sk-live-0123456789", 4, "sk-l***"},
		{"abcd", 4, "***"},
		{"", 2, "***"},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in, tt.visible); got != tt.want {
			t.Errorf("MaskSecret(%q, %d) = %q, want %q", tt.in, tt.visible, got, tt.want)
		}
	}
}
