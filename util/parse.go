package util

import (
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	scale  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"G", 1 << 30},
	{"M", 1 << 20},
	{"K", 1 << 10},
	{"B", 1},
}

// ParseSize reads sizes such as "64KB", "1M" or "2048" as bytes. Empty,
// malformed and negative values yield def.
func ParseSize(s string, def int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	scale := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, scale = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.scale
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n * scale
}

// MaskSecret keeps the first visible characters of a credential for logs.
// Secrets no longer than visible are masked entirely.
func MaskSecret(s string, visible int) string {
	if len(s) <= visible {
		return "***"
	}
	return s[:visible] + "***"
}
