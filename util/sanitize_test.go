package util

import "testing"

func TestSanitizeString(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"  routing-token  ":  "routing-token",
		"abc\x00def":         "abcdef",
		"first\r\n\tsecond":  "firstsecond",
		"\x1b[31mred\x1b[0m": "[31mred[0m",
	}
	for in, want := range cases {
		if got := SanitizeString(in); got != want {
			t.Errorf("SanitizeString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeEnvValue(t *testing.T) {
	cases := []struct{ in, want string }{
		{`"secret"`, "secret"},
		{`'secret'`, "secret"},
		{`  " padded "  `, "padded"},
		{"bare", "bare"},
		{`"`, `"`},
		{`"half'`, `"half'`},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeEnvValue(c.in); got != c.want {
			t.Errorf("SanitizeEnvValue(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeFileComponent(t *testing.T) {
	cases := []struct{ in, want string }{
		{"123456789012345678", "123456789012345678"},
		{"user-1_a", "user-1_a"},
		{"../etc/passwd", "___etc_passwd"},
		{"山田", "__"},
		{"a b", "a_b"},
		{"  ", "_"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := SanitizeFileComponent(c.in); got != c.want {
				t.Errorf("SanitizeFileComponent(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
