package version

import "testing"

func TestGetUsesLdflags(t *testing.T) {
	defer func(v, c, b string) { Version, GitCommit, BuildTime = v, c, b }(Version, GitCommit, BuildTime)
	Version, GitCommit, BuildTime = "1.4.0", "abc1234", "2026-10-18T09:00:00Z"

	info := Get()
	if info.Version != "1.4.0" || info.GitCommit != "abc1234" || info.BuildTime != "2026-10-18T09:00:00Z" {
		t.Errorf("info = %+v", info)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "1.4.0", GitCommit: "abc1234", BuildTime: "2026-10-18T18:00:00+09:00"}, "1.4.0 (abc1234, built 2026-10-18T09:00:00Z)"},
		{Info{Version: "dev", Dirty: true}, "dev-dirty (unknown)"},
		{Info{Version: "dev", GitCommit: "abc1234", BuildTime: "yesterday"}, "dev (abc1234)"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit = %q", got)
	}
}
