package mxidwc_test

import (
	"testing"

	"github.com/etkecc/baibot/common/mxidwc"
)

func TestParseAndMatch(t *testing.T) {
	tests := []struct {
		pattern string
		userID  string
		want    bool
	}{
		{"@admin:example.com", "@admin:example.com", true},
		{"@admin:example.com", "@admin2:example.com", false},
		{"@*:example.com", "@anyone:example.com", true},
		{"@*:example.com", "@anyone:other.com", false},
		{"@bot.*:example.com", "@bot.baibot:example.com", true},
		{"@bot.*:example.com", "@botnot:example.com", false},
		{"@*:*", "@anyone:anywhere.org", true},
		// The wildcard must not swallow the localpart/server separator.
		{"@*:example.com", "@a:b:example.com", false},
		{"@admin:example.com", "@admin:example.comX", false},
		{"@ad.min:example.com", "@adXmin:example.com", false},
	}

	for _, tt := range tests {
		re, err := mxidwc.Parse(tt.pattern)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.pattern, err)
		}
		if got := re.MatchString(tt.userID); got != tt.want {
			t.Errorf("pattern %q against %q = %v, want %v", tt.pattern, tt.userID, got, tt.want)
		}
	}
}

func TestParseRejections(t *testing.T) {
	for _, pattern := range []string{"", "admin:example.com", "@admin", "@a:b:c"} {
		if _, err := mxidwc.Parse(pattern); err == nil {
			t.Errorf("Parse(%q): expected an error", pattern)
		}
	}
}

func TestParseAllAndMatch(t *testing.T) {
	patterns, err := mxidwc.ParseAll([]string{"@admin:example.com", "@*:trusted.org"})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if !mxidwc.Match("@someone:trusted.org", patterns) {
		t.Error("expected a match via the second pattern")
	}
	if mxidwc.Match("@someone:untrusted.org", patterns) {
		t.Error("expected no match")
	}

	if _, err := mxidwc.ParseAll([]string{"@ok:example.com", "bad"}); err == nil {
		t.Error("ParseAll must fail on the first invalid pattern")
	}
}
