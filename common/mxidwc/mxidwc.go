// Package mxidwc matches Matrix user ids against wildcard patterns like
// "@*:example.com" or "@bot.*:*". A "*" wildcard matches any run of
// characters except ":", so a single wildcard never crosses the boundary
// between localpart and server name.
package mxidwc

import (
	"fmt"
	"regexp"
	"strings"
)

// Parse compiles a single wildcard pattern into an anchored regexp.
func Parse(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "@") {
		return nil, fmt.Errorf("mxidwc: pattern %q must start with @", pattern)
	}
	if strings.Count(pattern, ":") != 1 {
		return nil, fmt.Errorf("mxidwc: pattern %q must contain exactly one colon", pattern)
	}

	var b strings.Builder
	b.WriteString("^")
	for _, part := range strings.Split(pattern, "*") {
		if b.Len() > 1 {
			b.WriteString("[^:]*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// ParseAll compiles a list of wildcard patterns, failing on the first
// invalid one.
func ParseAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// Match reports whether userID matches any of the compiled patterns.
func Match(userID string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(userID) {
			return true
		}
	}
	return false
}
