// Package ignore decides which changed files are left out of the tuture
// artifact. Rules are shell-style globs matched against a file's base name.
package ignore

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

type rule struct {
	pattern  string
	glob     glob.Glob
	dotMatch bool
}

// RuleSet is a compiled, ordered list of ignore patterns. A nil RuleSet
// matches nothing.
type RuleSet struct {
	rules []rule
}

// New compiles patterns. Blank patterns are skipped; an invalid pattern
// fails the whole set.
func New(patterns []string) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]rule, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		rs.rules = append(rs.rules, rule{
			pattern:  p,
			glob:     g,
			dotMatch: strings.HasPrefix(p, "."),
		})
	}
	return rs, nil
}

// MustNew is New for patterns known to be valid.
func MustNew(patterns ...string) *RuleSet {
	rs, err := New(patterns)
	if err != nil {
		panic(err)
	}
	return rs
}

// Patterns returns the compiled patterns in order.
func (rs *RuleSet) Patterns() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.pattern
	}
	return out
}

// Len reports the number of patterns.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Match reports whether the base name of p matches any pattern.
// A base name starting with "." only matches patterns that start with ".".
func (rs *RuleSet) Match(p string) bool {
	if rs == nil || len(rs.rules) == 0 {
		return false
	}
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "." || base == "/" {
		return false
	}
	hidden := strings.HasPrefix(base, ".")
	for _, r := range rs.rules {
		if hidden && !r.dotMatch {
			continue
		}
		if r.glob.Match(base) {
			return true
		}
	}
	return false
}

// Filter returns the paths that match no pattern, in their original order.
func (rs *RuleSet) Filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !rs.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
