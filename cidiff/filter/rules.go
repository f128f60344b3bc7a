package filter

import "strings"

// DefaultIgnore lists the paths ignored when no rules are
// configured.
var DefaultIgnore = []string{
	".github/workflows/CD",
	".gitignore",
	"extract_tags.js",
	"package-lock.json",
	"package.json",
	"sample_test.js",
}

// RuleSet is a set of ignore rules. Order does not affect
// matching.
type RuleSet struct {
	rules []string
}

// NewRuleSet builds a RuleSet from rules. Blank rules and
// surrounding slashes are dropped, so "docs/" and "docs"
// are the same rule.
func NewRuleSet(rules ...string) RuleSet {
	rs := RuleSet{rules: make([]string, 0, len(rules))}

	seen := make(map[string]struct{}, len(rules))

	for _, r := range rules {
		r = strings.Trim(strings.TrimSpace(r), "/")
		if r == "" {
			continue
		}

		if _, dup := seen[r]; dup {
			continue
		}

		seen[r] = struct{}{}
		rs.rules = append(rs.rules, r)
	}

	return rs
}

// Rules returns a copy of the normalized rules.
func (rs RuleSet) Rules() []string {
	return append([]string(nil), rs.rules...)
}

// Len returns the number of rules.
func (rs RuleSet) Len() int {
	return len(rs.rules)
}

// Match reports whether path is covered by a rule. A rule
// matches a path equal to it, a path ending in "/"+rule and
// a path starting with rule+"/".
func (rs RuleSet) Match(path string) bool {
	_, ok := rs.MatchingRule(path)

	return ok
}

// MatchingRule returns the first rule covering path.
func (rs RuleSet) MatchingRule(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	for _, r := range rs.rules {
		if path == r ||
			strings.HasSuffix(path, "/"+r) ||
			strings.HasPrefix(path, r+"/") {
			return r, true
		}
	}

	return "", false
}
