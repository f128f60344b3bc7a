package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparsableMarker is returned by a strict Filter when a
// section marker carries no usable path.
var ErrUnparsableMarker = errors.New("unparsable diff marker")

const markerPrefix = "diff --git"

// markerRE mirrors git's unquoted header. Both groups are
// greedy, so a path containing " b/" resolves to the last
// occurrence.
var markerRE = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)

// Section is one file's part of a diff. The preamble, if
// any, is a Section with an empty Header.
type Section struct {
	// Header is the marker line that opened the section.
	Header string
	// Path is the new-side path. Empty for the preamble
	// and for unparsed markers.
	Path string
	// Parsed reports whether Path was extracted from the
	// header.
	Parsed bool
	// Body holds the lines following the header, up to the
	// next marker.
	Body []string
	// Ignored is set when Path matched Rule.
	Ignored bool
	Rule    string
}

// IsPreamble reports whether s holds the text preceding
// the first marker.
func (s Section) IsPreamble() bool {
	return s.Header == ""
}

func (s Section) lines() []string {
	if s.IsPreamble() {
		return s.Body
	}

	return append([]string{s.Header}, s.Body...)
}

// Filtered is the outcome of filtering a diff.
type Filtered struct {
	// Sections holds every section in input order,
	// including ignored ones.
	Sections []Section
	// Text is the newline-joined concatenation of the kept
	// sections.
	Text string
}

// Ignored returns the paths of the dropped sections.
func (f Filtered) Ignored() []string {
	var paths []string

	for _, s := range f.Sections {
		if s.Ignored {
			paths = append(paths, s.Path)
		}
	}

	return paths
}

// Kept returns the sections that made it into Text.
func (f Filtered) Kept() []Section {
	var kept []Section

	for _, s := range f.Sections {
		if !s.Ignored {
			kept = append(kept, s)
		}
	}

	return kept
}

// Filter drops diff sections matched by Rules.
type Filter struct {
	Rules RuleSet
	// Strict rejects the whole diff when a marker cannot be
	// parsed instead of keeping the section.
	Strict bool
}

// Apply is a fail-open Filter over rules.
func Apply(text string, rules RuleSet) Filtered {
	//nolint:errcheck // fail-open filtering cannot fail
	f, _ := Filter{Rules: rules}.Apply(text)

	return f
}

// Apply splits text into sections, marks ignored ones and
// joins the rest. It only fails in strict mode.
func (fl Filter) Apply(text string) (Filtered, error) {
	const errCtx = "filtering diff"

	sections := Parse(text)

	var kept []string

	for i := range sections {
		s := &sections[i]

		if !s.IsPreamble() && !s.Parsed && fl.Strict {
			return Filtered{}, fmt.Errorf(
				"%s: %w: %q", errCtx, ErrUnparsableMarker, s.Header,
			)
		}

		if s.Parsed {
			if rule, ok := fl.Rules.MatchingRule(s.Path); ok {
				s.Ignored = true
				s.Rule = rule

				slog.Info(
					"ignoring changes",
					"path", s.Path,
					"rule", rule,
				)

				continue
			}
		}

		kept = append(kept, s.lines()...)
	}

	return Filtered{
		Sections: sections,
		Text:     strings.Join(kept, "\n"),
	}, nil
}

// Parse splits text into sections without applying any
// rule.
func Parse(text string) []Section {
	var (
		sections []Section
		cur      *Section
	)

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, markerPrefix) {
			path, ok := parseMarker(line)
			if !ok {
				slog.Warn("unparsable diff marker, keeping section", "line", line)
			}

			sections = append(sections, Section{
				Header: line,
				Path:   path,
				Parsed: ok,
			})
			cur = &sections[len(sections)-1]

			continue
		}

		if cur == nil {
			sections = append(sections, Section{})
			cur = &sections[len(sections)-1]
		}

		cur.Body = append(cur.Body, line)
	}

	return sections
}

// parseMarker extracts the new-side path from a marker
// line. git quotes each side independently, so the old
// side is consumed first and the remainder is the new side.
func parseMarker(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, markerPrefix+" ")
	if !ok {
		return "", false
	}

	var newSide string

	switch {
	case strings.HasPrefix(rest, `"a/`):
		old, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return "", false
		}

		newSide, ok = strings.CutPrefix(rest[len(old):], " ")
		if !ok {
			return "", false
		}

	case strings.HasSuffix(rest, `"`):
		i := strings.LastIndex(rest, ` "b/`)
		if i < 0 || !strings.HasPrefix(rest, "a/") {
			return "", false
		}

		newSide = rest[i+1:]

	default:
		m := markerRE.FindStringSubmatch(line)
		if m == nil {
			return "", false
		}

		newSide = "b/" + m[2]
	}

	if strings.HasPrefix(newSide, `"`) {
		p, err := strconv.Unquote(newSide)
		if err != nil {
			return "", false
		}

		newSide = p
	}

	p, ok := strings.CutPrefix(newSide, "b/")
	if !ok {
		return "", false
	}

	return p, p != ""
}
