package github

import (
	"regexp"
	"strings"
)

// FilterOptions are the declarative predicates applied to a repository
// listing. All predicates are optional and AND-combined; application order
// does not affect the result.
type FilterOptions struct {
	// IncludeForks keeps forked repositories, which are dropped by default.
	IncludeForks bool

	// IncludePrivate keeps private repositories, which are dropped by default.
	IncludePrivate bool

	// Languages, when non-empty, keeps only repositories whose primary
	// language case-insensitively matches one of the entries.
	Languages []string

	// NamePattern, when non-nil, keeps only repositories whose name matches
	// at the start of the string.
	NamePattern *regexp.Regexp
}

// CompileNamePattern compiles a name filter anchored at the start of the
// string, mirroring prefix-style match semantics: "foo" matches "foobar"
// but not "barfoo".
func CompileNamePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")")
}

// FilterRepositories applies the predicates to a listing. Pure function, no
// I/O; the input slice is not modified.
func FilterRepositories(repos []Repository, opts FilterOptions) []Repository {
	languages := make(map[string]struct{}, len(opts.Languages))
	for _, lang := range opts.Languages {
		languages[strings.ToLower(lang)] = struct{}{}
	}

	filtered := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if r.Fork && !opts.IncludeForks {
			continue
		}
		if r.Private && !opts.IncludePrivate {
			continue
		}
		if len(languages) > 0 {
			if _, ok := languages[strings.ToLower(r.Language)]; !ok {
				continue
			}
		}
		if opts.NamePattern != nil && !opts.NamePattern.MatchString(r.Name) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
