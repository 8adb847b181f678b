// Package pathspec restricts repository operations to a set of path
// patterns. A pattern matches a path either exactly, as a leading directory
// ("pkg" matches "pkg/util/util.go"), or as a glob when it contains
// wildcard characters and literal matching is not forced.
package pathspec

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathSpec is an ordered set of match patterns. The zero value and nil both
// mean "match the whole tree".
type PathSpec struct {
	patterns []pattern
}

type pattern struct {
	raw  string
	glob bool
}

// Option configures pattern parsing.
type Option func(*parseOpts)

type parseOpts struct {
	literal bool
}

// Literal disables glob interpretation; every pattern matches by exact path
// or directory prefix only. Used for stdin-supplied path batches.
func Literal() Option {
	return func(o *parseOpts) { o.literal = true }
}

// New builds a PathSpec from raw patterns. Patterns are slash-normalized
// and cleaned; empty patterns are dropped.
func New(raws []string, opts ...Option) *PathSpec {
	var po parseOpts
	for _, opt := range opts {
		opt(&po)
	}

	ps := &PathSpec{}
	for _, raw := range raws {
		cleaned := path.Clean(strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/")))
		if cleaned == "" || cleaned == "." {
			continue
		}
		ps.patterns = append(ps.patterns, pattern{
			raw:  cleaned,
			glob: !po.literal && hasGlobMeta(cleaned),
		})
	}
	return ps
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// Empty reports whether the spec matches the whole tree.
func (ps *PathSpec) Empty() bool {
	return ps == nil || len(ps.patterns) == 0
}

// Match reports whether the given slash-separated repo-relative path is
// covered by the spec. An empty spec matches everything.
func (ps *PathSpec) Match(p string) bool {
	if ps.Empty() {
		return true
	}
	for _, pat := range ps.patterns {
		if pat.matches(p) {
			return true
		}
	}
	return false
}

func (pat pattern) matches(p string) bool {
	if pat.glob {
		ok, err := doublestar.Match(pat.raw, p)
		if err == nil && ok {
			return true
		}
		// A glob on a directory also covers everything beneath it.
		ok, err = doublestar.Match(pat.raw+"/**", p)
		return err == nil && ok
	}
	if p == pat.raw {
		return true
	}
	return strings.HasPrefix(p, pat.raw+"/")
}

// Patterns returns the cleaned raw patterns, in input order.
func (ps *PathSpec) Patterns() []string {
	if ps == nil {
		return nil
	}
	out := make([]string, len(ps.patterns))
	for i, pat := range ps.patterns {
		out[i] = pat.raw
	}
	return out
}
