package fileset

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/pattern"
)

// Glob is a compiled file-name pattern. `*` and `?` stop at `/`, and `**/`
// spans any number of directories, including none.
type Glob struct {
	source string
	re     *regexp.Regexp
}

// Compile parses a glob pattern.
func Compile(glob string) (*Glob, error) {
	glob = strings.TrimPrefix(glob, "./")
	if glob == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	expr, err := pattern.Regexp(glob, pattern.Filenames)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", glob, err)
	}
	return &Glob{source: glob, re: re}, nil
}

// Match reports whether the slash-separated relative path matches.
func (g *Glob) Match(rel string) bool {
	return g.re.MatchString(rel)
}

// String returns the source pattern.
func (g *Glob) String() string {
	return g.source
}

// Set is a list of globs matched as a union.
type Set []*Glob

// CompileSet compiles every pattern, failing on the first bad one.
func CompileSet(globs []string) (Set, error) {
	set := make(Set, 0, len(globs))
	for _, glob := range globs {
		g, err := Compile(glob)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", glob, err)
		}
		set = append(set, g)
	}
	return set, nil
}

// Match reports whether any glob in the set matches rel.
func (s Set) Match(rel string) bool {
	for _, g := range s {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
