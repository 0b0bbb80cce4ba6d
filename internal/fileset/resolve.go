// Package fileset expands declarative file sets into concrete source and
// destination path pairs.
package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Pair is one resolved input file and the output path it produces.
type Pair struct {
	// Src is the absolute source path.
	Src string
	// Dest is the absolute destination path. Empty when the file set has no Dest.
	Dest string
	// Rel is Src relative to the file set base, slash separated.
	Rel string
}

// Resolve walks spec.Base and returns the files selected by the file set,
// in lexical order, each paired with its destination.
func Resolve(spec core.FileSetSpec) ([]Pair, error) {
	base, err := filepath.Abs(spec.Base)
	if err != nil {
		return nil, &core.ResolutionError{Base: spec.Base, Err: err}
	}

	info, err := os.Stat(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.ResolutionError{Base: spec.Base, Err: errors.New("base directory does not exist")}
		}
		return nil, &core.ResolutionError{Base: spec.Base, Err: err}
	}
	if !info.IsDir() {
		return nil, &core.ResolutionError{Base: spec.Base, Err: errors.New("base is not a directory")}
	}

	include, err := compileAll(spec.Base, spec.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(spec.Base, spec.Exclude)
	if err != nil {
		return nil, err
	}

	var dest string
	if spec.Dest != "" {
		if dest, err = filepath.Abs(spec.Dest); err != nil {
			return nil, &core.ResolutionError{Base: spec.Base, Err: err}
		}
	}

	var pairs []Pair
	owners := make(map[string]string)

	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !include.Match(rel) || exclude.Match(rel) {
			return nil
		}

		pair := Pair{Src: p, Rel: rel}
		if dest != "" {
			out := Destination(rel, spec)
			pair.Dest = filepath.Join(dest, filepath.FromSlash(out))
			if prev, taken := owners[pair.Dest]; taken {
				return &core.ResolutionError{
					Base: spec.Base,
					Err:  fmt.Errorf("%s and %s both resolve to %s", prev, rel, pair.Dest),
				}
			}
			owners[pair.Dest] = rel
		}
		pairs = append(pairs, pair)
		return nil
	})
	if err != nil {
		var resErr *core.ResolutionError
		if errors.As(err, &resErr) {
			return nil, err
		}
		return nil, &core.ResolutionError{Base: spec.Base, Err: err}
	}

	return pairs, nil
}

// Destination computes the destination of rel (relative to the file set base)
// relative to the file set Dest: extension substitution first, then rename.
func Destination(rel string, spec core.FileSetSpec) string {
	out := rel
	if spec.Ext != "" {
		out = ReplaceExt(out, spec.Ext, spec.ExtDot)
	}
	if spec.Rename != nil {
		out = spec.Rename(out)
	}
	return path.Clean(out)
}

// ReplaceExt swaps the extension of the final path element.
// With ExtDotFirst everything after the first dot of the file name is
// replaced; with ExtDotLast only the final extension is.
func ReplaceExt(rel, ext string, mode core.ExtDot) string {
	dir, name := path.Split(rel)
	var idx int
	if mode == core.ExtDotLast {
		idx = strings.LastIndex(name, ".")
	} else {
		// Leading dots belong to the name.
		trimmed := strings.TrimLeft(name, ".")
		idx = strings.Index(trimmed, ".")
		if idx >= 0 {
			idx += len(name) - len(trimmed)
		}
	}
	if idx <= 0 {
		return dir + name + ext
	}
	return dir + name[:idx] + ext
}

// Flatten keeps the first directory of rel and drops every intermediate one:
// "atoms/forms/input.html" becomes "atoms/input.html" and "index.html" is unchanged.
func Flatten(rel string) string {
	rel = strings.TrimPrefix(path.Clean(rel), "/")
	segments := strings.Split(rel, "/")
	if len(segments) < 2 {
		return rel
	}
	return segments[0] + "/" + segments[len(segments)-1]
}

func compileAll(base string, globs []string) (Set, error) {
	set, err := CompileSet(globs)
	if err != nil {
		return nil, &core.ResolutionError{Base: base, Pattern: strings.Join(globs, ", "), Err: err}
	}
	return set, nil
}
