package scope

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// DefaultPruneDirs are directory names never descended into: dependency
// caches, build output, generated code and vendored import snapshots.
var DefaultPruneDirs = []string{"node_modules", "dist", "build", "coverage", "_generated", "imports", ".git"}

// DefaultTestExcludes are path substrings that mark test and declaration
// files.
var DefaultTestExcludes = []string{".test.", ".spec.", "__tests__/"}

// DefaultExcludeSuffixes drop type declaration files.
var DefaultExcludeSuffixes = []string{".d.ts"}

// Resolver produces the candidate files of a check.
type Resolver interface {
	Resolve(fsys fs.FS) ([]string, error)
}

// Rule decides which files under a tree participate in a check. Directory
// predicates are applied during traversal so pruned subtrees are never read.
// All paths are slash-separated and relative to the root of the fs.FS.
type Rule struct {
	// Roots are the trees to walk. A root that does not exist is skipped.
	Roots []string

	// Extensions restricts files by suffix (e.g. ".ts"). Empty admits all.
	Extensions []string

	// PruneDirs are directory base names that are never descended into.
	PruneDirs []string

	// PrunePrefixes are directory paths that are never descended into.
	PrunePrefixes []string

	// ExcludeSubstrings and ExcludeSuffixes drop individual files.
	ExcludeSubstrings []string
	ExcludeSuffixes   []string
}

// Resolve walks every root and returns the sorted, de-duplicated set of
// participating files.
func (r Rule) Resolve(fsys fs.FS) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, root := range r.Roots {
		root = cleanRel(root)
		info, err := fs.Stat(fsys, root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if r.Admits(root) {
				if _, dup := seen[root]; !dup {
					seen[root] = struct{}{}
					files = append(files, root)
				}
			}
			continue
		}

		err = fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return fmt.Errorf("walk %s: %w", p, walkErr)
			}
			if d.IsDir() {
				if p != root && r.Prunes(p) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !r.Admits(p) {
				return nil
			}
			if _, dup := seen[p]; dup {
				return nil
			}
			seen[p] = struct{}{}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// Prunes reports whether the directory at p must not be descended into.
func (r Rule) Prunes(p string) bool {
	p = cleanRel(p)
	base := path.Base(p)
	for _, name := range r.PruneDirs {
		if base == name {
			return true
		}
	}
	for _, prefix := range r.PrunePrefixes {
		prefix = cleanRel(prefix)
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// Admits reports whether a file at p participates, ignoring directory
// pruning.
func (r Rule) Admits(p string) bool {
	if len(r.Extensions) > 0 {
		ok := false
		for _, ext := range r.Extensions {
			if strings.HasSuffix(p, ext) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, s := range r.ExcludeSuffixes {
		if strings.HasSuffix(p, s) {
			return false
		}
	}
	for _, s := range r.ExcludeSubstrings {
		if strings.Contains(p, s) {
			return false
		}
	}
	return true
}

// Sources is the rule shared by the source-code checks: the given roots and
// extensions with the default pruned directories and test exclusions.
func Sources(roots []string, extensions ...string) Rule {
	return Rule{
		Roots:             roots,
		Extensions:        extensions,
		PruneDirs:         append([]string(nil), DefaultPruneDirs...),
		ExcludeSubstrings: append([]string(nil), DefaultTestExcludes...),
		ExcludeSuffixes:   append([]string(nil), DefaultExcludeSuffixes...),
	}
}

func cleanRel(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	if p == "" || p == "/" {
		return "."
	}
	return strings.TrimPrefix(p, "/")
}
