package fileset

import (
	"fmt"
	"path/filepath"
	"sort"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ExpandGlob expands each of patterns (standard filepath.Glob syntax, e.g.
// "data/*.in") relative to root, merges and sorts the matches, and drops any
// path matched by ignoreFile (a .gitignore-style file; pass "" to skip
// filtering). The result is a single positional FileList.
func ExpandGlob(root string, patterns []string, ignoreFile string) (*FileList, error) {
	var ignore *gitignore.GitIgnore
	if ignoreFile != "" {
		ig, err := gitignore.CompileIgnoreFile(ignoreFile)
		if err != nil {
			return nil, fmt.Errorf("fileset: reading ignore file %s: %w", ignoreFile, err)
		}
		ignore = ig
	}

	seen := make(map[string]struct{})
	var matches []string
	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, pattern)
		}
		found, err := filepath.Glob(full)
		if err != nil {
			return nil, fmt.Errorf("fileset: bad glob pattern %q: %w", pattern, err)
		}
		for _, path := range found {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			if ignore != nil && ignore.MatchesPath(rel) {
				continue
			}
			if _, ok := seen[rel]; ok {
				continue
			}
			seen[rel] = struct{}{}
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)

	items := make([]any, len(matches))
	for i, m := range matches {
		items[i] = m
	}
	return Of(items...)
}
