package vfs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// GrepMatch is one matching line from Grep. Line numbers are 1-based.
type GrepMatch struct {
	File string
	Line int
	Text string
}

// globToRegexp converts a shell glob to an anchored regular
// expression: * matches any run, ? any single character, and every
// other metacharacter is taken literally.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Find descends base and returns the absolute path of every node whose
// name matches the glob. Directories are included. Results come back
// in depth-first lexicographic order.
func (fs *FS) Find(base, glob, cwd string) ([]string, error) {
	abs := ResolvePath(base, cwd)
	root := fs.Resolve(abs, "/")
	if root == nil {
		return nil, fmt.Errorf("%s: %w", base, ErrNotFound)
	}
	re, err := globToRegexp(glob)
	if err != nil {
		return nil, fmt.Errorf("vfs: bad pattern %q: %w", glob, err)
	}
	var matches []string
	var walk func(node *Node, path string)
	walk = func(node *Node, path string) {
		if re.MatchString(node.Name) {
			matches = append(matches, path)
		}
		if node.IsDir() {
			for _, child := range node.Children() {
				walk(child, joinPath(path, child.Name))
			}
		}
	}
	if root.IsDir() {
		for _, child := range root.Children() {
			walk(child, joinPath(abs, child.Name))
		}
	} else if re.MatchString(root.Name) {
		matches = append(matches, abs)
	}
	return matches, nil
}

// Grep compiles pattern as a regular expression and returns every
// matching line under path. A directory is only descended when
// recursive is set; non-recursive grep of a directory yields nothing.
func (fs *FS) Grep(pattern, path, cwd string, recursive bool) ([]GrepMatch, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vfs: bad pattern %q: %w", pattern, err)
	}
	abs := ResolvePath(path, cwd)
	node := fs.Resolve(abs, "/")
	if node == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	var matches []GrepMatch
	var scan func(node *Node, nodePath string)
	scan = func(node *Node, nodePath string) {
		switch {
		case node.IsFile():
			for i, line := range strings.Split(node.Content, "\n") {
				if re.MatchString(line) {
					matches = append(matches, GrepMatch{File: nodePath, Line: i + 1, Text: line})
				}
			}
		case node.IsDir() && recursive:
			for _, child := range node.Children() {
				scan(child, joinPath(nodePath, child.Name))
			}
		}
	}
	if node.IsDir() && !recursive {
		return nil, nil
	}
	scan(node, abs)
	return matches, nil
}

// CompletePath returns the names in the partial's parent directory
// that begin with its final component. Directory names get a trailing
// slash. Results are sorted.
func (fs *FS) CompletePath(partial, cwd string) []string {
	dir := cwd
	prefix := partial
	if idx := strings.LastIndex(partial, "/"); idx >= 0 {
		dir = ResolvePath(partial[:idx+1], cwd)
		prefix = partial[idx+1:]
	}
	parent := fs.Resolve(dir, "/")
	if parent == nil || !parent.IsDir() {
		return nil
	}
	var names []string
	for _, child := range parent.Children() {
		if !strings.HasPrefix(child.Name, prefix) {
			continue
		}
		name := child.Name
		// Resolve through symlinks so links to directories complete
		// like directories.
		if target := fs.Resolve(joinPath(dir, child.Name), "/"); target != nil && target.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
