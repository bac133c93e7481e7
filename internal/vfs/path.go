package vfs

import "strings"

// ResolvePath normalises path against cwd without touching the tree:
// leading /, ., and .. are resolved syntactically. An empty cwd means
// the root. The result is always absolute and never ends in a slash
// (except for the root itself).
func ResolvePath(path, cwd string) string {
	if cwd == "" {
		cwd = "/"
	}
	if !strings.HasPrefix(path, "/") {
		if cwd == "/" {
			path = "/" + path
		} else {
			path = cwd + "/" + path
		}
	}
	parts := strings.Split(path, "/")
	resolved := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, part)
		}
	}
	return "/" + strings.Join(resolved, "/")
}

// splitPath breaks an absolute normalised path into its components.
// The root yields an empty slice.
func splitPath(abs string) []string {
	abs = strings.Trim(abs, "/")
	if abs == "" {
		return nil
	}
	return strings.Split(abs, "/")
}

// parentPath returns the containing directory of an absolute path.
func parentPath(abs string) string {
	idx := strings.LastIndex(abs, "/")
	if idx <= 0 {
		return "/"
	}
	return abs[:idx]
}

// baseName returns the final component of an absolute path.
func baseName(abs string) string {
	if abs == "/" {
		return "/"
	}
	idx := strings.LastIndex(abs, "/")
	return abs[idx+1:]
}

// joinPath appends a name to a directory path without doubling the
// root slash.
func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}
