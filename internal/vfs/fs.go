package vfs

import (
	"fmt"
	"strings"
	"time"
)

// FS is a single rooted tree. It is not safe for concurrent use; the
// engine serialises all access on its own goroutine.
type FS struct {
	root *Node
}

// New returns a filesystem containing only the root directory.
func New() *FS {
	root := NewDir("/")
	return &FS{root: root}
}

// Root exposes the root node for traversal.
func (fs *FS) Root() *Node { return fs.root }

// resolveAbs walks an absolute normalised path. Intermediate symlinks
// are always followed; the final component only when followFinal is
// set. Returns the node and the real (post-symlink) path it lives at.
func (fs *FS) resolveAbs(abs string, hops *int, followFinal bool) (*Node, string, error) {
	parts := splitPath(abs)
	cur := fs.root
	curPath := "/"
	for i, part := range parts {
		if !cur.IsDir() {
			return nil, "", ErrNotDirectory
		}
		child := cur.Child(part)
		if child == nil {
			return nil, "", ErrNotFound
		}
		last := i == len(parts)-1
		if child.Kind == KindSymlink && (!last || followFinal) {
			*hops++
			if *hops > symlinkHopLimit {
				return nil, "", ErrLinkLoop
			}
			target := ResolvePath(child.Target, curPath)
			node, realPath, err := fs.resolveAbs(target, hops, true)
			if err != nil {
				return nil, "", err
			}
			cur, curPath = node, realPath
			continue
		}
		cur, curPath = child, joinPath(curPath, part)
	}
	return cur, curPath, nil
}

// Resolve returns the node at path (relative to cwd), following
// symlinks, or nil when it does not exist.
func (fs *FS) Resolve(path, cwd string) *Node {
	hops := 0
	node, _, err := fs.resolveAbs(ResolvePath(path, cwd), &hops, true)
	if err != nil {
		return nil
	}
	return node
}

// Lstat is Resolve without following a final symlink.
func (fs *FS) Lstat(path, cwd string) *Node {
	hops := 0
	node, _, err := fs.resolveAbs(ResolvePath(path, cwd), &hops, false)
	if err != nil {
		return nil
	}
	return node
}

// Exists reports whether path resolves to any node.
func (fs *FS) Exists(path, cwd string) bool {
	return fs.Resolve(path, cwd) != nil
}

// IsFile reports whether path resolves to a regular file.
func (fs *FS) IsFile(path, cwd string) bool {
	n := fs.Resolve(path, cwd)
	return n != nil && n.IsFile()
}

// IsDirectory reports whether path resolves to a directory.
func (fs *FS) IsDirectory(path, cwd string) bool {
	n := fs.Resolve(path, cwd)
	return n != nil && n.IsDir()
}

// ReadFile returns the content of the file at path.
func (fs *FS) ReadFile(path, cwd string) (string, error) {
	n := fs.Resolve(path, cwd)
	if n == nil {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if n.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	return n.Content, nil
}

// WriteFile overwrites (or creates) the file at path. Writing through
// a symlink updates the link target; writing over a directory fails.
func (fs *FS) WriteFile(path, cwd, content string) error {
	abs := ResolvePath(path, cwd)
	if existing := fs.Resolve(abs, "/"); existing != nil {
		if existing.IsDir() {
			return fmt.Errorf("%s: %w", path, ErrIsDirectory)
		}
		existing.Content = content
		existing.Modified = time.Now()
		return nil
	}
	parent, err := fs.parentDir(abs)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	parent.addChild(NewFile(baseName(abs), content))
	return nil
}

// AppendFile appends to the file at path, creating it if absent.
func (fs *FS) AppendFile(path, cwd, content string) error {
	abs := ResolvePath(path, cwd)
	if existing := fs.Resolve(abs, "/"); existing != nil {
		if existing.IsDir() {
			return fmt.Errorf("%s: %w", path, ErrIsDirectory)
		}
		existing.Content += content
		existing.Modified = time.Now()
		return nil
	}
	return fs.WriteFile(abs, "/", content)
}

// Touch creates an empty file at path or refreshes its timestamp.
func (fs *FS) Touch(path, cwd string) error {
	abs := ResolvePath(path, cwd)
	if existing := fs.Resolve(abs, "/"); existing != nil {
		existing.Modified = time.Now()
		return nil
	}
	return fs.WriteFile(abs, "/", "")
}

// Mkdir creates a directory. Without recursive it fails when the
// parent is missing or the name is taken; with recursive it succeeds
// iff every existing prefix is a directory (and is idempotent).
func (fs *FS) Mkdir(path, cwd string, recursive bool) error {
	abs := ResolvePath(path, cwd)
	if abs == "/" {
		if recursive {
			return nil
		}
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if !recursive {
		if fs.Exists(abs, "/") {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		parent, err := fs.parentDir(abs)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		parent.addChild(NewDir(baseName(abs)))
		return nil
	}
	cur := fs.root
	for _, part := range splitPath(abs) {
		child := cur.Child(part)
		if child == nil {
			child = NewDir(part)
			cur.addChild(child)
		} else if !child.IsDir() {
			return fmt.Errorf("%s: %w", path, ErrNotDirectory)
		}
		cur = child
	}
	return nil
}

// Remove deletes the node at path. Symlinks are removed themselves,
// not their targets. Directories require recursive; the root is never
// removable.
func (fs *FS) Remove(path, cwd string, recursive bool) error {
	abs := ResolvePath(path, cwd)
	if abs == "/" {
		return ErrIsRoot
	}
	node := fs.Lstat(abs, "/")
	if node == nil {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if node.IsDir() && !recursive {
		return fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	parent, err := fs.parentDir(abs)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	parent.removeChild(baseName(abs))
	return nil
}

// ListDir returns the children of the directory at path in
// lexicographic order.
func (fs *FS) ListDir(path, cwd string) ([]*Node, error) {
	n := fs.Resolve(path, cwd)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if !n.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return n.Children(), nil
}

// Copy duplicates src at dst. Copying a directory requires recursive.
// When dst is an existing directory the source is copied into it.
func (fs *FS) Copy(src, dst, cwd string, recursive bool) error {
	srcNode := fs.Resolve(src, cwd)
	if srcNode == nil {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	if srcNode.IsDir() && !recursive {
		return fmt.Errorf("%s: %w", src, ErrIsDirectory)
	}
	dstAbs := ResolvePath(dst, cwd)
	name := baseName(dstAbs)
	parentAbs := parentPath(dstAbs)
	if existing := fs.Resolve(dstAbs, "/"); existing != nil && existing.IsDir() {
		parentAbs = dstAbs
		name = srcNode.Name
	}
	hops := 0
	parent, _, err := fs.resolveAbs(parentAbs, &hops, true)
	if err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}
	if !parent.IsDir() {
		return fmt.Errorf("%s: %w", dst, ErrNotDirectory)
	}
	cloned := srcNode.clone()
	cloned.Name = name
	parent.addChild(cloned)
	return nil
}

// Move renames src to dst. Like Copy, an existing directory dst
// receives the source as a child.
func (fs *FS) Move(src, dst, cwd string) error {
	srcNode := fs.Lstat(src, cwd)
	if srcNode == nil {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	if err := fs.Copy(src, dst, cwd, true); err != nil {
		return err
	}
	return fs.Remove(src, cwd, true)
}

// Symlink creates a link node at path pointing at target.
func (fs *FS) Symlink(target, path, cwd string) error {
	abs := ResolvePath(path, cwd)
	parent, err := fs.parentDir(abs)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	parent.addChild(NewSymlink(baseName(abs), target))
	return nil
}

// parentDir resolves the containing directory of an absolute path.
func (fs *FS) parentDir(abs string) (*Node, error) {
	hops := 0
	parent, _, err := fs.resolveAbs(parentPath(abs), &hops, true)
	if err != nil {
		return nil, err
	}
	if !parent.IsDir() {
		return nil, ErrNotDirectory
	}
	return parent, nil
}

// ErrorText strips the "vfs: " prefix for user-facing command output,
// leaving the conventional shell phrasing.
func ErrorText(err error) string {
	return strings.ReplaceAll(err.Error(), "vfs: ", "")
}
