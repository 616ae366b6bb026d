// Package fsys is the filesystem capability consumed by the linker.
//
// Every path handled here is project relative and slash separated. The
// underlying storage is a go-billy filesystem: osfs rooted at the project for
// real runs, memfs for tests and for the dry run done by `jopilink check`.
package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/conneroisu/jopilink/internal/types"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FS wraps a billy filesystem with the small set of operations the linker needs.
type FS struct {
	bfs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *FS {
	return &FS{bfs: bfs}
}

// NewOS returns a filesystem rooted at the given project directory.
func NewOS(root string) *FS {
	return New(osfs.New(root))
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return New(memfs.New())
}

// Billy exposes the underlying filesystem.
func (f *FS) Billy() billy.Filesystem {
	return f.bfs
}

// Abs returns the host path of p. Only meaningful for osfs backed instances.
func (f *FS) Abs(p string) string {
	return filepath.Join(f.bfs.Root(), filepath.FromSlash(p))
}

// ListDir returns the entries of dir sorted by name.
func (f *FS) ListDir(dir string) ([]types.DirItem, error) {
	infos, err := f.bfs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	items := make([]types.DirItem, 0, len(infos))
	for _, info := range infos {
		items = append(items, types.DirItem{
			Name:     info.Name(),
			FullPath: path.Join(dir, info.Name()),
			IsDir:    info.IsDir(),
			IsFile:   info.Mode().IsRegular(),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	return items, nil
}

// ReadText reads a whole file.
func (f *FS) ReadText(p string) (string, error) {
	data, err := util.ReadFile(f.bfs, p)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}

	return string(data), nil
}

// WriteText writes content to p, creating parent directories as needed.
func (f *FS) WriteText(p, content string) error {
	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := f.bfs.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := util.WriteFile(f.bfs, p, []byte(content), filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}

	return nil
}

// Exists reports whether p exists.
func (f *FS) Exists(p string) bool {
	_, err := f.bfs.Stat(p)
	return err == nil
}

// IsDir reports whether p is a directory.
func (f *FS) IsDir(p string) bool {
	info, err := f.bfs.Stat(p)
	return err == nil && info.IsDir()
}

// IsFile reports whether p is a regular file.
func (f *FS) IsFile(p string) bool {
	info, err := f.bfs.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Rename moves a file or a directory.
func (f *FS) Rename(from, to string) error {
	if err := f.bfs.Rename(from, to); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", from, to, err)
	}

	return nil
}

// RemoveAll deletes p and everything below it. A missing path is not an error.
func (f *FS) RemoveAll(p string) error {
	if err := util.RemoveAll(f.bfs, p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", p, err)
	}

	return nil
}

// Files returns every regular file below root, sorted. A missing root yields
// an empty result.
func (f *FS) Files(root string) ([]string, error) {
	if !f.IsDir(root) {
		return nil, nil
	}

	var files []string
	err := util.Walk(f.bfs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)

	return files, nil
}

// Rel returns target relative to base, slash separated.
func Rel(base, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(base), filepath.FromSlash(target))
	if err != nil {
		return target
	}

	return filepath.ToSlash(rel)
}

// CleanRelative validates a configured project-relative path. Absolute paths
// and paths escaping the project are rejected.
func CleanRelative(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}

	cleanPath := path.Clean(filepath.ToSlash(p))

	if path.IsAbs(cleanPath) || filepath.IsAbs(p) {
		return "", fmt.Errorf("path %s must be relative to the project root", p)
	}

	if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
		return "", fmt.Errorf("path contains directory traversal: %s", p)
	}

	return cleanPath, nil
}
