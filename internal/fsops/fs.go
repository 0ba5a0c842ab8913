// Package fsops provides filesystem operations for building working trees.
//
// All writes performed by overlaygen go through the FS interface, which is
// backed by an afero.Fs so the same code runs against the OS, an in-memory
// tree in tests, or a read-only base. Reads of a base tree may come from a
// different afero backing entirely (see CopyTree).
//
// Key features:
//   - Atomic writes using temp file + rename
//   - Recursive tree copy across storage backings
//   - Path validation for relative paths and identifiers
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FS provides an abstraction for filesystem operations on a working tree.
type FS interface {
	// Backing returns the afero filesystem the operations run against.
	Backing() afero.Fs

	// Stat returns file info for path.
	Stat(path string) (os.FileInfo, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// ValidateRelPath validates a relative path for safety.
	ValidateRelPath(relPath string) error

	// ValidateIdentifier validates an identifier for safety.
	ValidateIdentifier(id string) error
}

// RealFS implements FS on top of an afero.Fs.
type RealFS struct {
	fs afero.Fs
}

// NewRealFS creates a RealFS backed by the operating system.
func NewRealFS() *RealFS {
	return &RealFS{fs: afero.NewOsFs()}
}

// NewFS creates a RealFS backed by the given afero filesystem.
func NewFS(backing afero.Fs) *RealFS {
	return &RealFS{fs: backing}
}

// Backing returns the underlying afero filesystem.
func (fs *RealFS) Backing() afero.Fs {
	return fs.fs
}

// Stat returns file info for path.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return fs.fs.Stat(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return fs.fs.MkdirAll(path, perm)
}

// RemoveAll removes a path and all its contents.
func (fs *RealFS) RemoveAll(path string) error {
	return fs.fs.RemoveAll(path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Create temp file in the same directory as target
	tmpFile, err := afero.TempFile(fs.fs, dir, ".overlaygen-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = fs.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fs.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := fs.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Success - don't clean up temp file
	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(fs.fs, path)
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := fs.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ValidateRelPath validates a slash-separated relative path for safety.
// Returns an error if the path is invalid or escapes its root.
func (fs *RealFS) ValidateRelPath(relPath string) error {
	cleaned := path.Clean(filepath.ToSlash(relPath))

	if relPath == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}
	if path.IsAbs(cleaned) || filepath.IsAbs(relPath) {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", relPath)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", relPath)
	}

	return nil
}

// ValidateIdentifier validates an identifier (e.g., a generator name) for safety.
// Returns an error if the identifier contains path separators or traversal.
func (fs *RealFS) ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, filepath.Separator) {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}
	if id == "." || id == ".." || strings.HasPrefix(id, "..") {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}

// CopyTree recursively copies srcRoot on the src backing into dstRoot on dst,
// creating dstRoot and overwriting any file already present there.
//
// The two sides may live on different backings (a zip archive, a read-only
// bundle, memory, the OS), so destination paths are rebuilt from the
// relative path's components rather than from source path strings.
func CopyTree(src afero.Fs, srcRoot string, dst FS, dstRoot string) error {
	root := filepath.Clean(srcRoot)
	info, err := src.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat source tree %s: %w", srcRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source tree %s is not a directory", srcRoot)
	}

	if err := dst.MkdirAll(dstRoot, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	return afero.Walk(src, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", p, err)
		}

		parts, err := relParts(root, p)
		if err != nil {
			return err
		}
		if len(parts) == 0 {
			return nil
		}
		target := filepath.Join(append([]string{dstRoot}, parts...)...)

		if info.IsDir() {
			if err := dst.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			return nil
		}
		return copyFile(src, p, dst.Backing(), target, info.Mode().Perm())
	})
}

// relParts returns the components of p below root, split on both the slash
// and the host separator.
func relParts(root, p string) ([]string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return nil, fmt.Errorf("failed to relate %s to %s: %w", p, root, err)
	}
	if rel == "." {
		return nil, nil
	}
	return strings.FieldsFunc(rel, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}), nil
}

// copyFile copies a single file between backings.
func copyFile(src afero.Fs, srcPath string, dst afero.Fs, dstPath string, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}

	srcFile, err := src.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", srcPath, err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := dst.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	dstFile, err := dst.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination %s: %w", dstPath, err)
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return dstFile.Sync()
}
