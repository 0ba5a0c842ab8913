// Package resource locates overlay bytes by identifier.
//
// Identifiers are forward-slash strings such as
// "Server/World/Default/Zones/Zone1_Tier1/Cave/Ores/Entry.node.json". The
// engine only depends on the Loader interface; the implementations here read
// through afero, so plain directories, zip bundles, in-memory trees and
// embedded io/fs trees share one backing abstraction with the base tree.
package resource

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"
)

// ErrNotFound indicates an identifier has no backing bytes.
var ErrNotFound = errors.New("resource not found")

// Loader loads overlay bytes by identifier.
// Implementations must be safe for repeated sequential reads.
type Loader interface {
	// Load returns the bytes for id, or an error wrapping ErrNotFound.
	Load(id string) ([]byte, error)
}

// FSLoader implements Loader over an afero filesystem rooted at the
// resource namespace.
type FSLoader struct {
	fs afero.Fs
}

// NewFSLoader creates a Loader reading from backing.
func NewFSLoader(backing afero.Fs) *FSLoader {
	return &FSLoader{fs: backing}
}

// NewIOFSLoader creates a Loader over an io/fs tree such as an embed.FS.
func NewIOFSLoader(fsys fs.FS) *FSLoader {
	return NewFSLoader(afero.FromIOFS{FS: fsys})
}

// NewDirLoader creates a Loader reading from a directory on disk.
func NewDirLoader(dir string) *FSLoader {
	return NewFSLoader(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir)))
}

// Load reads id from the underlying filesystem.
func (l *FSLoader) Load(id string) ([]byte, error) {
	name := strings.TrimPrefix(id, "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("%w: invalid identifier %q", ErrNotFound, id)
	}

	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read resource %s: %w", id, err)
	}
	return data, nil
}

// ArchiveLoader is a Loader reading from a zip bundle on disk.
type ArchiveLoader struct {
	*FSLoader
	rc *zip.ReadCloser
}

// OpenArchive opens a zip (or jar) bundle as a Loader.
// The caller must Close it.
func OpenArchive(path string) (*ArchiveLoader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return &ArchiveLoader{FSLoader: NewFSLoader(zipfs.New(&rc.Reader)), rc: rc}, nil
}

// Close releases the archive.
func (l *ArchiveLoader) Close() error {
	return l.rc.Close()
}

// Chain returns a Loader that consults each loader in order and returns the
// first hit. Errors other than ErrNotFound stop the search.
func Chain(loaders ...Loader) Loader {
	return chain(loaders)
}

type chain []Loader

func (c chain) Load(id string) ([]byte, error) {
	for _, l := range c {
		data, err := l.Load(id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Open returns a Loader for path, which may be a directory or a zip bundle.
// The returned close function is never nil.
func Open(path string) (Loader, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat resources %s: %w", path, err)
	}
	if info.IsDir() {
		return NewDirLoader(path), func() error { return nil }, nil
	}
	al, err := OpenArchive(path)
	if err != nil {
		return nil, nil, err
	}
	return al, al.Close, nil
}
