package engine

import (
	"github.com/spf13/afero"

	"github.com/danieljhkim/overlaygen/internal/planner"
	"github.com/danieljhkim/overlaygen/internal/resource"
)

const (
	// DefaultEntryListPattern selects the files merged instead of overwritten.
	DefaultEntryListPattern = planner.DefaultEntryListPattern

	// DefaultManifest is the top-level manifest of a generator tree.
	DefaultManifest = "World.json"

	// DefaultStripField is the manifest field pointing generation elsewhere.
	DefaultStripField = "OverrideDataFolder"
)

// ApplyRequest represents a request to build a working tree.
type ApplyRequest struct {
	// BasePath is the root of the base tree on BaseFS
	BasePath string

	// BaseFS is the backing the base tree lives on (default: the engine's
	// filesystem, read-only)
	BaseFS afero.Fs

	// GeneratorName selects the Server/World/<name>/ identifier prefix
	GeneratorName string

	// Destination is the working tree root (default: a fresh directory
	// under the engine's work root)
	Destination string

	// Loader resolves overlay identifiers to bytes
	Loader resource.Loader

	// Identifiers are the overlay resources to apply, in order
	Identifiers []string

	// MergeKeyPrefixes select the entry-list entries eligible for merging.
	// When empty, entry lists are copied like any other file.
	MergeKeyPrefixes []string

	// EntryListPattern is a doublestar pattern over destination-relative
	// paths (default: DefaultEntryListPattern)
	EntryListPattern string

	// Manifest is the manifest path relative to the working tree
	// (default: DefaultManifest)
	Manifest string

	// StripField is removed from the manifest (default: DefaultStripField)
	StripField string

	// Verify, when set, reads back nominated files after applying
	Verify *VerifyRequest

	// DryRun performs planning only without making changes
	DryRun bool
}

// VerifyRequest nominates files to read back from a working tree.
type VerifyRequest struct {
	// Root is the working tree (set by Apply to the destination)
	Root string

	// EntryList is a slash-separated entry-list path relative to Root
	EntryList string

	// EntryMarkers must all appear in the entry list
	EntryMarkers []string

	// Samples are further files expected to exist
	Samples []SampleCheck
}

// SampleCheck is a file expected to exist, optionally containing markers.
type SampleCheck struct {
	Path    string
	Markers []string
}

// DiffRequest represents a request to diff a working tree against its base.
type DiffRequest struct {
	// BasePath is the root of the base tree on BaseFS
	BasePath string

	// BaseFS is the backing of the base tree (default: the engine's
	// filesystem, read-only)
	BaseFS afero.Fs

	// WorkDir is the working tree on the engine's filesystem
	WorkDir string

	// ShowContent includes unified diffs for modified, added and removed files
	ShowContent bool
}

func (r *ApplyRequest) withDefaults() ApplyRequest {
	out := *r
	if out.EntryListPattern == "" {
		out.EntryListPattern = DefaultEntryListPattern
	}
	if out.Manifest == "" {
		out.Manifest = DefaultManifest
	}
	if out.StripField == "" {
		out.StripField = DefaultStripField
	}
	return out
}
