// Package engine provides the overlay composition logic of overlaygen.
//
// The engine package is the orchestration layer between callers (the CLI or
// an embedding host) and the lower-level packages. It copies a base tree into
// a working tree, strips the manifest override field, and applies overlay
// resources by whole-file copy or by entry-list merge.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Apply: Builds a working tree from a base tree and overlays
//   - MergeEntryList: Merges one entry-list overlay into a file
//   - Verify: Reads back nominated files and reports missing markers
//   - Diff: Compares a working tree against its base tree
//
// An Engine holds no per-call state. Each Apply owns its destination tree;
// callers must not run two calls against the same destination concurrently.
package engine

import (
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/danieljhkim/overlaygen/internal/clock"
	"github.com/danieljhkim/overlaygen/internal/fsops"
	"github.com/danieljhkim/overlaygen/internal/hash"
	"github.com/danieljhkim/overlaygen/internal/logging"
)

// Engine orchestrates all overlaygen operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs       fsops.FS
	hasher   hash.Hasher
	clock    clock.Clock
	logger   *slog.Logger
	workRoot string
}

// New creates a new Engine with the given dependencies. workRoot is the
// directory under which working trees are allocated when a request leaves
// its destination empty.
func New(
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	logger *slog.Logger,
	workRoot string,
) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		fs:       fs,
		hasher:   hasher,
		clock:    clk,
		logger:   logger,
		workRoot: workRoot,
	}
}

// resolveDestination returns dest, or a fresh directory under the work root.
func (e *Engine) resolveDestination(dest string) string {
	if dest != "" {
		return dest
	}
	return filepath.Join(e.workRoot, "overlay-"+uuid.NewString())
}
