package engine

import (
	"time"

	"github.com/danieljhkim/overlaygen/internal/planner"
)

// Outcome of a single overlay item.
const (
	OutcomeMerged     = "merged"
	OutcomeUnchanged  = "unchanged"
	OutcomeCopied     = "copied"
	OutcomeNotApplied = "not_applied"
	OutcomeFailed     = "failed"
)

// ApplyResult represents the result of building a working tree.
type ApplyResult struct {
	// Destination is the working tree root
	Destination string

	// Plan is the generated plan
	Plan *planner.OverlayPlan

	// Merged counts entry lists that gained at least one entry
	Merged int

	// Unchanged counts entry lists merged without new entries
	Unchanged int

	// Copied counts files written verbatim
	Copied int

	// Skipped counts identifiers outside the generator prefix
	Skipped int

	// NotApplied counts items whose overlay was missing or unusable
	NotApplied int

	// Failed counts the NotApplied items abandoned on an error
	Failed int

	// Items holds one result per planned operation (empty if DryRun)
	Items []ItemResult

	// Verification is the read-back report, when requested
	Verification *Verification

	// Duration is the wall time of the call
	Duration time.Duration
}

// ItemResult describes what happened to one overlay item.
type ItemResult struct {
	Identifier string
	RelPath    string
	Outcome    string

	// Added lists entry keys inserted by a merge
	Added []string

	// Checksum is the SHA-256 of the written file
	Checksum string

	// Error is set for not_applied and failed outcomes
	Error error
}

func (r *ApplyResult) record(item ItemResult) {
	switch item.Outcome {
	case OutcomeMerged:
		r.Merged++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeCopied:
		r.Copied++
	case OutcomeNotApplied:
		r.NotApplied++
	case OutcomeFailed:
		r.NotApplied++
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// Verification is the report produced by Verify.
type Verification struct {
	// Passed is true when every check passed
	Passed bool

	Checks []Check
}

// Check is the read-back result for one file.
type Check struct {
	Path    string
	Exists  bool
	Missing []string
}

// OK reports whether the file exists and contains every marker.
func (c Check) OK() bool {
	return c.Exists && len(c.Missing) == 0
}

// DiffResult represents the result of a diff operation.
type DiffResult struct {
	BasePath string
	WorkDir  string
	Files    []DiffFileInfo
}

// Count returns the number of files with the given status.
func (r *DiffResult) Count(status string) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Diff statuses.
const (
	StatusAdded     = "added"
	StatusModified  = "modified"
	StatusRemoved   = "removed"
	StatusUnchanged = "unchanged"
)

// DiffFileInfo contains information about a single diffed file.
type DiffFileInfo struct {
	// Path is the slash-separated path relative to the tree roots
	Path string

	// Status is the diff status: "modified", "added", "removed", "unchanged"
	Status string

	// BaseHash is the hash of the file in the base tree (empty if doesn't exist)
	BaseHash string

	// WorkHash is the hash of the file in the working tree (empty if doesn't exist)
	WorkHash string

	// UnifiedDiff contains the unified diff content (if ShowContent is true)
	UnifiedDiff string

	// Additions is the number of added lines in the diff
	Additions int

	// Deletions is the number of removed lines in the diff
	Deletions int
}
