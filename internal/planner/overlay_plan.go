package planner

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ResourceRoot is the identifier namespace that holds generator overlays.
	ResourceRoot = "Server/World/"

	// DefaultEntryListPattern selects the files merged instead of overwritten.
	DefaultEntryListPattern = "**/Cave/Ores/Entry.node.json"
)

// ErrIdentifierMismatch indicates an identifier outside the generator prefix
// or one whose relative path escapes the working tree.
var ErrIdentifierMismatch = errors.New("identifier does not match generator")

// PathValidator validates relative paths before they are joined to the
// working tree.
type PathValidator interface {
	ValidateRelPath(relPath string) error
}

// PlanRequest holds the inputs of BuildOverlayPlan.
type PlanRequest struct {
	Generator        string
	Destination      string
	Identifiers      []string
	MergePrefixes    []string
	EntryListPattern string
}

// IdentifierPrefix returns the identifier prefix of a generator's overlays.
func IdentifierPrefix(generator string) string {
	return ResourceRoot + generator + "/"
}

// BuildOverlayPlan generates a deterministic plan to apply overlays.
//
// Identifiers keep their input order. An identifier whose relative path
// matches the entry-list pattern becomes a merge, but only when merge
// prefixes are configured; everything else is a whole-file copy.
func BuildOverlayPlan(req PlanRequest, validator PathValidator) (*OverlayPlan, error) {
	if req.EntryListPattern != "" && !doublestar.ValidatePattern(req.EntryListPattern) {
		return nil, fmt.Errorf("invalid entry list pattern %q", req.EntryListPattern)
	}

	prefix := IdentifierPrefix(req.Generator)
	plan := NewOverlayPlan(req.Generator, prefix, req.Destination)
	merging := len(req.MergePrefixes) > 0 && req.EntryListPattern != ""

	for _, id := range req.Identifiers {
		if !strings.HasPrefix(id, prefix) {
			plan.AddSkip(newSkip(id, fmt.Errorf("%w: outside prefix %s", ErrIdentifierMismatch, prefix)))
			continue
		}

		rel := strings.TrimPrefix(id, prefix)
		if err := validator.ValidateRelPath(rel); err != nil {
			plan.AddSkip(newSkip(id, fmt.Errorf("%w: %w", ErrIdentifierMismatch, err)))
			continue
		}
		rel = path.Clean(rel)

		op := Operation{
			Type:       OpCopy,
			Identifier: id,
			RelPath:    rel,
			DestPath:   filepath.Join(req.Destination, filepath.FromSlash(rel)),
		}
		if merging && isEntryList(req.EntryListPattern, rel) {
			op.Type = OpMerge
		}
		plan.AddOperation(op)
	}

	return plan, nil
}

func isEntryList(pattern, rel string) bool {
	matched, err := doublestar.Match(pattern, rel)
	return err == nil && matched
}

func newSkip(id string, err error) Skip {
	return Skip{Identifier: id, Reason: err.Error(), Err: err}
}
