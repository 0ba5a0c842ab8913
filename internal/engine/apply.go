package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/danieljhkim/overlaygen/internal/clock"
	"github.com/danieljhkim/overlaygen/internal/document"
	"github.com/danieljhkim/overlaygen/internal/fsops"
	"github.com/danieljhkim/overlaygen/internal/planner"
	"github.com/danieljhkim/overlaygen/internal/resource"
)

// Apply builds a working tree from a base tree and a set of overlays.
//
// Algorithm steps:
// 1. Validate the request and resolve the destination
// 2. Build the overlay plan (prefix check, merge-vs-copy decision)
// 3. Copy the base tree into the destination
// 4. Strip the override field from the manifest (best effort)
// 5. Execute operations in order
// 6. Verify nominated files (optional, never fails)
// 7. Return the destination and counts
//
// Missing or malformed overlays are reported per item and do not fail the
// call. Any ErrIOFailure aborts; the destination is then partially written
// and must be discarded by the caller. The base tree is only read.
// Concurrent calls must use distinct destinations.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResult, error) {
	start := e.clock.Now()

	if err := e.validateApply(req); err != nil {
		return nil, err
	}
	r := req.withDefaults()
	dest := e.resolveDestination(r.Destination)

	plan, err := planner.BuildOverlayPlan(planner.PlanRequest{
		Generator:        r.GeneratorName,
		Destination:      dest,
		Identifiers:      r.Identifiers,
		MergePrefixes:    r.MergeKeyPrefixes,
		EntryListPattern: r.EntryListPattern,
	}, e.fs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	result := &ApplyResult{
		Destination: dest,
		Plan:        plan,
		Skipped:     len(plan.Skipped),
		Items:       []ItemResult{},
	}
	for _, skip := range plan.Skipped {
		e.logger.Debug("skipped overlay", "identifier", skip.Identifier, "reason", skip.Reason)
	}

	if r.DryRun {
		result.Duration = clock.Since(e.clock, start)
		return result, nil
	}

	baseFS := r.BaseFS
	if baseFS == nil {
		baseFS = afero.NewReadOnlyFs(e.fs.Backing())
	}
	if err := fsops.CopyTree(baseFS, r.BasePath, e.fs, dest); err != nil {
		return nil, fmt.Errorf("%w: failed to copy base tree: %w", ErrIOFailure, err)
	}

	e.stripManifest(dest, r.Manifest, r.StripField)

	for _, op := range plan.Operations {
		item, err := e.applyOperation(r.Loader, op, r.MergeKeyPrefixes)
		if err != nil {
			return nil, err
		}
		result.record(item)
	}

	e.logger.Info("overlay applied",
		"destination", dest,
		"merged", result.Merged,
		"copied", result.Copied,
		"skipped", result.Skipped,
		"not_applied", result.NotApplied,
	)

	if r.Verify != nil {
		v := *r.Verify
		v.Root = dest
		result.Verification = e.Verify(v)
	}

	result.Duration = clock.Since(e.clock, start)
	return result, nil
}

func (e *Engine) validateApply(req *ApplyRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrValidation)
	}
	if req.BasePath == "" {
		return fmt.Errorf("%w: base path is required", ErrValidation)
	}
	if req.Loader == nil {
		return fmt.Errorf("%w: resource loader is required", ErrValidation)
	}
	if err := e.fs.ValidateIdentifier(req.GeneratorName); err != nil {
		return fmt.Errorf("%w: generator name: %w", ErrValidation, err)
	}
	return nil
}

// stripManifest removes field from the manifest. Failures are logged only.
func (e *Engine) stripManifest(dest, manifest, field string) {
	if err := e.fs.ValidateRelPath(manifest); err != nil {
		e.logger.Warn("could not strip manifest field", "manifest", manifest, "error", err)
		return
	}
	path := filepath.Join(dest, filepath.FromSlash(manifest))
	changed, err := document.StripField(e.fs, path, field)
	if err != nil {
		e.logger.Warn("could not strip manifest field", "manifest", manifest, "field", field, "error", err)
		return
	}
	if changed {
		e.logger.Debug("stripped manifest field", "manifest", manifest, "field", field)
	}
}

// applyOperation executes a single operation. Only ErrIOFailure is returned
// as an error; every other problem is recorded on the item.
func (e *Engine) applyOperation(loader resource.Loader, op planner.Operation, prefixes []string) (ItemResult, error) {
	item := ItemResult{Identifier: op.Identifier, RelPath: op.RelPath}

	data, err := loader.Load(op.Identifier)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			item.Outcome = OutcomeNotApplied
			item.Error = fmt.Errorf("%w: %s", ErrResourceNotFound, op.Identifier)
			e.logger.Warn("overlay resource not found", "identifier", op.Identifier)
			return item, nil
		}
		item.Outcome = OutcomeFailed
		item.Error = fmt.Errorf("failed to load %s: %w", op.Identifier, err)
		e.logger.Warn("could not load overlay", "identifier", op.Identifier, "error", err)
		return item, nil
	}

	switch op.Type {
	case planner.OpMerge:
		outcome, err := e.mergeFile(op.DestPath, data, prefixes)
		if err != nil {
			if errors.Is(err, ErrIOFailure) {
				return item, err
			}
			item.Outcome = OutcomeFailed
			item.Error = err
			e.logger.Warn("could not merge entry list", "identifier", op.Identifier, "error", err)
			return item, nil
		}
		item.Added = outcome.Added
		item.Outcome = OutcomeUnchanged
		if len(outcome.Added) > 0 {
			item.Outcome = OutcomeMerged
		}
		if outcome.Document == nil {
			return item, nil
		}

	case planner.OpCopy:
		if err := e.fs.AtomicWrite(op.DestPath, data, 0644); err != nil {
			return item, fmt.Errorf("%w: failed to write %s: %w", ErrIOFailure, op.DestPath, err)
		}
		item.Outcome = OutcomeCopied

	default:
		return item, fmt.Errorf("unknown operation type: %s", op.Type)
	}

	checksum, err := e.hasher.HashFile(op.DestPath)
	if err != nil {
		return item, fmt.Errorf("%w: failed to hash %s: %w", ErrIOFailure, op.DestPath, err)
	}
	item.Checksum = checksum
	return item, nil
}
