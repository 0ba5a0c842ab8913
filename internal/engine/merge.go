package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/overlaygen/internal/document"
)

// MergeEntryList merges the eligible entries of overlay into the entry-list
// file at destPath and returns the number of inserted entries.
//
// A missing file is created from the scaffold document. The merged document
// is persisted atomically; nothing is written when overlay has no Children.
// Malformed documents fail with ErrMalformedDocument and leave the file
// untouched; read and write failures are ErrIOFailure.
func (e *Engine) MergeEntryList(destPath string, overlay []byte, prefixes []string) (int, error) {
	outcome, err := e.mergeFile(destPath, overlay, prefixes)
	if err != nil {
		return 0, err
	}
	return len(outcome.Added), nil
}

func (e *Engine) mergeFile(destPath string, overlay []byte, prefixes []string) (*document.MergeOutcome, error) {
	var existing []byte
	exists, err := e.fs.Exists(destPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check %s: %w", ErrIOFailure, destPath, err)
	}
	if exists {
		existing, err = e.fs.ReadFile(destPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIOFailure, destPath, err)
		}
	}

	outcome, err := document.MergeEntryList(existing, overlay, prefixes)
	if err != nil {
		if errors.Is(err, document.ErrMalformed) {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedDocument, destPath, err)
		}
		return nil, err
	}
	if outcome.Document == nil {
		return outcome, nil
	}

	if err := e.fs.AtomicWrite(destPath, outcome.Document, 0644); err != nil {
		return nil, fmt.Errorf("%w: failed to write %s: %w", ErrIOFailure, destPath, err)
	}
	if len(outcome.Added) > 0 {
		e.logger.Info("merged entry list", "path", destPath, "added", len(outcome.Added), "created", outcome.Created)
	}
	return outcome, nil
}
