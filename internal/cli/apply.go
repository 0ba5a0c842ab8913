package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/overlaygen/internal/config"
	"github.com/danieljhkim/overlaygen/internal/engine"
	"github.com/danieljhkim/overlaygen/internal/resource"
)

var (
	applyFlags  requestFlags
	applyDryRun bool
	planFlags   requestFlags
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Build a working tree from a base tree and overlays",
	Long: `Copy the base tree into a working tree and apply every overlay.

Overlay identifiers look like Server/World/<generator>/<path>. Entry-list
files are merged when merge prefixes are given; every other overlay replaces
the file at <path>. Identifiers for another generator are skipped.

The working tree path is printed on success. Missing or malformed overlays
are reported but do not fail the command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runApply(cmd, &applyFlags, applyDryRun)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(newApplyReport(result, applyDryRun))
		}
		if applyDryRun {
			printPlan(result)
			return nil
		}
		printApplyResult(result)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which overlays would be merged, copied or skipped",
	Long:  `Build the overlay plan for a request without touching the filesystem.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runApply(cmd, &planFlags, true)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(newApplyReport(result, true))
		}
		printPlan(result)
		return nil
	},
}

func init() {
	applyFlags.register(applyCmd)
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show what would be applied without applying")
	planFlags.register(planCmd)
}

func runApply(cmd *cobra.Command, flags *requestFlags, dryRun bool) (*engine.ApplyResult, error) {
	req, err := flags.load(cmd)
	if err != nil {
		return nil, err
	}

	eng, err := newEngine()
	if err != nil {
		return nil, err
	}

	loader, closeLoader, err := resource.Open(req.Resources)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = closeLoader()
	}()

	baseFS, closeBase, err := openBase(req.BaseArchive)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = closeBase()
	}()

	return eng.Apply(context.Background(), buildApplyRequest(req, baseFS, loader, dryRun))
}

func buildApplyRequest(req *config.Request, baseFS afero.Fs, loader resource.Loader, dryRun bool) *engine.ApplyRequest {
	return &engine.ApplyRequest{
		BasePath:         archiveRoot(req.BaseArchive, req.BasePath),
		BaseFS:           baseFS,
		GeneratorName:    req.Generator,
		Destination:      req.Destination,
		Loader:           loader,
		Identifiers:      req.OverlayIdentifiers(),
		MergeKeyPrefixes: req.MergePrefixes,
		EntryListPattern: req.EntryListPattern,
		Verify:           verifyRequest(req.Verify),
		DryRun:           dryRun,
	}
}

// applyReport is the JSON form of an apply result.
type applyReport struct {
	Destination  string               `json:"destination"`
	DryRun       bool                 `json:"dry_run,omitempty"`
	Merged       int                  `json:"merged"`
	Unchanged    int                  `json:"unchanged"`
	Copied       int                  `json:"copied"`
	Skipped      int                  `json:"skipped"`
	NotApplied   int                  `json:"not_applied"`
	Failed       int                  `json:"failed"`
	Operations   []operationReport    `json:"operations"`
	Skips        []skipReport         `json:"skips"`
	Items        []itemReport         `json:"items"`
	Verification *engine.Verification `json:"verification,omitempty"`
	DurationMS   int64                `json:"duration_ms"`
}

type operationReport struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	RelPath    string `json:"rel_path"`
}

type skipReport struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

type itemReport struct {
	Identifier string   `json:"identifier"`
	RelPath    string   `json:"rel_path"`
	Outcome    string   `json:"outcome"`
	Added      []string `json:"added,omitempty"`
	Checksum   string   `json:"checksum,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newApplyReport(result *engine.ApplyResult, dryRun bool) applyReport {
	report := applyReport{
		Destination:  result.Destination,
		DryRun:       dryRun,
		Merged:       result.Merged,
		Unchanged:    result.Unchanged,
		Copied:       result.Copied,
		Skipped:      result.Skipped,
		NotApplied:   result.NotApplied,
		Failed:       result.Failed,
		Operations:   []operationReport{},
		Skips:        []skipReport{},
		Items:        []itemReport{},
		Verification: result.Verification,
		DurationMS:   result.Duration.Milliseconds(),
	}
	for _, op := range result.Plan.Operations {
		report.Operations = append(report.Operations, operationReport{Type: op.Type, Identifier: op.Identifier, RelPath: op.RelPath})
	}
	for _, s := range result.Plan.Skipped {
		report.Skips = append(report.Skips, skipReport{Identifier: s.Identifier, Reason: s.Reason})
	}
	for _, item := range result.Items {
		report.Items = append(report.Items, itemReport{
			Identifier: item.Identifier,
			RelPath:    item.RelPath,
			Outcome:    item.Outcome,
			Added:      item.Added,
			Checksum:   item.Checksum,
			Error:      errString(item.Error),
		})
	}
	return report
}

func printPlan(result *engine.ApplyResult) {
	PrintSection("Overlay Plan")
	PrintLabelValue("Generator", result.Plan.Generator)
	PrintLabelValue("Destination", result.Destination)
	PrintInfo(fmt.Sprintf("Would apply %s", PrintCount(len(result.Plan.Operations), "operation", "operations")))

	if len(result.Plan.Operations) > 0 {
		PrintSubsection("Operations:")
		ops := make([]string, 0, len(result.Plan.Operations))
		for _, op := range result.Plan.Operations {
			ops = append(ops, fmt.Sprintf("%s: %s", op.Type, op.RelPath))
		}
		PrintList(ops, 1)
	}
	printSkips(result)
}

func printApplyResult(result *engine.ApplyResult) {
	PrintSuccess(fmt.Sprintf("Working tree ready: %s", result.Destination))
	PrintLabelValue("Merged", fmt.Sprint(result.Merged))
	PrintLabelValue("Copied", fmt.Sprint(result.Copied))
	PrintLabelValue("Skipped", fmt.Sprint(result.Skipped))
	PrintLabelValue("Not applied", fmt.Sprint(result.NotApplied))

	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		detail := strings.Join(item.Added, ", ")
		if item.Error != nil {
			detail = item.Error.Error()
		}
		rows = append(rows, []string{item.Outcome, item.RelPath, detail})
	}
	if len(rows) > 0 {
		fmt.Println()
		PrintTable([]string{"OUTCOME", "PATH", "DETAIL"}, rows)
	}

	printSkips(result)

	if v := result.Verification; v != nil {
		fmt.Println()
		if v.Passed {
			PrintSuccess("Verification passed")
		} else {
			for _, c := range v.Checks {
				if !c.OK() {
					PrintWarning(fmt.Sprintf("Verification: %s exists=%t missing=%v", c.Path, c.Exists, c.Missing))
				}
			}
		}
	}
}

func printSkips(result *engine.ApplyResult) {
	if len(result.Plan.Skipped) == 0 {
		return
	}
	PrintSubsection("Skipped:")
	skips := make([]string, 0, len(result.Plan.Skipped))
	for _, s := range result.Plan.Skipped {
		skips = append(skips, fmt.Sprintf("%s (%s)", s.Identifier, s.Reason))
	}
	PrintList(skips, 1)
}
