package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/overlaygen/internal/engine"
)

var (
	diffBase        string
	diffBaseArchive string
	diffPatch       bool
	diffNameOnly    bool
	diffNameStatus  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <working-tree>",
	Short: "Show differences between a working tree and its base tree",
	Long:  `Display which files the overlays modified, added, or removed compared to the base tree.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if diffBase == "" {
			return fmt.Errorf("%w: --base is required", engine.ErrValidation)
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		baseFS, closeBase, err := openBase(diffBaseArchive)
		if err != nil {
			return err
		}
		defer func() {
			_ = closeBase()
		}()

		req := &engine.DiffRequest{
			BasePath:    archiveRoot(diffBaseArchive, diffBase),
			BaseFS:      baseFS,
			WorkDir:     args[0],
			ShowContent: diffPatch || (!diffNameOnly && !diffNameStatus),
		}

		result, err := eng.Diff(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		return formatDiffOutput(result)
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffBase, "base", "", "Base tree directory (inside the archive with --base-archive)")
	diffCmd.Flags().StringVar(&diffBaseArchive, "base-archive", "", "Zip archive holding the base tree")
	diffCmd.Flags().BoolVarP(&diffPatch, "patch", "p", false, "Show unified diff content")
	diffCmd.Flags().BoolVar(&diffNameOnly, "name-only", false, "Show only file names")
	diffCmd.Flags().BoolVar(&diffNameStatus, "name-status", false, "Show file names with status")
}

// formatDiffOutput formats the diff result for display.
func formatDiffOutput(result *engine.DiffResult) error {
	// Handle special output formats
	if diffNameOnly {
		return formatNameOnly(result)
	}

	if diffNameStatus {
		return formatNameStatus(result)
	}

	// Default format
	return formatDefaultDiff(result)
}

// formatNameOnly outputs only filenames (no status indicators).
func formatNameOnly(result *engine.DiffResult) error {
	for _, file := range changedFiles(result) {
		fmt.Println(file.Path)
	}
	return nil
}

// formatNameStatus outputs filenames with status indicators (M, A, D).
func formatNameStatus(result *engine.DiffResult) error {
	for _, file := range changedFiles(result) {
		statusChar := getStatusChar(file.Status)
		switch file.Status {
		case engine.StatusAdded:
			_, _ = successColor.Printf("%s\t%s\n", statusChar, file.Path)
		case engine.StatusRemoved:
			_, _ = errorColor.Printf("%s\t%s\n", statusChar, file.Path)
		case engine.StatusModified:
			_, _ = warningColor.Printf("%s\t%s\n", statusChar, file.Path)
		default:
			fmt.Printf("%s\t%s\n", statusChar, file.Path)
		}
	}
	return nil
}

// formatDefaultDiff outputs a git-like unified patch plus a change summary.
func formatDefaultDiff(result *engine.DiffResult) error {
	files := changedFiles(result)
	if len(files) == 0 {
		PrintEmptyState("No changes detected")
		return nil
	}

	fmt.Println()
	_, _ = dimColor.Printf("  base: ")
	_, _ = infoColor.Printf("%s", result.BasePath)
	_, _ = dimColor.Printf("  work: ")
	_, _ = infoColor.Printf("%s\n", result.WorkDir)

	insertions := 0
	deletions := 0

	for _, file := range files {
		fmt.Println()
		printDiffFileHeader(file)

		if file.UnifiedDiff != "" {
			printUnifiedDiff(file.UnifiedDiff)
		}

		insertions += file.Additions
		deletions += file.Deletions
	}

	// Color-coded summary line
	fmt.Println()
	_, _ = dimColor.Print("  ")
	fmt.Printf("%d file%s changed", len(files), plural(len(files)))
	if insertions > 0 {
		_, _ = successColor.Printf(", %d insertion%s(+)", insertions, plural(insertions))
	}
	if deletions > 0 {
		_, _ = errorColor.Printf(", %d deletion%s(-)", deletions, plural(deletions))
	}
	fmt.Println()

	return nil
}

func changedFiles(result *engine.DiffResult) []engine.DiffFileInfo {
	files := make([]engine.DiffFileInfo, 0, len(result.Files))
	for _, file := range result.Files {
		if file.Status != engine.StatusUnchanged {
			files = append(files, file)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// getStatusChar returns the single-character status indicator.
func getStatusChar(status string) string {
	switch status {
	case engine.StatusModified:
		return "M"
	case engine.StatusAdded:
		return "A"
	case engine.StatusRemoved:
		return "D"
	case engine.StatusUnchanged:
		return "U"
	default:
		return "?"
	}
}

func plural(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

func printDiffFileHeader(file engine.DiffFileInfo) {
	statusChar := getStatusChar(file.Status)
	statusClr := dimColor
	switch file.Status {
	case engine.StatusAdded:
		statusClr = successColor
	case engine.StatusRemoved:
		statusClr = errorColor
	case engine.StatusModified:
		statusClr = warningColor
	}

	// Status badge + file path + stats
	_, _ = statusClr.Printf("  %s ", statusChar)
	_, _ = headerColor.Printf("%s", file.Path)

	// Insertion/deletion counts, colored individually
	if file.Additions > 0 {
		_, _ = successColor.Printf("  +%d", file.Additions)
	}
	if file.Deletions > 0 {
		_, _ = errorColor.Printf("  -%d", file.Deletions)
	}
	fmt.Println()

	// Thin separator under the file header
	_, _ = dimColor.Println("  " + strings.Repeat("─", 50))
}

func printUnifiedDiff(diffText string) {
	lines := strings.Split(diffText, "\n")
	for i, line := range lines {

		if i == len(lines)-1 && line == "" {
			continue
		}

		switch {
		// Header lines are already shown in the file header
		case strings.HasPrefix(line, "diff --git "),
			strings.HasPrefix(line, "+++ "),
			strings.HasPrefix(line, "--- "):
			continue
		case strings.HasPrefix(line, "@@"):
			_, _ = infoColor.Printf("  %s\n", line)
		case strings.HasPrefix(line, "+"):
			_, _ = successColor.Printf("  %s\n", line)
		case strings.HasPrefix(line, "-"):
			_, _ = errorColor.Printf("  %s\n", line)
		default:
			fmt.Printf("  %s\n", line)
		}
	}
}
