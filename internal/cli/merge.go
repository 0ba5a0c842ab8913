package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var mergePrefixes []string

var mergeCmd = &cobra.Command{
	Use:   "merge <entry-list> <overlay>",
	Short: "Merge one overlay entry list into an entry-list file",
	Long: `Prepend the overlay's eligible entries to the entry-list file.

An entry is eligible when its key (Node[0]) starts with one of the merge
prefixes and is not already present. The file is created from the default
scaffold when it does not exist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(mergePrefixes) == 0 {
			return fmt.Errorf("at least one --merge-prefix is required")
		}

		overlay, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read overlay: %w", err)
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		added, err := eng.MergeEntryList(args[0], overlay, mergePrefixes)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{"path": args[0], "added": added})
		}
		PrintSuccess(fmt.Sprintf("Merged %s into %s", PrintCount(added, "entry", "entries"), args[0]))
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringSliceVar(&mergePrefixes, "merge-prefix", nil, "Entry key prefix eligible for merging (repeatable)")
}
