package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/overlaygen/internal/config"
	"github.com/danieljhkim/overlaygen/internal/engine"
)

var (
	verifyRequestFile string
	verifyEntryList   string
	verifyMarkers     []string
	verifySamples     []string
	verifyStrict      bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <working-tree>",
	Short: "Check that overlay content landed in a working tree",
	Long: `Read back nominated files from a working tree and check for markers.

Samples are given as PATH or PATH=MARKER[,MARKER...]. Checks can also come
from the verify section of a request file. Failed checks are reported as
warnings; use --strict to fail the command instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildVerifyRequest(args[0])
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		v := eng.Verify(*req)
		if jsonOutput {
			if err := outputJSON(v); err != nil {
				return err
			}
		} else {
			printVerification(v)
		}

		if verifyStrict && !v.Passed {
			return fmt.Errorf("verification failed")
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyRequestFile, "request", "r", "", "Request file whose verify section is used")
	verifyCmd.Flags().StringVar(&verifyEntryList, "entry-list", "", "Entry-list path relative to the working tree")
	verifyCmd.Flags().StringSliceVarP(&verifyMarkers, "marker", "m", nil, "Text expected in the entry list (repeatable)")
	verifyCmd.Flags().StringArrayVarP(&verifySamples, "sample", "s", nil, "Sample file as PATH or PATH=MARKER[,MARKER...] (repeatable)")
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "Exit with an error when a check fails")
}

func buildVerifyRequest(root string) (*engine.VerifyRequest, error) {
	req := &engine.VerifyRequest{}
	if verifyRequestFile != "" {
		loaded, err := config.LoadRequest(verifyRequestFile)
		if err != nil {
			return nil, err
		}
		if r := verifyRequest(loaded.Verify); r != nil {
			req = r
		}
	}

	req.Root = root
	if verifyEntryList != "" {
		req.EntryList = verifyEntryList
	}
	if len(verifyMarkers) > 0 {
		req.EntryMarkers = verifyMarkers
	}
	for _, s := range verifySamples {
		req.Samples = append(req.Samples, parseSample(s))
	}

	if req.EntryList == "" && len(req.Samples) == 0 {
		return nil, fmt.Errorf("%w: nothing to verify", engine.ErrValidation)
	}
	return req, nil
}

func parseSample(s string) engine.SampleCheck {
	path, markers, found := strings.Cut(s, "=")
	check := engine.SampleCheck{Path: path}
	if found && markers != "" {
		check.Markers = strings.Split(markers, ",")
	}
	return check
}

func printVerification(v *engine.Verification) {
	for _, c := range v.Checks {
		switch {
		case c.OK():
			PrintSuccess(c.Path)
		case !c.Exists:
			PrintWarning(fmt.Sprintf("%s: missing", c.Path))
		default:
			PrintWarning(fmt.Sprintf("%s: missing markers %s", c.Path, strings.Join(c.Missing, ", ")))
		}
	}
	if v.Passed {
		PrintInfo(fmt.Sprintf("All %s passed", PrintCount(len(v.Checks), "check", "checks")))
	}
}
