package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/corey/acsearch/internal/adapters/ahocorasick"
	"github.com/corey/acsearch/internal/adapters/patternfile"
	"github.com/corey/acsearch/internal/app"
	"github.com/spf13/cobra"
)

var (
	verifyKind  string
	verifyStdin bool
	verifyJSON  bool
)

var errDisagree = errors.New("engine and reference disagree")

var verifyCmd = &cobra.Command{
	Use:   "verify <file> [text]",
	Short: "Cross-check the engine against a reference matcher",
	Long: "Compiles the pattern file with the double-array engine and with an independent " +
		"Aho-Corasick library, scans the text with both and compares the matches. " +
		"Values printed are pattern positions.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyKind, "kind", "standard", "Match kind when the file names none")
	verifyCmd.Flags().BoolVar(&verifyStdin, "stdin", false, "Read text from stdin")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the report as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	set, err := patternfile.LoadFile(args[0], verifyKind)
	if err != nil {
		return err
	}
	text, err := inputText(args[1:], verifyStdin)
	if err != nil {
		return err
	}

	report, err := app.Verify(set, text, ahocorasick.New())
	if err != nil {
		return err
	}

	if verifyJSON {
		if err := writeJSON(os.Stdout, report); err != nil {
			return err
		}
	} else if report.Agree {
		fmt.Printf("%s✓ agree%s │ %s │ %s │ %d matches\n",
			colorGreen, colorReset, report.Kind, report.Mode, len(report.Engine))
	} else {
		fmt.Printf("%s✗ disagree%s │ %s │ %s\n", colorRed, colorReset, report.Kind, report.Mode)
		for _, d := range report.EngineOnly {
			fmt.Printf("  engine only:    %d..%d\tpattern %d %q\n", d.Start, d.End, d.Pattern, d.Text)
		}
		for _, d := range report.ReferenceOnly {
			fmt.Printf("  reference only: %d..%d\tpattern %d %q\n", d.Start, d.End, d.Pattern, d.Text)
		}
	}
	if !report.Agree {
		return errDisagree
	}
	return nil
}
