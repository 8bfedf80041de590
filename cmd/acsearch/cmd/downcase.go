package cmd

import (
	"fmt"

	"github.com/corey/acsearch/internal/domain/casefold"
	"github.com/spf13/cobra"
)

var downcaseStdin bool

var downcaseCmd = &cobra.Command{
	Use:   "downcase [text]",
	Short: "Print text in full Unicode lowercase",
	Long:  "Applies the same case folding as case-insensitive sets, so offsets from their scans can be read against the output.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(args, downcaseStdin)
		if err != nil {
			return err
		}
		fmt.Println(casefold.Lower(text))
		return nil
	},
}

func init() {
	downcaseCmd.Flags().BoolVar(&downcaseStdin, "stdin", false, "Read text from stdin")
}
