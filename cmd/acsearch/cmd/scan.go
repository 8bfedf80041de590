package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/spf13/cobra"
)

var (
	scanMode  string
	scanStdin bool
	scanJSON  bool
	scanCount bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <set> [text]",
	Short: "Find a set's patterns in text",
	Long: "Scans text with a compiled set. Modes: find, overlapping, overlapping_no_suffix, leftmost; " +
		"the default is overlapping for standard sets and leftmost otherwise. Offsets are codepoints.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanMode, "mode", "m", "", "Scan mode (default: by set kind)")
	scanCmd.Flags().BoolVar(&scanStdin, "stdin", false, "Read text from stdin")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the result as JSON")
	scanCmd.Flags().BoolVarP(&scanCount, "count", "c", false, "Print only the match count")
}

func runScan(cmd *cobra.Command, args []string) error {
	text, err := inputText(args[1:], scanStdin)
	if err != nil {
		return err
	}
	result, err := scan(args[0], text)
	if err != nil {
		return err
	}
	if scanJSON {
		return writeJSON(os.Stdout, result)
	}
	fmt.Print(formatScan(result, text, scanCount))
	return nil
}

func scan(name, text string) (*socket.ScanResult, error) {
	root := projectRoot()
	params := socket.ScanParams{Name: name, Mode: scanMode, Text: text}
	if client := daemonClient(root); client != nil {
		return client.Scan(params.Name, params.Mode, params.Text)
	}

	a, err := openOffline(root)
	if err != nil {
		return nil, err
	}
	defer a.Stop()
	if err := loadStored(a, name); err != nil {
		return nil, err
	}
	result, err := a.ScanSet(params)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// inputText returns the positional text, or stdin when asked to (or when no
// text was given).
func inputText(args []string, stdin bool) (string, error) {
	if len(args) > 0 && !stdin {
		return args[0], nil
	}
	if len(args) > 0 {
		return "", fmt.Errorf("give text as an argument or with --stdin, not both")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
