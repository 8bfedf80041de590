package cmd

import (
	"fmt"
	"os"

	"github.com/corey/acsearch/internal/adapters/patternfile"
	"github.com/corey/acsearch/internal/ports"
	"github.com/spf13/cobra"
)

var (
	buildName       string
	buildKind       string
	buildIgnoreCase bool
)

var buildCmd = &cobra.Command{
	Use:   "build <file|dir>",
	Short: "Compile pattern files into stored sets",
	Long: "Reads a pattern file (.yaml, .yml, .txt, .tsv) or every pattern file in a directory, " +
		"compiles each set and stores it. Uses the daemon when it is running.",
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildName, "name", "", "Set name (single file only; default: file name)")
	buildCmd.Flags().StringVar(&buildKind, "kind", "standard", "Match kind for files that name none: standard, leftmost_longest, leftmost_first")
	buildCmd.Flags().BoolVar(&buildIgnoreCase, "ignore-case", false, "Lowercase patterns and scanned text")
}

func runBuild(cmd *cobra.Command, args []string) error {
	sets, err := readPatternSets(args[0])
	if err != nil {
		return err
	}
	if buildName != "" {
		if len(sets) != 1 {
			return fmt.Errorf("--name needs a single pattern file, %s holds %d sets", args[0], len(sets))
		}
		sets[0].Name = buildName
	}
	for _, set := range sets {
		if buildIgnoreCase {
			set.IgnoreCase = true
		}
	}

	root := projectRoot()
	if client := daemonClient(root); client != nil {
		for _, set := range sets {
			info, err := client.Build(*set)
			if err != nil {
				return err
			}
			fmt.Print(formatInfo(info))
		}
		return nil
	}

	a, err := openOffline(root)
	if err != nil {
		return err
	}
	defer a.Stop()
	for _, set := range sets {
		status, err := a.Save(set)
		if err != nil {
			return err
		}
		info, err := a.SetInfo(status.Name)
		if err != nil {
			return err
		}
		fmt.Print(formatInfo(&info))
	}
	return nil
}

// readPatternSets loads one file or every pattern file in a directory.
func readPatternSets(path string) ([]*ports.PatternSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		set, err := patternfile.LoadFile(path, buildKind)
		if err != nil {
			return nil, err
		}
		return []*ports.PatternSet{set}, nil
	}
	sets, err := patternfile.LoadDir(os.DirFS(path), ".", buildKind)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no pattern files in %s", path)
	}
	return sets, nil
}
