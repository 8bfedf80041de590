package cmd

import (
	"fmt"
	"os"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info <set>",
	Short: "Describe a compiled set",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	var info *socket.SetInfoResult
	if client := daemonClient(root); client != nil {
		var err error
		if info, err = client.Info(args[0]); err != nil {
			return err
		}
	} else {
		a, err := openOffline(root)
		if err != nil {
			return err
		}
		defer a.Stop()
		if err := loadStored(a, args[0]); err != nil {
			return err
		}
		result, err := a.SetInfo(args[0])
		if err != nil {
			return err
		}
		info = &result
	}

	if infoJSON {
		return writeJSON(os.Stdout, info)
	}
	fmt.Print(formatInfo(info))
	return nil
}
