package cmd

import (
	"fmt"
	"os"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pattern sets",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	var list *socket.ListResult
	if client := daemonClient(root); client != nil {
		var err error
		if list, err = client.List(); err != nil {
			return err
		}
	} else {
		a, err := openOffline(root)
		if err != nil {
			return err
		}
		defer a.Stop()
		if err := a.Load(); err != nil {
			return err
		}
		result := a.ListSets()
		list = &result
	}

	if listJSON {
		return writeJSON(os.Stdout, list)
	}
	fmt.Print(formatList(list))
	return nil
}
