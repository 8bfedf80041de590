package cmd

import (
	"fmt"

	"github.com/corey/acsearch/internal/app"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <set>",
	Short: "Remove a stored pattern set",
	Long:  "Drops the set from the daemon and the store. A set loaded from the patterns directory comes back when its file changes.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	name := args[0]
	if client := daemonClient(root); client != nil {
		if err := client.Drop(name); err != nil {
			return err
		}
		fmt.Printf("⚡ removed %s\n", name)
		return nil
	}

	a, err := openOffline(root)
	if err != nil {
		return err
	}
	defer a.Stop()

	stored, err := a.Store.LoadPatternSet(name)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("%w: %q", app.ErrSetNotFound, name)
	}
	if _, err := a.Drop(name); err != nil {
		return err
	}
	fmt.Printf("⚡ removed %s\n", name)
	return nil
}
