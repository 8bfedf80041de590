package cmd

import (
	"fmt"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/corey/acsearch/internal/app"
)

// daemonClient returns a client when the project's daemon answers, else nil.
func daemonClient(root string) *socket.Client {
	client := socket.NewClient(socket.SocketPath(root))
	if !client.Ping() {
		return nil
	}
	return client
}

// openOffline opens the project's store without starting any service.
// The caller must Stop the returned app.
func openOffline(root string) (*app.App, error) {
	a, err := app.New(app.Config{ProjectRoot: root, NoWatch: true, HTTPPort: -1})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%w\n%s", err, diagnoseDBLock(root))
		}
		return nil, err
	}
	return a, nil
}

// loadStored compiles one stored set into a's registry.
func loadStored(a *app.App, name string) error {
	set, err := a.Store.LoadPatternSet(name)
	if err != nil {
		return err
	}
	if set == nil {
		return fmt.Errorf("%w: %q", app.ErrSetNotFound, name)
	}
	_, err = a.Registry.Build(set)
	return err
}
