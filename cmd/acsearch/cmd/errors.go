package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/corey/acsearch/internal/adapters/socket"
	bolterrors "go.etcd.io/bbolt/errors"
)

// isDBLockError reports whether err is a bbolt lock timeout.
func isDBLockError(err error) bool {
	return errors.Is(err, bolterrors.ErrTimeout)
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention: daemon running, stale socket, or unknown lock holder.
func diagnoseDBLock(root string) string {
	sockPath := socket.SocketPath(root)
	client := socket.NewClient(sockPath)

	if client.Ping() {
		return "database is locked by the running daemon\n" +
			"  → stop it first:  acsearch daemon stop\n" +
			"  → then retry your command"
	}

	if _, err := os.Stat(sockPath); err == nil {
		return fmt.Sprintf("database is locked: daemon socket exists but is not responding\n"+
			"  → a previous daemon may have crashed\n"+
			"  → find the process:  ps aux | grep 'acsearch daemon'\n"+
			"  → kill it:           kill <PID>\n"+
			"  → clean up socket:   rm %s", sockPath)
	}

	return "database is locked by another process\n" +
		"  → find the process:  ps aux | grep 'acsearch'\n" +
		"  → kill it:           kill <PID>\n" +
		"  → then retry your command"
}
