package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/corey/acsearch/internal/app"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	daemonHTTPPort    int
	daemonNoWatch     bool
	daemonPatternsDir string
	daemonKind        string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the acsearch daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the foreground",
	Long: "Loads every stored set and every file in the patterns directory, serves them on a " +
		"Unix socket and serves Prometheus metrics over HTTP. Pattern files are rebuilt when they change.",
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonStartCmd.Flags().IntVar(&daemonHTTPPort, "http-port", 0, "Metrics/API port (0: derived from project root, -1: disabled)")
	daemonStartCmd.Flags().BoolVar(&daemonNoWatch, "no-watch", false, "Do not watch the patterns directory")
	daemonStartCmd.Flags().StringVar(&daemonPatternsDir, "patterns", "", "Patterns directory (default: .acsearch/patterns)")
	daemonStartCmd.Flags().StringVar(&daemonKind, "kind", "standard", "Match kind for pattern files that name none")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	sockPath := socket.SocketPath(root)

	if socket.NewClient(sockPath).Ping() {
		fmt.Println("⚡ daemon already running")
		return nil
	}

	a, err := app.New(app.Config{
		ProjectRoot: root,
		PatternsDir: daemonPatternsDir,
		DefaultKind: daemonKind,
		HTTPPort:    daemonHTTPPort,
		NoWatch:     daemonNoWatch,
	})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("init: %w\n%s", err, diagnoseDBLock(root))
		}
		return fmt.Errorf("init: %w", err)
	}

	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}
	if err := os.WriteFile(a.Paths.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		klog.ErrorS(err, "write pid file", "path", a.Paths.PIDFile)
	}
	defer a.Paths.CleanEphemeral()

	fmt.Printf("⚡ acsearch daemon started at %s\n", sockPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		klog.InfoS("Signal received", "signal", sig.String())
	case <-a.Server.ShutdownCh():
		klog.InfoS("Remote shutdown requested")
	}

	fmt.Println("\n⚡ shutting down...")
	return a.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	client := socket.NewClient(socket.SocketPath(projectRoot()))

	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}
	if err := client.Shutdown(); err != nil {
		return err
	}
	// Wait briefly for the socket to go away.
	for i := 0; i < 20 && client.Ping(); i++ {
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("⚡ daemon stopped")
	return nil
}
