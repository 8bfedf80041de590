package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/corey/acsearch/internal/adapters/web"
	"github.com/corey/acsearch/internal/app"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows project root, DB path, patterns directory, socket path and daemon status. No daemon required.",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	paths := app.NewPaths(root)
	sockPath := socket.SocketPath(root)

	client := socket.NewClient(sockPath)
	daemonRunning := client.Ping()
	daemonStatus := fmt.Sprintf("%s✗ not running%s", colorYellow, colorReset)
	if daemonRunning {
		daemonStatus = fmt.Sprintf("%s✓ running%s", colorGreen, colorReset)
	}

	fmt.Printf("%s⚡ acsearch config%s\n", colorBold, colorReset)
	fmt.Printf("  Root:       %s\n", root)
	fmt.Printf("  DB:         %s\n", paths.DB)
	fmt.Printf("  Patterns:   %s\n", paths.PatternsDir)
	fmt.Printf("  Socket:     %s\n", sockPath)
	fmt.Printf("  Daemon:     %s\n", daemonStatus)

	if !daemonRunning {
		fmt.Printf("  %sMetrics:    http://localhost:%d/metrics (when started)%s\n", colorGray, web.DefaultPort(root), colorReset)
		return nil
	}
	if portData, err := os.ReadFile(paths.PortFile); err == nil {
		fmt.Printf("  Metrics:    http://localhost:%s/metrics\n", strings.TrimSpace(string(portData)))
	}
	if health, err := client.Health(); err == nil {
		fmt.Print("  ")
		fmt.Print(formatHealth(health))
	}
	return nil
}
