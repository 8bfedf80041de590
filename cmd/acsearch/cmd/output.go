package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/corey/acsearch/internal/adapters/socket"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// formatScan renders a scan result, one match per line with the matched
// text highlighted:
//
//	⚡ 3 matches │ errors │ leftmost │ 12µs
//	  6..24   value=10  connection refused
func formatScan(result *socket.ScanResult, text string, countOnly bool) string {
	if countOnly {
		return fmt.Sprintf("%s⚡ %d matches%s │ %s │ %s\n", colorBold, result.Count, colorReset, result.Set, result.Elapsed)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d matches%s │ %s │ %s │ %s\n",
		colorBold, result.Count, colorReset, result.Set, result.Mode, result.Elapsed))

	if result.Folded != "" {
		text = result.Folded
	}
	runes := []rune(text)
	for _, m := range result.Matches {
		fragment := ""
		if m.Start >= 0 && m.End <= len(runes) && m.Start <= m.End {
			fragment = string(runes[m.Start:m.End])
		}
		sb.WriteString(fmt.Sprintf("  %s%d..%d%s\tvalue=%d\t%s%s%s\n",
			colorCyan, m.Start, m.End, colorReset, m.Value, colorGreen, fragment, colorReset))
	}
	return sb.String()
}

// formatInfo renders one set's description.
func formatInfo(info *socket.SetInfoResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %s%s\n", colorBold, info.Name, colorReset))
	sb.WriteString(fmt.Sprintf("  Kind:       %s\n", info.Kind))
	if info.IgnoreCase {
		sb.WriteString("  Case:       insensitive\n")
	}
	sb.WriteString(fmt.Sprintf("  Patterns:   %d (%d reportable)\n", info.Patterns, info.Reportable))
	sb.WriteString(fmt.Sprintf("  States:     %d\n", info.States))
	sb.WriteString(fmt.Sprintf("  Heap:       %s\n", humanBytes(info.HeapBytes)))
	if info.Source != "" {
		sb.WriteString(fmt.Sprintf("  Source:     %s\n", info.Source))
	}
	if info.UpdatedAt > 0 {
		sb.WriteString(fmt.Sprintf("  Updated:    %s\n", time.Unix(info.UpdatedAt, 0).Format(time.RFC3339)))
	}
	return sb.String()
}

// formatList renders the set table.
func formatList(list *socket.ListResult) string {
	if list.Count == 0 {
		return fmt.Sprintf("%s⚡ no pattern sets%s\n", colorYellow, colorReset)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d pattern sets%s\n", colorBold, list.Count, colorReset))
	for _, s := range list.Sets {
		sb.WriteString(fmt.Sprintf("  %s%-20s%s %-17s %6d patterns %8s\n",
			colorCyan, s.Name, colorReset, s.Kind, s.Patterns, humanBytes(s.HeapBytes)))
	}
	return sb.String()
}

// formatHealth renders a daemon health check.
func formatHealth(h *socket.HealthResult) string {
	return fmt.Sprintf("%s⚡ daemon %s%s │ %d sets │ %s │ up %s\n",
		colorGreen, h.Status, colorReset, h.SetCount, humanBytes(h.HeapBytes), h.Uptime)
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
