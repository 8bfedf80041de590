// Package socket implements a JSON-over-Unix-socket protocol for the acsearch daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"

	"github.com/corey/acsearch/internal/ports"
)

// SocketPath returns the Unix socket path for a given project root.
// Format: /tmp/acsearch-{first12hex}.sock
func SocketPath(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/acsearch-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodBuild    = "build"
	MethodScan     = "scan"
	MethodInfo     = "info"
	MethodList     = "list"
	MethodDrop     = "drop"
	MethodDowncase = "downcase"
	MethodHealth   = "health"
	MethodShutdown = "shutdown"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BuildParams carries a complete pattern set to compile and store.
type BuildParams struct {
	Set ports.PatternSet `json:"set"`
}

// ScanParams is the params for a scan request. Mode is one of find,
// overlapping, overlapping_no_suffix or leftmost; empty picks the natural
// mode for the set's kind.
type ScanParams struct {
	Name string `json:"name"`
	Mode string `json:"mode,omitempty"`
	Text string `json:"text"`
}

// ScanResult is the result of a scan request. Offsets are codepoint offsets
// into the scanned text; for case-insensitive sets that is Folded.
type ScanResult struct {
	Set     string              `json:"set"`
	Mode    string              `json:"mode"`
	Matches []ports.MatchRecord `json:"matches"`
	Count   int                 `json:"count"`
	Folded  string              `json:"folded,omitempty"`
	Elapsed string              `json:"elapsed"`
}

// NameParams addresses a single pattern set (info, drop).
type NameParams struct {
	Name string `json:"name"`
}

// SetInfoResult describes one compiled pattern set.
type SetInfoResult struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	IgnoreCase bool   `json:"ignore_case,omitempty"`
	Source     string `json:"source,omitempty"`
	UpdatedAt  int64  `json:"updated_at"`
	Patterns   int    `json:"patterns"`
	Reportable int    `json:"reportable"`
	States     int    `json:"states"`
	HeapBytes  int    `json:"heap_bytes"`
}

// ListResult is the result of a list request, sorted by name.
type ListResult struct {
	Sets  []SetInfoResult `json:"sets"`
	Count int             `json:"count"`
}

// DowncaseParams is the params for a downcase request.
type DowncaseParams struct {
	Text string `json:"text"`
}

// DowncaseResult is the result of a downcase request.
type DowncaseResult struct {
	Text string `json:"text"`
}

// HealthResult is the result of a health check.
type HealthResult struct {
	Status    string `json:"status"`
	SetCount  int    `json:"set_count"`
	HeapBytes int    `json:"heap_bytes"`
	Uptime    string `json:"uptime"`
}
