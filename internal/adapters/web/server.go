// Package web serves Prometheus metrics and a small read/scan JSON API over
// HTTP on a loopback port.
//
//	GET  /metrics
//	GET  /api/health
//	GET  /api/sets
//	GET  /api/sets/{name}
//	POST /api/sets/{name}/scan?mode=   body: raw text
//
// A bad mode answers 400, an unknown set 404, a mode the set's kind cannot
// run 422, and 503 when no pattern sets are wired.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corey/acsearch/internal/adapters/socket"
	"github.com/corey/acsearch/internal/domain/automaton"
	"github.com/corey/acsearch/internal/ports"
	"k8s.io/klog/v2"
)

// maxScanBody bounds the request body of a scan.
const maxScanBody = 16 << 20

// Server serves /metrics and the JSON API over HTTP.
type Server struct {
	queries  socket.AppQueries
	metrics  http.Handler
	listener net.Listener
	httpSrv  *http.Server
	port     int
	started  time.Time
	stopOnce sync.Once

	portFilePath string // .acsearch/run/metrics.port
}

// NewServer creates an HTTP server. metrics may be nil, in which case
// /metrics answers 404. The bound port is written to portFilePath for
// discovery.
func NewServer(queries socket.AppQueries, metrics http.Handler, portFilePath string) *Server {
	return &Server{
		queries:      queries,
		metrics:      metrics,
		portFilePath: portFilePath,
	}
}

// DefaultPort computes a project-specific port: 19000 + (hash(abs_path) % 1000).
func DefaultPort(projectRoot string) int {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	n := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return 19000 + int(n%1000)
}

// Start begins listening on the preferred port (0 picks a free one).
func (s *Server) Start(preferredPort int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", preferredPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = time.Now()

	s.httpSrv = &http.Server{Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second}

	if s.portFilePath != "" {
		if err := os.WriteFile(s.portFilePath, []byte(fmt.Sprintf("%d", s.port)), 0644); err != nil {
			klog.ErrorS(err, "write port file", "path", s.portFilePath)
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.ErrorS(err, "http server stopped")
		}
	}()
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/sets", s.handleList)
	mux.HandleFunc("GET /api/sets/{name}", s.handleInfo)
	mux.HandleFunc("POST /api/sets/{name}/scan", s.handleScan)
	return mux
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the base URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result := socket.HealthResult{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.queries != nil {
		list := s.queries.ListSets()
		result.SetCount = list.Count
		for _, set := range list.Sets {
			result.HeapBytes += set.HeapBytes
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		writeError(w, http.StatusServiceUnavailable, "pattern sets not available")
		return
	}
	writeJSON(w, http.StatusOK, s.queries.ListSets())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		writeError(w, http.StatusServiceUnavailable, "pattern sets not available")
		return
	}
	info, err := s.queries.SetInfo(r.PathValue("name"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleScan scans the request body, taken verbatim as the text, with the set
// named in the path. The mode comes from the query string; empty picks the
// set's natural mode.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		writeError(w, http.StatusServiceUnavailable, "pattern sets not available")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScanBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.queries.ScanSet(socket.ScanParams{
		Name: r.PathValue("name"),
		Mode: r.URL.Query().Get("mode"),
		Text: string(body),
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// statusFor maps a query error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrUnknownScanMode):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, automaton.ErrMatchKindMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
