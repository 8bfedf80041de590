package socket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/corey/acsearch/internal/domain/casefold"
	"k8s.io/klog/v2"
)

// AppQueries is the pattern-set registry the handlers serve from.
// Thread safety is the implementor's responsibility.
type AppQueries interface {
	BuildSet(params BuildParams) (SetInfoResult, error)
	ScanSet(params ScanParams) (ScanResult, error)
	SetInfo(name string) (SetInfoResult, error)
	ListSets() ListResult
	DropSet(name string) error
}

// RequestObserver is told about every handled request.
type RequestObserver interface {
	ObserveRequest(method string, err error)
}

var errUnavailable = errors.New("pattern sets not available")

// Server is the daemon that listens on a Unix socket and serves pattern-set requests.
type Server struct {
	queries  AppQueries
	observer RequestObserver
	listener net.Listener
	sockPath string
	started  time.Time

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{} // open client connections, nil once stopped
}

// NewServer creates a daemon server. The queries parameter may be nil, in
// which case only health, downcase and shutdown succeed. observer may be nil.
func NewServer(sockPath string, queries AppQueries, observer RequestObserver) *Server {
	return &Server{
		queries:    queries,
		observer:   observer,
		sockPath:   sockPath,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start begins listening on the Unix socket. A socket file nobody answers on
// is stale and gets removed before binding.
func (s *Server) Start() error {
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every client connection, waits for the
// handlers to return and removes the socket file. A request already being
// served finishes, but its reply may be lost. Idempotent, so a remote shutdown
// followed by a signal is fine.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.connMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.conns = nil
		s.connMu.Unlock()
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// track registers an accepted connection. It reports false once the server
// is stopping, and the caller must drop the connection.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, conn)
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received. The daemon's main goroutine selects on this alongside OS signals.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024) // texts and pattern sets can be large

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-s.done:
		default:
			klog.V(2).InfoS("socket connection closed", "err", err)
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	result, err := s.dispatch(req)
	if s.observer != nil {
		s.observer.ObserveRequest(req.Method, err)
	}
	if err != nil {
		klog.V(3).InfoS("request failed", "id", req.ID, "method", req.Method, "err", err)
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) dispatch(req Request) (interface{}, error) {
	switch req.Method {
	case MethodHealth:
		return s.handleHealth(), nil
	case MethodShutdown:
		return struct{}{}, nil
	case MethodDowncase:
		var params DowncaseParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return DowncaseResult{Text: casefold.Lower(params.Text)}, nil
	}

	if s.queries == nil {
		if isKnown(req.Method) {
			return nil, errUnavailable
		}
		return nil, fmt.Errorf("unknown method: %s", req.Method)
	}

	switch req.Method {
	case MethodBuild:
		var params BuildParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.queries.BuildSet(params)
	case MethodScan:
		var params ScanParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.queries.ScanSet(params)
	case MethodInfo:
		var params NameParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.queries.SetInfo(params.Name)
	case MethodList:
		return s.queries.ListSets(), nil
	case MethodDrop:
		var params NameParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return struct{}{}, s.queries.DropSet(params.Name)
	default:
		return nil, fmt.Errorf("unknown method: %s", req.Method)
	}
}

func isKnown(method string) bool {
	switch method {
	case MethodBuild, MethodScan, MethodInfo, MethodList, MethodDrop:
		return true
	}
	return false
}

func (s *Server) handleHealth() HealthResult {
	result := HealthResult{
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
	return result
}

// decodeParams re-marshals the generic params into the method's struct.
func decodeParams(req Request, v interface{}) error {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return fmt.Errorf("invalid %s params", req.Method)
	}
	if err := json.Unmarshal(paramsJSON, v); err != nil {
		return fmt.Errorf("invalid %s params: %w", req.Method, err)
	}
	return nil
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		klog.ErrorS(err, "marshal response", "id", resp.ID)
		data, _ = json.Marshal(Response{ID: resp.ID, Error: "unencodable result"})
	}
	data = append(data, '\n')
	conn.Write(data)
}
