package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/corey/acsearch/internal/ports"
	"github.com/google/uuid"
)

// Client connects to the acsearch daemon over a Unix socket.
type Client struct {
	sockPath string
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Build sends a pattern set to be compiled and stored.
func (c *Client) Build(set ports.PatternSet) (*SetInfoResult, error) {
	var result SetInfoResult
	if err := c.invoke(MethodBuild, BuildParams{Set: set}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Scan runs text through a named set.
func (c *Client) Scan(name, mode, text string) (*ScanResult, error) {
	var result ScanResult
	if err := c.invoke(MethodScan, ScanParams{Name: name, Mode: mode, Text: text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Info describes a named set.
func (c *Client) Info(name string) (*SetInfoResult, error) {
	var result SetInfoResult
	if err := c.invoke(MethodInfo, NameParams{Name: name}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns every compiled set.
func (c *Client) List() (*ListResult, error) {
	var result ListResult
	if err := c.invoke(MethodList, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Drop removes a named set from the daemon and its store.
func (c *Client) Drop(name string) error {
	return c.invoke(MethodDrop, NameParams{Name: name}, nil)
}

// Downcase lowercases text on the daemon side.
func (c *Client) Downcase(text string) (string, error) {
	var result DowncaseResult
	if err := c.invoke(MethodDowncase, DowncaseParams{Text: text}, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.invoke(MethodHealth, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	return c.invoke(MethodShutdown, nil, nil)
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// invoke performs one call and decodes the result into out (nil discards it).
func (c *Client) invoke(method string, params, out interface{}) error {
	resp, err := c.call(Request{ID: uuid.NewString(), Method: method, Params: params})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(resultJSON, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

func (c *Client) call(req Request) (*Response, error) {
	return c.callWithTimeout(req, 30*time.Second)
}

func (c *Client) callWithTimeout(req Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	return &resp, nil
}
