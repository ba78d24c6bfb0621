// Package bridge implements the client side of the socket protocol:
// the process outside the host application that sends requests to the
// in-host listener and normalizes the results.
package bridge

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/maorcc/gimp-mcp/internal/export"
	"github.com/maorcc/gimp-mcp/internal/host"
	"github.com/maorcc/gimp-mcp/internal/protocol"
)

const (
	// DefaultDialTimeout bounds connection establishment.
	DefaultDialTimeout = 5 * time.Second

	// DefaultReadTimeout is the per-chunk read deadline. A response
	// that keeps flowing keeps extending it; a complete stall breaks
	// the connection.
	DefaultReadTimeout = 30 * time.Second

	// MaxRegionSize caps any requested dimension, matching the
	// listener's largest supported export.
	MaxRegionSize = 8192
)

// ConnError means the listener could not be reached or the connection
// broke before a full response arrived. It is deliberately a different
// type from RequestError so callers can tell "host unreachable" from
// "host reachable but the request failed".
type ConnError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("bridge connection %s (%s): %v", e.Op, e.Addr, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// RequestError is a successfully transported request that the listener
// answered with a status of "error".
type RequestError struct {
	Message   string
	Traceback string
	Partial   interface{}
}

func (e *RequestError) Error() string { return e.Message }

// Client talks to the in-host listener. The zero value is not usable;
// create clients with New. Methods are safe for concurrent use, but
// requests serialize on one connection.
type Client struct {
	addr        string
	dialTimeout time.Duration
	readTimeout time.Duration

	mu        sync.Mutex
	conn      net.Conn
	keepAlive bool
}

// New creates a client for the given listener address. Zero timeouts
// select the defaults.
func New(addr string, dialTimeout, readTimeout time.Duration) *Client {
	if addr == "" {
		addr = "localhost:9877"
	}
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Client{addr: addr, dialTimeout: dialTimeout, readTimeout: readTimeout}
}

// Close releases any kept-alive connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// CallAPI performs the generic "call API" operation: a params-shaped
// request naming a procedure with positional and keyword arguments.
// It returns the raw results on success, a *RequestError when the
// listener reports a failure, and a *ConnError when it is unreachable.
func (c *Client) CallAPI(apiPath string, args []interface{}, kwargs map[string]any) (interface{}, error) {
	req := map[string]any{
		"params": protocol.Call{Name: apiPath, Args: args, Kwargs: kwargs},
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ExecCommands runs code fragments in statement mode, returning the
// captured output per fragment.
func (c *Client) ExecCommands(fragments []string) ([]string, error) {
	return c.execFragments(protocol.ProcConsoleExec, fragments)
}

// EvalExpressions runs fragments in expression mode, returning each
// value's string form.
func (c *Client) EvalExpressions(fragments []string) ([]string, error) {
	return c.execFragments(protocol.ProcConsoleEval, fragments)
}

func (c *Client) execFragments(mode string, fragments []string) ([]string, error) {
	args := make([]interface{}, len(fragments))
	for i, f := range fragments {
		args[i] = f
	}
	results, err := c.CallAPI(protocol.ProcExec, []interface{}{mode, args}, nil)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := decodeResults(results, &out); err != nil {
		return nil, fmt.Errorf("decoding executor results: %w", err)
	}
	return out, nil
}

// BitmapOptions is the validated parameter schema of GetImageBitmap.
// All fields are optional, but region fields come as all-or-none and
// the scaled-to pair must be complete.
type BitmapOptions struct {
	MaxWidth  *int
	MaxHeight *int

	OriginX *int
	OriginY *int
	Width   *int
	Height  *int

	ScaledToWidth  *int
	ScaledToHeight *int
}

// Validate rejects incoherent option sets before anything touches the
// socket.
func (o *BitmapOptions) Validate() error {
	regionFields := 0
	for _, p := range []*int{o.OriginX, o.OriginY, o.Width, o.Height} {
		if p != nil {
			regionFields++
		}
	}
	if regionFields != 0 && regionFields != 4 {
		return fmt.Errorf("region requires all of origin_x, origin_y, width, height (got %d of 4)", regionFields)
	}
	if (o.ScaledToWidth == nil) != (o.ScaledToHeight == nil) {
		return fmt.Errorf("scaled_to_width and scaled_to_height must be provided together")
	}
	if (o.MaxWidth == nil) != (o.MaxHeight == nil) {
		return fmt.Errorf("max_width and max_height must be provided together")
	}

	for name, p := range map[string]*int{
		"max_width":        o.MaxWidth,
		"max_height":       o.MaxHeight,
		"width":            o.Width,
		"height":           o.Height,
		"scaled_to_width":  o.ScaledToWidth,
		"scaled_to_height": o.ScaledToHeight,
	} {
		if p == nil {
			continue
		}
		if *p < 1 || *p > MaxRegionSize {
			return fmt.Errorf("%s must be between 1 and %d, got %d", name, MaxRegionSize, *p)
		}
	}
	return nil
}

func (o *BitmapOptions) params() *protocol.BitmapParams {
	params := &protocol.BitmapParams{MaxWidth: o.MaxWidth, MaxHeight: o.MaxHeight}
	if o.OriginX != nil {
		params.Region = &protocol.RegionSpec{
			OriginX:        o.OriginX,
			OriginY:        o.OriginY,
			Width:          o.Width,
			Height:         o.Height,
			ScaledToWidth:  o.ScaledToWidth,
			ScaledToHeight: o.ScaledToHeight,
		}
	}
	return params
}

// GetImageBitmap exports the current canvas, optionally cropped and
// scaled, as a base64 PNG.
func (c *Client) GetImageBitmap(opts BitmapOptions) (*export.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	req := map[string]any{
		"type":   protocol.CmdGetImageBitmap,
		"params": opts.params(),
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	var result export.Result
	if err := decodeResults(resp.Results, &result); err != nil {
		return nil, fmt.Errorf("decoding bitmap result: %w", err)
	}
	return &result, nil
}

// GetImageMetadata fetches the structural description of the current
// image without pixel data.
func (c *Client) GetImageMetadata() (*host.ImageMetadata, error) {
	resp, err := c.roundTrip(map[string]any{"type": protocol.CmdGetImageMetadata})
	if err != nil {
		return nil, err
	}
	var md host.ImageMetadata
	if err := decodeResults(resp.Results, &md); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &md, nil
}

// GetHostInfo fetches version, paths, session summary, and platform
// facts from the host.
func (c *Client) GetHostInfo() (*host.EnvironmentInfo, error) {
	resp, err := c.roundTrip(map[string]any{"type": protocol.CmdGetGimpInfo})
	if err != nil {
		return nil, err
	}
	var info host.EnvironmentInfo
	if err := decodeResults(resp.Results, &info); err != nil {
		return nil, fmt.Errorf("decoding host info: %w", err)
	}
	return &info, nil
}

// GetContextState fetches the current drawing-context values.
func (c *Client) GetContextState() (*host.ContextState, error) {
	resp, err := c.roundTrip(map[string]any{"type": protocol.CmdGetContextState})
	if err != nil {
		return nil, err
	}
	var cs host.ContextState
	if err := decodeResults(resp.Results, &cs); err != nil {
		return nil, fmt.Errorf("decoding context state: %w", err)
	}
	return &cs, nil
}

// DisableAutoDisconnect asks the listener to keep the connection open
// across requests. Later calls reuse the same socket.
func (c *Client) DisableAutoDisconnect() error {
	// Set before the round trip so the acknowledged socket survives it.
	c.mu.Lock()
	c.keepAlive = true
	c.mu.Unlock()
	if _, err := c.roundTrip(protocol.CmdDisableAutoDisconnect); err != nil {
		c.mu.Lock()
		c.keepAlive = false
		c.mu.Unlock()
		return err
	}
	return nil
}

// roundTrip sends one request and blocks until a full response is
// read. Connection failures and mid-response stalls surface as
// *ConnError; listener-reported failures as *RequestError.
func (c *Client) roundTrip(req interface{}) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connectLocked()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if err := protocol.WriteMessage(conn, data); err != nil {
		c.dropLocked()
		return nil, &ConnError{Addr: c.addr, Op: "write", Err: err}
	}

	counted := &countingConn{Conn: conn, timeout: c.readTimeout}
	msg, err := protocol.ReadMessage(counted)
	if err != nil {
		c.dropLocked()
		op := "read"
		if counted.n == 0 {
			op = "no response"
		}
		return nil, &ConnError{Addr: c.addr, Op: op, Err: err}
	}

	var resp protocol.Response
	if err := json.Unmarshal(msg, &resp); err != nil {
		// A peer that closed mid-document leaves a truncated buffer
		// behind: the read itself succeeds but the document does not
		// parse. That is a transport failure, not a request failure.
		c.dropLocked()
		return nil, &ConnError{Addr: c.addr, Op: "broken response", Err: err}
	}

	// The listener closes the socket after responding unless
	// auto-disconnect was turned off.
	if !c.keepAlive {
		c.dropLocked()
	}
	if resp.Status == protocol.StatusError {
		return nil, &RequestError{Message: resp.Message, Traceback: resp.Traceback, Partial: resp.Results}
	}
	return &resp, nil
}

func (c *Client) connectLocked() (net.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return nil, &ConnError{Addr: c.addr, Op: "dial", Err: err}
	}
	c.conn = conn
	return conn, nil
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// countingConn extends the read deadline before every chunk, so a slow
// but flowing response is "still pending" while a silent peer times
// out. It also counts bytes so a timeout can be classified as "no
// response" versus "broken mid-response".
type countingConn struct {
	net.Conn
	timeout time.Duration
	n       int
}

func (c *countingConn) Read(p []byte) (int, error) {
	if err := c.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(p)
	c.n += n
	return n, err
}

// decodeResults re-marshals a decoded interface value into a typed
// result structure.
func decodeResults(results interface{}, out interface{}) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
