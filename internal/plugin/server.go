// Package plugin implements the in-host socket listener: the protocol
// handler that accepts one client at a time, frames JSON requests, and
// dispatches them to the command executor or the export pipeline.
package plugin

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/maorcc/gimp-mcp/internal/executor"
	"github.com/maorcc/gimp-mcp/internal/host"
	"github.com/maorcc/gimp-mcp/internal/protocol"
)

// DefaultAddr is the endpoint the listener binds when none is given.
const DefaultAddr = "localhost:9877"

// Server is the socket protocol handler. It processes exactly one
// request to completion before reading the next, and services exactly
// one connection at a time: the executor namespace and the host canvas
// are serialized by construction, not by locking. A request failure is
// converted into an error response; the listener itself never
// terminates because of one.
type Server struct {
	addr     string
	session  *executor.Session
	hst      host.Host
	registry *Registry

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer wires a listener around the given session and host.
func NewServer(addr string, session *executor.Session, h host.Host) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{addr: addr, session: session, hst: h}
	s.registry = newRegistry(s)
	return s
}

// Start binds the listener and begins serving in the background.
// Serving continues until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	log.Printf("bridge listener started on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and waits for the current connection to
// finish, up to ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// acceptLoop serves clients strictly one after another. Pending
// connection attempts queue in the accept backlog until the current
// client disconnects.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				log.Printf("accept error: %v", err)
				continue
			}
		}
		s.handleConn(conn)
	}
}

// handleConn reads framed requests from one client until it
// disconnects, or until the first response when auto-disconnect is on.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := protocol.ReadMessage(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		resp := s.handleRequest(msg)
		if err := protocol.WriteResponse(conn, resp); err != nil {
			log.Printf("write error to %s: %v", conn.RemoteAddr(), err)
			return
		}

		if s.session.AutoDisconnect() {
			return
		}
	}
}

// handleRequest parses and dispatches one message. Every failure path,
// including panics from dispatched handlers, becomes a structured
// error response so the listener can keep accepting requests.
func (s *Server) handleRequest(msg []byte) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in request handler: %v", r)
			resp = protocol.Error(fmt.Sprintf("internal error: %v", r), "", nil)
		}
	}()

	req, err := protocol.ParseRequest(msg)
	if err != nil {
		return protocol.Error(err.Error(), "", nil)
	}
	return s.dispatch(req)
}
