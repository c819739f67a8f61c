package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/perch/internal/presenter"
	"github.com/1broseidon/perch/internal/runtimepath"
)

// Resolver answers presentation queries. *presenter.Service implements it.
type Resolver interface {
	MainWindow(excludeID uint32) (*presenter.WindowReport, error)
	MainScene() (*presenter.SceneReport, error)
	TopController(selfID uint32) (*presenter.TopReport, error)
	Anchor(selfID uint32) (*presenter.AnchorReport, error)
	Scenes() (*presenter.ScenesReport, error)
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Resolver   Resolver
	// Reload is invoked for RELOAD. It is expected to call SetResolver when
	// the new configuration changes how queries resolve.
	Reload func() error
	// Status fills daemon-specific fields of a GET_STATUS reply.
	Status func(*StatusData)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	resolver     Resolver
	resolverMu   sync.RWMutex
	reload       func() error
	status       func(*StatusData)
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(opts ServerOptions) (*Server, error) {
	socketPath := opts.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		resolver:   opts.Resolver,
		reload:     opts.Reload,
		status:     opts.Status,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandResolveWindow:
		return s.handleResolveWindow(req.Payload)
	case CommandResolveScene:
		return s.query(func(r Resolver) (any, error) { return r.MainScene() })
	case CommandResolveTop:
		return s.handleSelfQuery(req.Payload, func(r Resolver, self uint32) (any, error) { return r.TopController(self) })
	case CommandAnchor:
		return s.handleSelfQuery(req.Payload, func(r Resolver, self uint32) (any, error) { return r.Anchor(self) })
	case CommandListScenes:
		return s.query(func(r Resolver) (any, error) { return r.Scenes() })
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if s.status != nil {
		s.status(&status)
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleResolveWindow(payload json.RawMessage) *Response {
	var req ResolveWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resolve payload: %v", err))
	}
	return s.query(func(r Resolver) (any, error) { return r.MainWindow(req.ExcludeID) })
}

func (s *Server) handleSelfQuery(payload json.RawMessage, fn func(Resolver, uint32) (any, error)) *Response {
	var req SelfPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resolve payload: %v", err))
	}
	return s.query(func(r Resolver) (any, error) { return fn(r, req.SelfID) })
}

// query runs fn against the current resolver and wraps its report.
func (s *Server) query(fn func(Resolver) (any, error)) *Response {
	r := s.Resolver()
	if r == nil {
		return NewErrorResponse("no resolver configured")
	}

	report, err := fn(r)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resolve: %v", err))
	}

	resp, err := NewOKResponse(report)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// Resolver returns the current resolver (thread-safe)
func (s *Server) Resolver() Resolver {
	s.resolverMu.RLock()
	defer s.resolverMu.RUnlock()
	return s.resolver
}

// SetResolver swaps the resolver used by subsequent queries (thread-safe)
func (s *Server) SetResolver(r Resolver) {
	s.resolverMu.Lock()
	defer s.resolverMu.Unlock()
	s.resolver = r
}
