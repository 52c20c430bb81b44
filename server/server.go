package server

import (
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/labelprint/printer"
)

// Server is a raw print server. Every client stream is read to the end and
// sent to the printer as one job.
type Server struct {
	printer  *printer.Printer
	listener net.Listener
	address  string
	mu       sync.Mutex
	running  bool
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a new server instance
func New(p *printer.Printer, address string) *Server {
	return NewWithLogger(p, address, zap.NewNop())
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(p *printer.Printer, address string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		printer: p,
		address: address,
		conns:   make(map[net.Conn]struct{}),
		logger:  logger.With(zap.String("address", address)),
	}
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.Bool("blocking", true))
	if err := s.listen(); err != nil {
		return err
	}

	s.logger.Info("Ready to accept connections")
	s.acceptConnections()

	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	s.logger.Info("Starting server", zap.Bool("blocking", false))
	if err := s.listen(); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections()
	}()
	s.logger.Info("Server started in background, ready to accept connections")

	return nil
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Error("Server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Error("Failed to start server", zap.Error(err))
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Open the adapter up front so a missing printer fails fast
	device := s.printer.Adapter()
	if !device.IsOpen() {
		if err := device.Open(); err != nil {
			listener.Close()
			s.logger.Error("Failed to open adapter", zap.Error(err))
			return fmt.Errorf("failed to open adapter: %w", err)
		}
		s.logger.Info("Printer adapter opened")
	}

	s.listener = listener
	s.running = true
	s.logger.Info("Server listening", zap.String("listen", listener.Addr().String()))

	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.IsRunning() {
				s.logger.Debug("Server shutting down, stopping accept loop")
				return
			}
			s.logger.Warn("Error accepting connection", zap.Error(err))
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConnection(conn)
	}
}

// handleConnection reads a whole job from one client and prints it
func (s *Server) handleConnection(conn net.Conn) {
	logger := s.logger.With(zap.String("client", conn.RemoteAddr().String()))
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		logger.Debug("Client disconnected")
	}()

	logger.Debug("Client connected")

	job, err := io.ReadAll(conn)
	if err != nil {
		logger.Warn("Discarding incomplete job", zap.Int("bytes", len(job)), zap.Error(err))
		return
	}
	if len(job) == 0 {
		return
	}

	if err := s.printer.WriteRaw(job); err != nil {
		logger.Error("Error writing job to printer", zap.Error(err))
		return
	}
	logger.Info("Printed raw job", zap.Int("bytes", len(job)))
}

// Stop stops the TCP server. Clients still sending are disconnected and
// their jobs discarded.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.logger.Info("Stopping server")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.wg.Wait()

	if err := s.printer.Close(); err != nil {
		s.logger.Error("Error closing printer", zap.Error(err))
		return err
	}

	s.logger.Info("Server stopped")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the server address
func (s *Server) Address() string {
	return s.address
}

// GetPrinter returns the printer jobs are sent to
func (s *Server) GetPrinter() *printer.Printer {
	return s.printer
}
