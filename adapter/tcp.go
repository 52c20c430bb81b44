package adapter

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDialTimeout bounds connecting to a network printer
const DefaultDialTimeout = 5 * time.Second

// TCPAdapter drives a printer that exposes a raw TCP port, usually 9100
type TCPAdapter struct {
	listeners

	address     string
	dialTimeout time.Duration
	readTimeout time.Duration
	conn        net.Conn
	logger      *zap.Logger
	isOpen      bool
	mu          sync.Mutex
}

// NewTCPAdapter creates an adapter for the printer at address (host:port)
func NewTCPAdapter(address string) *TCPAdapter {
	return NewTCPAdapterWithLogger(address, DefaultReadTimeout, zap.NewNop())
}

// NewTCPAdapterWithLogger creates an adapter with a custom read timeout and logger
func NewTCPAdapterWithLogger(address string, readTimeout time.Duration, logger *zap.Logger) *TCPAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &TCPAdapter{
		address:     address,
		dialTimeout: DefaultDialTimeout,
		readTimeout: readTimeout,
		logger:      logger.With(zap.String("device", "tcp "+address)),
	}
}

// Open connects to the printer
func (a *TCPAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	conn, err := net.DialTimeout("tcp", a.address, a.dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	a.conn = conn
	a.isOpen = true
	a.logger.Info("Connected to network printer")
	a.emit(Event{Type: EventConnect, Device: a.device()})

	return nil
}

// Write sends data to the printer
func (a *TCPAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	a.emit(Event{Type: EventData, Device: a.device(), Data: data})

	n, err := a.conn.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	a.logger.Debug("Wrote to printer", zap.Int("bytes", n))

	return n, nil
}

// Read reads the printer's answer, giving up after the read timeout
func (a *TCPAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	if err := a.conn.SetReadDeadline(time.Now().Add(a.readTimeout)); err != nil {
		return 0, fmt.Errorf("set read deadline: %w", err)
	}
	n, err := a.conn.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read failed: %w", err)
	}
	a.logger.Debug("Read from printer", zap.Int("bytes", n))

	return n, nil
}

// Close closes the connection
func (a *TCPAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	err := a.conn.Close()
	a.conn = nil
	a.isOpen = false
	a.logger.Info("Disconnected from network printer")
	a.emit(Event{Type: EventClose, Device: a.device()})

	if err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// IsOpen returns whether the connection is open
func (a *TCPAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// Address returns the printer address
func (a *TCPAdapter) Address() string {
	return a.address
}

func (a *TCPAdapter) device() string {
	return "tcp " + a.address
}
