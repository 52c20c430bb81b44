package adapter

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotOpen is returned when reading or writing a closed adapter
	ErrNotOpen = errors.New("device not open")
	// ErrAlreadyOpen is returned when opening an adapter twice
	ErrAlreadyOpen = errors.New("device already open")
	// ErrNoPrinter is returned when no matching printer is connected
	ErrNoPrinter = errors.New("cannot find printer")
)

// DefaultReadTimeout bounds how long Read waits for the printer to answer
const DefaultReadTimeout = 2 * time.Second

// Adapter defines the interface for printer communication adapters
type Adapter interface {
	// Open opens the connection to the printer
	Open() error

	// Write sends data to the printer
	Write(data []byte) (int, error)

	// Read reads data from the printer, waiting at most the adapter's read
	// timeout
	Read(buf []byte) (int, error)

	// Close closes the connection to the printer
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool
}

// EventType represents device events
type EventType int

const (
	EventConnect EventType = iota
	EventData
	EventClose
)

// Event represents a device event
type Event struct {
	Type EventType
	// Device describes the printer, such as "usb 001:004 04b8:0202" or
	// "tcp 10.0.0.5:9100"
	Device string
	Data   []byte
}

// listeners dispatches events to registered handlers
type listeners struct {
	mu       sync.RWMutex
	handlers map[EventType][]func(Event)
}

// On adds an event listener. Handlers run on their own goroutine.
func (l *listeners) On(eventType EventType, handler func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handlers == nil {
		l.handlers = make(map[EventType][]func(Event))
	}
	l.handlers[eventType] = append(l.handlers[eventType], handler)
}

func (l *listeners) emit(event Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, handler := range l.handlers[event.Type] {
		go handler(event)
	}
}
