package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// ErrAlreadyConnected is returned by Connect while a port is open.
var ErrAlreadyConnected = errors.New("sensor: already connected")

// Opener opens a named port for reading.
type Opener func(name string) (io.ReadCloser, error)

// Status describes the link after a change.
type Status struct {
	Connected bool   `json:"connected"`
	Port      string `json:"port"`
	// Error describes the transport failure that dropped the link.
	Error string `json:"error,omitempty"`
}

// Manager owns at most one serial link and its reader goroutine.
type Manager struct {
	open     Opener
	register *Register
	logger   *slog.Logger
	onWeight func(float64)

	mu        sync.Mutex
	cancel    context.CancelFunc
	port      string
	gen       uint64
	lastErr   string
	listeners []func(Status)
}

// NewManager wires a manager writing into reg. onWeight may be nil.
func NewManager(open Opener, reg *Register, onWeight func(float64), logger *slog.Logger) *Manager {
	if open == nil {
		open = OpenSerial
	}
	return &Manager{open: open, register: reg, onWeight: onWeight, logger: logger}
}

// AddListener registers a status listener.
func (m *Manager) AddListener(l func(Status)) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Connected reports whether a link is open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Port returns the connected port name, or "".
func (m *Manager) Port() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port
}

// Status returns the current link state, including the last transport
// failure until the next Connect or Disconnect.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{Connected: m.cancel != nil, Port: m.port, Error: m.lastErr}
}

// Connect opens name and starts streaming weights.
func (m *Manager) Connect(name string) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	port, err := m.open(name)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("open serial port %q: %w", name, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.gen++
	gen := m.gen
	m.cancel, m.port = cancel, name
	m.lastErr = ""
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("serial connected", "port", name)
	}
	m.notify(Status{Connected: true, Port: name})

	r := &Reader{
		Port:     port,
		Register: m.register,
		Accept:   func(w float64) bool { return m.storeIfCurrent(gen, w) },
		OnWeight: m.onWeight,
		Logger:   m.logger,
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil && m.logger != nil {
				m.logger.Error("serial reader panic", "error", rec)
			}
		}()
		err := r.Run(ctx)
		m.finish(gen, name, err)
	}()
	return nil
}

// finish clears state when the reader of generation gen exits on its own.
func (m *Manager) finish(gen uint64, name string, err error) {
	m.mu.Lock()
	if gen != m.gen || m.cancel == nil {
		m.mu.Unlock()
		return
	}
	m.cancel()
	m.cancel, m.port = nil, ""
	m.register.Store(0)
	st := Status{Connected: false, Port: name}
	if err != nil {
		st.Error = err.Error()
		m.lastErr = st.Error
	}
	m.mu.Unlock()
	if err != nil && m.logger != nil {
		m.logger.Error("serial link lost", "port", name, "error", err)
	}
	m.notify(st)
}

// Disconnect cancels the reader, which closes the port, and zeroes the
// weight. It does not wait for the reader to exit.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel, name := m.cancel, m.port
	m.cancel, m.port = nil, ""
	m.lastErr = ""
	m.gen++
	if cancel != nil {
		m.register.Store(0)
	}
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if m.logger != nil {
		m.logger.Info("serial disconnected", "port", name)
	}
	m.notify(Status{Connected: false, Port: name})
}

// storeIfCurrent records w only while the reader of generation gen still owns
// the link. Disconnect zeroes the register under the same lock.
func (m *Manager) storeIfCurrent(gen uint64, w float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.cancel == nil {
		return false
	}
	m.register.Store(w)
	return true
}

// Ports lists available serial ports.
func (m *Manager) Ports() ([]string, error) { return ListPorts() }

func (m *Manager) notify(s Status) {
	m.mu.Lock()
	ls := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, l := range ls {
		l(s)
	}
}
