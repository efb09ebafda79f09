package n64rd

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Config selects and configures the session's Backend. Exactly one of
// Port or DevicePath is meaningful: a non-empty DevicePath opens the
// kernel parport character device; otherwise Port (default 0x378) opens
// the raw-ioport backend. Backend overrides both, and exists mainly so
// tests can inject a loopbackBackend.
type Config struct {
	Port       uint16
	DevicePath string
	Backend    Backend
	Logger     *zap.Logger
}

// NewConfig returns a Config with the default raw-ioport base address
// (0x378) and a no-op logger, following the teacher's NewOptions()/
// chainable-setter pattern.
func NewConfig() *Config {
	return &Config{Port: 0x378, Logger: nopLogger()}
}

func (c *Config) WithPort(port uint16) *Config {
	c.Port = port
	c.DevicePath = ""
	return c
}

func (c *Config) WithDevicePath(path string) *Config {
	c.DevicePath = path
	c.Port = 0
	return c
}

func (c *Config) WithLogger(l *zap.Logger) *Config {
	c.Logger = l
	return c
}

// Session owns the open Backend for the lifetime between Open and
// Close. All protocol operations are methods on *Session. A Session is
// not safe for concurrent use from multiple goroutines beyond the
// serialization its internal mutex provides: the mutex prevents wire
// corruption from interleaved calls, but the protocol itself has no
// notion of concurrent commands, so callers should not rely on
// concurrent calls making independent progress.
type Session struct {
	cfg     Config
	backend Backend
	log     *zap.Logger

	mu   sync.Mutex
	refs atomic.Int32
}

// Open acquires the configured Backend and returns an owned Session
// with a reference count of 1. Each call acquires a new Backend; to
// share an already-open Session, call Reopen, which bumps the reference
// count instead of reacquiring the port. Close must be called a
// matching number of times before the underlying resource is released.
func Open(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := *cfg
	if c.Logger == nil {
		c.Logger = nopLogger()
	}
	b, err := openBackend(c)
	if err != nil {
		return nil, err
	}
	s := &Session{cfg: c, backend: b, log: c.Logger}
	s.refs.Store(1)
	s.log.Debug("session opened", zap.Uint16("port", c.Port), zap.String("device", c.DevicePath))
	return s, nil
}

// Reopen bumps the reference count on an already-open Session, letting
// callers nest nested Open/Close pairs without surrendering the port.
func (s *Session) Reopen() *Session {
	s.refs.Add(1)
	return s
}

// Close balances a prior Open or Reopen. Only the last matching Close
// actually releases the Backend.
func (s *Session) Close() error {
	if s.refs.Add(-1) > 0 {
		return nil
	}
	s.log.Debug("session closed")
	return s.backend.Close()
}

func (s *Session) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// Enter synchronizes nibble alignment and puts the device into the
// Awaiting-Command state. Operations do not call Enter implicitly: the
// caller must re-Enter after Unpause/Exit, after Where (which drops the
// device back to its normal state as a side effect), and after any
// Timeout, since all three leave the device outside Awaiting-Command
// (or in an unknown state).
func (s *Session) Enter() error {
	defer s.lock()()
	if err := enter(s.backend); err != nil {
		return fmt.Errorf("enter: %w", err)
	}
	return nil
}
