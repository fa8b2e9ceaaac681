package comm

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"
)

// Transport is the byte stream shared by all devices on the bus.
// Read must not block indefinitely, and returns no data on timeout.
type Transport interface {
	io.ReadWriter
}

// InputResetter is optionally implemented by Transport to discard stale
// buffered input before a request is written.
type InputResetter interface {
	ResetInputBuffer() error
}

// Conn sends frames over the bus.
type Conn interface {
	// Send writes a frame without waiting for a reply.
	Send(address, opcode int, params []byte) error
	// Transact writes a frame and returns the matching reply.
	Transact(address, opcode int, params []byte) (*Frame, error)
}

// Options configures a Session.
type Options struct {
	// DiscardEcho reads back the transmitted bytes after each write,
	// for half-duplex lines echoing everything sent.
	DiscardEcho bool
	// VerifyChecksum rejects replies with a bad checksum.
	VerifyChecksum bool
	// Retries is the number of additional round trips after a failed one.
	Retries int
	// NoiseLimit is the number of bytes skipped before a frame header
	// is considered lost.
	NoiseLimit int
}

// Default option values.
const (
	DefaultRetries = 3
)

// DefaultOptions returns the options matching a typical half-duplex bus.
func DefaultOptions() Options {
	return Options{
		DiscardEcho:    true,
		VerifyChecksum: true,
		Retries:        DefaultRetries,
		NoiseLimit:     DefaultNoiseLimit,
	}
}

// Session owns the transport and serializes the access to it.
type Session struct {
	transport Transport
	options   Options
	decoder   *Decoder
	echo      [MaxParams + frameOverhead]byte
	lock      sync.Mutex
}

// NewSession creates a Session over the transport.
func NewSession(t Transport, opts Options) *Session {
	d := NewDecoder(t)
	d.VerifyChecksum, d.NoiseLimit = opts.VerifyChecksum, opts.NoiseLimit
	return &Session{transport: t, options: opts, decoder: d}
}

// Transport gets the wrapped transport.
func (s *Session) Transport() Transport {
	return s.transport
}

// Options gets the options.
func (s *Session) Options() Options {
	return s.options
}

// Exclusive holds the bus while fn runs. All frames sent through the
// provided Conn are never interleaved with other callers. The Conn
// must not be used after fn returns.
func (s *Session) Exclusive(fn func(Conn) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn(heldConn{s})
}

// Send implements Conn.
func (s *Session) Send(address, opcode int, params []byte) error {
	return s.Exclusive(func(c Conn) error {
		return c.Send(address, opcode, params)
	})
}

// Transact implements Conn.
func (s *Session) Transact(address, opcode int, params []byte) (reply *Frame, err error) {
	err = s.Exclusive(func(c Conn) error {
		reply, err = c.Transact(address, opcode, params)
		return err
	})
	return
}

// heldConn is the Conn given out while the lock is held.
type heldConn struct {
	s *Session
}

func (c heldConn) Send(address, opcode int, params []byte) error {
	req, err := NewFrame(address, opcode, params)
	if err != nil {
		return err
	}
	return c.s.send(req)
}

func (c heldConn) Transact(address, opcode int, params []byte) (*Frame, error) {
	if address == BroadcastAddress {
		return nil, InvalidArgumentf("broadcast address %d never replies", address)
	}
	req, err := NewFrame(address, opcode, params)
	if err != nil {
		return nil, err
	}
	attempts := c.s.options.Retries + 1
	for attempt := 1; ; attempt++ {
		reply, err := c.s.roundTrip(req)
		if err == nil {
			return reply, nil
		}
		if !IsRetriable(err) || attempt >= attempts {
			return nil, err
		}
		glog.V(1).Infof("addr=%d op=%d attempt %d/%d failed: %v", req.Address, req.Opcode, attempt, attempts, err)
	}
}

func (s *Session) send(req *Frame) error {
	if r, ok := s.transport.(InputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return fmt.Errorf("reset input buffer: %w", err)
		}
	}
	if glog.V(2) {
		glog.Infof("TX %s", req)
	}
	n, err := req.WriteTo(s.transport)
	if err != nil {
		return err
	}
	if s.options.DiscardEcho {
		if err := readFull(s.transport, s.echo[:int(n)]); err != nil {
			return fmt.Errorf("discard echo: %w", err)
		}
	}
	return nil
}

func (s *Session) roundTrip(req *Frame) (*Frame, error) {
	if err := s.send(req); err != nil {
		return nil, err
	}
	reply, err := s.decoder.Decode()
	if err != nil {
		return nil, err
	}
	if reply.Address != req.Address {
		return nil, &MismatchError{Field: "address", Want: req.Address, Got: reply.Address}
	}
	if reply.Opcode != req.Opcode {
		return nil, &MismatchError{Field: "opcode", Want: req.Opcode, Got: reply.Opcode}
	}
	return reply, nil
}
