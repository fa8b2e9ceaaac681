// Package commtest provides an in-memory bus for testing.
package commtest

import (
	"sync"

	"github.com/robotalks/busservo/pkg/l0/comm"
)

// Transport is a scripted comm.Transport. Every Write queues the next
// scripted reply for reading. A Read with nothing queued returns no data,
// which is how a serial port reports a read timeout.
type Transport struct {
	// Echo queues every written byte for reading before the reply,
	// like a half-duplex line does.
	Echo bool
	// Responder computes the reply of a write when no scripted reply is
	// pending. It's called with the lock held.
	Responder func(written []byte) []byte

	rx      []byte
	replies [][]byte
	written [][]byte
	resets  int
	lock    sync.Mutex
}

// New creates a Transport.
func New() *Transport {
	return &Transport{}
}

// WithEcho enables echo.
func (t *Transport) WithEcho() *Transport {
	t.Echo = true
	return t
}

// Inject queues bytes for reading immediately.
func (t *Transport) Inject(p ...byte) *Transport {
	t.lock.Lock()
	t.rx = append(t.rx, p...)
	t.lock.Unlock()
	return t
}

// Reply scripts the bytes made available after the next unanswered write.
// nil scripts a timeout.
func (t *Transport) Reply(p []byte) *Transport {
	t.lock.Lock()
	t.replies = append(t.replies, p)
	t.lock.Unlock()
	return t
}

// ReplyFrame scripts a well formed reply frame.
func (t *Transport) ReplyFrame(address, opcode int, params ...byte) *Transport {
	return t.Reply(MustEncode(address, opcode, params...))
}

// Read implements io.Reader.
func (t *Transport) Read(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	n := copy(p, t.rx)
	t.rx = t.rx[n:]
	return n, nil
}

// Write implements io.Writer.
func (t *Transport) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.written = append(t.written, append([]byte(nil), p...))
	if t.Echo {
		t.rx = append(t.rx, p...)
	}
	if len(t.replies) > 0 {
		t.rx = append(t.rx, t.replies[0]...)
		t.replies = t.replies[1:]
	} else if t.Responder != nil {
		t.rx = append(t.rx, t.Responder(p)...)
	}
	return len(p), nil
}

// ResetInputBuffer implements comm.InputResetter.
func (t *Transport) ResetInputBuffer() error {
	t.lock.Lock()
	t.rx = nil
	t.resets++
	t.lock.Unlock()
	return nil
}

// Written returns all writes so far.
func (t *Transport) Written() [][]byte {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([][]byte(nil), t.written...)
}

// LastWritten returns the last write, nil if nothing written.
func (t *Transport) LastWritten() []byte {
	t.lock.Lock()
	defer t.lock.Unlock()
	if len(t.written) == 0 {
		return nil
	}
	return t.written[len(t.written)-1]
}

// Resets tells how many times input was reset.
func (t *Transport) Resets() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.resets
}

// Pending returns the number of unread bytes.
func (t *Transport) Pending() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.rx)
}

// MustEncode encodes a frame and panics on invalid values.
func MustEncode(address, opcode int, params ...byte) []byte {
	b, err := comm.Encode(address, opcode, params)
	if err != nil {
		panic(err)
	}
	return b
}
