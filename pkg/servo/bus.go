package servo

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/robotalks/busservo/pkg/framework"
	"github.com/robotalks/busservo/pkg/l0/comm"
)

// Bus issues commands to servos sharing one serial line.
type Bus struct {
	session *comm.Session
	conn    comm.Conn
	held    bool

	closer          io.Closer
	powerOffOnClose bool
}

// NewBus creates a Bus over the transport.
func NewBus(t comm.Transport, opts comm.Options) *Bus {
	s := comm.NewSession(t, opts)
	return &Bus{session: s, conn: s}
}

// WithCloser closes c when the bus is closed. Only set it for a
// transport the bus owns.
func (b *Bus) WithCloser(c io.Closer) *Bus {
	b.closer = c
	return b
}

// WithPowerOffOnClose powers off all servos when the bus is closed.
func (b *Bus) WithPowerOffOnClose(enabled bool) *Bus {
	b.powerOffOnClose = enabled
	return b
}

// Session gets the underlying session.
func (b *Bus) Session() *comm.Session {
	return b.session
}

// Servo creates a handle for the servo with id.
func (b *Bus) Servo(id int, name string) *Servo {
	return &Servo{Bus: b, ID: id, Name: name}
}

// Exclusive runs fn with the bus held, all commands issued through the
// provided Bus are not interleaved with other callers. The provided Bus
// must not be used after fn returns. Called on a held Bus, fn runs
// directly.
func (b *Bus) Exclusive(fn func(*Bus) error) error {
	if b.held {
		return fn(b)
	}
	return b.session.Exclusive(func(c comm.Conn) error {
		return fn(&Bus{session: b.session, conn: c, held: true})
	})
}

// PowerOn powers on all servos.
func (b *Bus) PowerOn(ctx context.Context) error {
	return b.SetPowered(ctx, BroadcastID, true)
}

// Close powers off servos if requested and closes the owned transport.
func (b *Bus) Close() error {
	errs := &framework.AggregatedError{}
	if b.powerOffOnClose {
		errs.Add(b.SetPowered(context.Background(), BroadcastID, false))
	}
	if b.closer != nil {
		errs.Add(b.closer.Close())
	}
	return errs.Aggregate()
}

func (b *Bus) send(ctx context.Context, id int, op byte, params ...byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.conn.Send(id, int(op), params)
}

// query sends a request and returns the reply parameters, at least n bytes.
func (b *Bus) query(ctx context.Context, id int, op byte, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply, err := b.conn.Transact(id, int(op), nil)
	if err != nil {
		return nil, err
	}
	if len(reply.Params) < n {
		return nil, &comm.DecodeError{
			Opcode:  op,
			Message: fmt.Sprintf("expect %d parameter bytes, got %d", n, len(reply.Params)),
		}
	}
	return reply.Params, nil
}

func validateID(id int) error {
	if id < MinID || id > MaxID {
		return comm.InvalidArgumentf("servo id must be in [%d, %d]; got %d", MinID, MaxID, id)
	}
	return nil
}

func putUint16(v int) []byte {
	p := make([]byte, 2)
	binary.LittleEndian.PutUint16(p, uint16(v))
	return p
}

func getInt16(p []byte) int {
	return int(int16(binary.LittleEndian.Uint16(p)))
}

func getUint16(p []byte) int {
	return int(binary.LittleEndian.Uint16(p))
}

func seconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
