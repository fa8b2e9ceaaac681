package servo

import (
	"context"
	"math"
	"time"

	"github.com/robotalks/busservo/pkg/l0/comm"
)

// DefaultVelocityPeriod is the sampling period of VelocityRead.
const DefaultVelocityPeriod = 100 * time.Millisecond

func encodeMove(deg, secs float64) ([]byte, error) {
	if err := number("angle", deg); err != nil {
		return nil, err
	}
	ms, err := roundClamped("time", secs*1000, 0, MaxMoveTime*1000)
	if err != nil {
		return nil, err
	}
	return append(putUint16(DegreesToTicks(TruncateAngle(deg))), putUint16(ms)...), nil
}

func decodeMove(p []byte) (deg, secs float64) {
	return TicksToDegrees(getInt16(p)), float64(getUint16(p[2:])) / 1000
}

// MoveTimeWrite moves the servo to the angle in secs. The angle is
// clamped to [MinAngle, MaxAngle] and time to [0, MaxMoveTime]. With
// wait, it returns after the move is expected to complete.
func (b *Bus) MoveTimeWrite(ctx context.Context, id int, deg, secs float64, wait bool) error {
	p, err := encodeMove(deg, secs)
	if err != nil {
		return err
	}
	if err := b.send(ctx, id, OpMoveTimeWrite, p...); err != nil {
		return err
	}
	if wait {
		return sleep(ctx, seconds(clamp(secs, 0, MaxMoveTime)))
	}
	return nil
}

// MoveTimeRead reads the angle and time of the last move.
func (b *Bus) MoveTimeRead(ctx context.Context, id int) (deg, secs float64, err error) {
	p, err := b.query(ctx, id, OpMoveTimeRead, 4)
	if err != nil {
		return 0, 0, err
	}
	deg, secs = decodeMove(p)
	return
}

// MoveTimeWaitWrite queues a move which is started by MoveStart.
func (b *Bus) MoveTimeWaitWrite(ctx context.Context, id int, deg, secs float64) error {
	p, err := encodeMove(deg, secs)
	if err != nil {
		return err
	}
	return b.send(ctx, id, OpMoveTimeWaitWrite, p...)
}

// MoveTimeWaitRead reads the queued move.
func (b *Bus) MoveTimeWaitRead(ctx context.Context, id int) (deg, secs float64, err error) {
	p, err := b.query(ctx, id, OpMoveTimeWaitRead, 4)
	if err != nil {
		return 0, 0, err
	}
	deg, secs = decodeMove(p)
	return
}

// MoveSpeedWrite moves the servo to the angle at dps degrees per second.
// The current position is read and the move is written without other
// commands in between.
func (b *Bus) MoveSpeedWrite(ctx context.Context, id int, deg, dps float64, wait bool) error {
	if dps == 0 || math.IsNaN(dps) {
		return comm.InvalidArgumentf("speed must be non-zero; got %v", dps)
	}
	if err := number("angle", deg); err != nil {
		return err
	}
	var secs float64
	err := b.Exclusive(func(held *Bus) error {
		pos, err := held.PosRead(ctx, id)
		if err != nil {
			return err
		}
		secs = math.Abs(TruncateAngle(deg)-pos) / math.Abs(dps)
		return held.MoveTimeWrite(ctx, id, deg, secs, false)
	})
	if err != nil || !wait {
		return err
	}
	return sleep(ctx, seconds(clamp(secs, 0, MaxMoveTime)))
}

// MoveStart starts the move queued by MoveTimeWaitWrite.
func (b *Bus) MoveStart(ctx context.Context, id int) error {
	return b.send(ctx, id, OpMoveStart)
}

// MoveStop stops the servo at the current position.
func (b *Bus) MoveStop(ctx context.Context, id int) error {
	return b.send(ctx, id, OpMoveStop)
}

// VelocityRead samples the position of each servo twice, period apart,
// and returns the angular velocities in degrees per second.
func (b *Bus) VelocityRead(ctx context.Context, period time.Duration, ids ...int) ([]float64, error) {
	_, vel, err := b.sampleVelocity(ctx, period, ids)
	return vel, err
}

func (b *Bus) sampleVelocity(ctx context.Context, period time.Duration, ids []int) (pos, vel []float64, err error) {
	if len(ids) == 0 {
		return nil, nil, comm.InvalidArgumentf("no servo id")
	}
	if period <= 0 {
		period = DefaultVelocityPeriod
	}
	type sample struct {
		at  time.Time
		pos float64
	}
	first := make([]sample, len(ids))
	for n, id := range ids {
		at := time.Now()
		p, err := b.PosRead(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		first[n] = sample{at: at, pos: p}
	}
	if err := sleep(ctx, period); err != nil {
		return nil, nil, err
	}
	pos, vel = make([]float64, len(ids)), make([]float64, len(ids))
	for n, id := range ids {
		at := time.Now()
		p, err := b.PosRead(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		pos[n] = p
		if dt := at.Sub(first[n].at).Seconds(); dt > 0 {
			vel[n] = (p - first[n].pos) / dt
		}
	}
	return pos, vel, nil
}
