package servo

import (
	"context"
	"fmt"
	"time"
)

// Servo addresses one servo on the bus.
type Servo struct {
	Bus  *Bus
	ID   int
	Name string
}

// String implements fmt.Stringer.
func (s *Servo) String() string {
	return fmt.Sprintf("%s (ID %d)", s.Name, s.ID)
}

// MoveTimeWrite see Bus.MoveTimeWrite.
func (s *Servo) MoveTimeWrite(ctx context.Context, deg, secs float64, wait bool) error {
	return s.Bus.MoveTimeWrite(ctx, s.ID, deg, secs, wait)
}

// MoveTimeRead see Bus.MoveTimeRead.
func (s *Servo) MoveTimeRead(ctx context.Context) (deg, secs float64, err error) {
	return s.Bus.MoveTimeRead(ctx, s.ID)
}

// MoveTimeWaitWrite see Bus.MoveTimeWaitWrite.
func (s *Servo) MoveTimeWaitWrite(ctx context.Context, deg, secs float64) error {
	return s.Bus.MoveTimeWaitWrite(ctx, s.ID, deg, secs)
}

// MoveTimeWaitRead see Bus.MoveTimeWaitRead.
func (s *Servo) MoveTimeWaitRead(ctx context.Context) (deg, secs float64, err error) {
	return s.Bus.MoveTimeWaitRead(ctx, s.ID)
}

// MoveSpeedWrite see Bus.MoveSpeedWrite.
func (s *Servo) MoveSpeedWrite(ctx context.Context, deg, dps float64, wait bool) error {
	return s.Bus.MoveSpeedWrite(ctx, s.ID, deg, dps, wait)
}

// MoveStart see Bus.MoveStart.
func (s *Servo) MoveStart(ctx context.Context) error {
	return s.Bus.MoveStart(ctx, s.ID)
}

// MoveStop see Bus.MoveStop.
func (s *Servo) MoveStop(ctx context.Context) error {
	return s.Bus.MoveStop(ctx, s.ID)
}

// VelocityRead reads the angular velocity over the period.
func (s *Servo) VelocityRead(ctx context.Context, period time.Duration) (float64, error) {
	vel, err := s.Bus.VelocityRead(ctx, period, s.ID)
	if err != nil {
		return 0, err
	}
	return vel[0], nil
}

// IDWrite changes the id, and the handle follows.
func (s *Servo) IDWrite(ctx context.Context, id int) error {
	if err := s.Bus.IDWrite(ctx, s.ID, id); err != nil {
		return err
	}
	s.ID = id
	return nil
}

// IDRead see Bus.IDRead.
func (s *Servo) IDRead(ctx context.Context) (int, error) {
	return s.Bus.IDRead(ctx, s.ID)
}

// AngleOffsetAdjust see Bus.AngleOffsetAdjust.
func (s *Servo) AngleOffsetAdjust(ctx context.Context, deg float64, persist bool) error {
	return s.Bus.AngleOffsetAdjust(ctx, s.ID, deg, persist)
}

// AngleOffsetWrite see Bus.AngleOffsetWrite.
func (s *Servo) AngleOffsetWrite(ctx context.Context) error {
	return s.Bus.AngleOffsetWrite(ctx, s.ID)
}

// AngleOffsetRead see Bus.AngleOffsetRead.
func (s *Servo) AngleOffsetRead(ctx context.Context) (float64, error) {
	return s.Bus.AngleOffsetRead(ctx, s.ID)
}

// AngleLimitWrite see Bus.AngleLimitWrite.
func (s *Servo) AngleLimitWrite(ctx context.Context, min, max float64) error {
	return s.Bus.AngleLimitWrite(ctx, s.ID, min, max)
}

// AngleLimitRead see Bus.AngleLimitRead.
func (s *Servo) AngleLimitRead(ctx context.Context) (min, max float64, err error) {
	return s.Bus.AngleLimitRead(ctx, s.ID)
}

// VinLimitWrite see Bus.VinLimitWrite.
func (s *Servo) VinLimitWrite(ctx context.Context, minVolts, maxVolts float64) error {
	return s.Bus.VinLimitWrite(ctx, s.ID, minVolts, maxVolts)
}

// VinLimitRead see Bus.VinLimitRead.
func (s *Servo) VinLimitRead(ctx context.Context) (minVolts, maxVolts float64, err error) {
	return s.Bus.VinLimitRead(ctx, s.ID)
}

// TempMaxLimitWrite see Bus.TempMaxLimitWrite.
func (s *Servo) TempMaxLimitWrite(ctx context.Context, temp float64, unit TempUnit) error {
	return s.Bus.TempMaxLimitWrite(ctx, s.ID, temp, unit)
}

// TempMaxLimitRead see Bus.TempMaxLimitRead.
func (s *Servo) TempMaxLimitRead(ctx context.Context, unit TempUnit) (float64, error) {
	return s.Bus.TempMaxLimitRead(ctx, s.ID, unit)
}

// TempRead see Bus.TempRead.
func (s *Servo) TempRead(ctx context.Context, unit TempUnit) (float64, error) {
	return s.Bus.TempRead(ctx, s.ID, unit)
}

// VinRead see Bus.VinRead.
func (s *Servo) VinRead(ctx context.Context) (float64, error) {
	return s.Bus.VinRead(ctx, s.ID)
}

// PosRead see Bus.PosRead.
func (s *Servo) PosRead(ctx context.Context) (float64, error) {
	return s.Bus.PosRead(ctx, s.ID)
}

// ModeWrite see Bus.ModeWrite.
func (s *Servo) ModeWrite(ctx context.Context, mode Mode, speed *float64) error {
	return s.Bus.ModeWrite(ctx, s.ID, mode, speed)
}

// ModeRead see Bus.ModeRead.
func (s *Servo) ModeRead(ctx context.Context) (Mode, *int, error) {
	return s.Bus.ModeRead(ctx, s.ID)
}

// SetPowered see Bus.SetPowered.
func (s *Servo) SetPowered(ctx context.Context, powered bool) error {
	return s.Bus.SetPowered(ctx, s.ID, powered)
}

// IsPowered see Bus.IsPowered.
func (s *Servo) IsPowered(ctx context.Context) (bool, error) {
	return s.Bus.IsPowered(ctx, s.ID)
}

// LEDCtrlWrite see Bus.LEDCtrlWrite.
func (s *Servo) LEDCtrlWrite(ctx context.Context, on bool) error {
	return s.Bus.LEDCtrlWrite(ctx, s.ID, on)
}

// LEDCtrlRead see Bus.LEDCtrlRead.
func (s *Servo) LEDCtrlRead(ctx context.Context) (bool, error) {
	return s.Bus.LEDCtrlRead(ctx, s.ID)
}

// LEDErrorWrite see Bus.LEDErrorWrite.
func (s *Servo) LEDErrorWrite(ctx context.Context, alarms LEDAlarms) error {
	return s.Bus.LEDErrorWrite(ctx, s.ID, alarms)
}

// LEDErrorRead see Bus.LEDErrorRead.
func (s *Servo) LEDErrorRead(ctx context.Context) (LEDAlarms, error) {
	return s.Bus.LEDErrorRead(ctx, s.ID)
}

// ReadStatus see Bus.ReadStatus.
func (s *Servo) ReadStatus(ctx context.Context) (*Status, error) {
	return s.Bus.ReadStatus(ctx, s.ID)
}
