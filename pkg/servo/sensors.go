package servo

import "context"

// TempRead reads the internal temperature.
func (b *Bus) TempRead(ctx context.Context, id int, unit TempUnit) (float64, error) {
	u, err := ValidateTempUnits(string(unit))
	if err != nil {
		return 0, err
	}
	p, err := b.query(ctx, id, OpTempRead, 1)
	if err != nil {
		return 0, err
	}
	return u.fromCelsius(float64(p[0])), nil
}

// VinRead reads the input voltage in volts.
func (b *Bus) VinRead(ctx context.Context, id int) (float64, error) {
	p, err := b.query(ctx, id, OpVinRead, 2)
	if err != nil {
		return 0, err
	}
	return float64(getInt16(p)) / 1000, nil
}

// PosRead reads the current angle in degrees. It can be slightly out
// of [MinAngle, MaxAngle].
func (b *Bus) PosRead(ctx context.Context, id int) (float64, error) {
	p, err := b.query(ctx, id, OpPosRead, 2)
	if err != nil {
		return 0, err
	}
	return TicksToDegrees(getInt16(p)), nil
}

// Status is a snapshot of the servo state.
type Status struct {
	ID          int     `json:"id"`
	Position    float64 `json:"position"`
	Velocity    float64 `json:"velocity"`
	AngleOffset float64 `json:"angle-offset"`
	Temperature float64 `json:"temperature"`
	Voltage     float64 `json:"voltage"`
}

// ReadStatus reads position, velocity, angle offset, temperature
// (Celsius) and voltage of the servo.
func (b *Bus) ReadStatus(ctx context.Context, id int) (*Status, error) {
	pos, vel, err := b.sampleVelocity(ctx, DefaultVelocityPeriod, []int{id})
	if err != nil {
		return nil, err
	}
	st := &Status{ID: id, Position: pos[0], Velocity: vel[0]}
	if st.AngleOffset, err = b.AngleOffsetRead(ctx, id); err != nil {
		return nil, err
	}
	if st.Temperature, err = b.TempRead(ctx, id, Celsius); err != nil {
		return nil, err
	}
	if st.Voltage, err = b.VinRead(ctx, id); err != nil {
		return nil, err
	}
	return st, nil
}
