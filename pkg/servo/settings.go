package servo

import (
	"context"
	"fmt"
	"strings"

	"github.com/robotalks/busservo/pkg/l0/comm"
)

// IDWrite changes the id of the servo. Nothing is sent if ids are equal.
func (b *Bus) IDWrite(ctx context.Context, oldID, newID int) error {
	if err := validateID(oldID); err != nil {
		return err
	}
	if err := validateID(newID); err != nil {
		return err
	}
	if oldID == newID {
		return nil
	}
	return b.send(ctx, oldID, OpIDWrite, byte(newID))
}

// IDRead reads the id from the servo, which also tells it's present.
func (b *Bus) IDRead(ctx context.Context, id int) (int, error) {
	p, err := b.query(ctx, id, OpIDRead, 1)
	if err != nil {
		return 0, err
	}
	return int(p[0]), nil
}

// AngleOffsetAdjust adjusts the angle offset, in [-30, 30] degrees.
// The adjustment is lost on power off unless persist is set.
func (b *Bus) AngleOffsetAdjust(ctx context.Context, id int, deg float64, persist bool) error {
	if !(deg >= MinAngleOffset && deg <= MaxAngleOffset) {
		return comm.InvalidArgumentf("angle offset must be in [%v, %v]; got %v", MinAngleOffset, MaxAngleOffset, deg)
	}
	offset := int8(round(deg * angleOffsetTicks / MaxAngleOffset))
	return b.Exclusive(func(held *Bus) error {
		if err := held.send(ctx, id, OpAngleOffsetAdjust, byte(offset)); err != nil {
			return err
		}
		if persist {
			return held.AngleOffsetWrite(ctx, id)
		}
		return nil
	})
}

// AngleOffsetWrite saves the adjusted angle offset.
func (b *Bus) AngleOffsetWrite(ctx context.Context, id int) error {
	return b.send(ctx, id, OpAngleOffsetWrite)
}

// AngleOffsetRead reads the angle offset in degrees.
func (b *Bus) AngleOffsetRead(ctx context.Context, id int) (float64, error) {
	p, err := b.query(ctx, id, OpAngleOffsetRead, 1)
	if err != nil {
		return 0, err
	}
	return float64(int8(p[0])) * MaxAngleOffset / angleOffsetTicks, nil
}

// AngleLimitWrite sets the angle range. Both are clamped to
// [MinAngle, MaxAngle] and min must be less than max.
func (b *Bus) AngleLimitWrite(ctx context.Context, id int, min, max float64) error {
	if err := number("minimum angle", min); err != nil {
		return err
	}
	if err := number("maximum angle", max); err != nil {
		return err
	}
	minTicks, maxTicks := DegreesToTicks(TruncateAngle(min)), DegreesToTicks(TruncateAngle(max))
	if minTicks >= maxTicks {
		return comm.InvalidArgumentf("minimum angle %v must be less than maximum %v", min, max)
	}
	return b.send(ctx, id, OpAngleLimitWrite, append(putUint16(minTicks), putUint16(maxTicks)...)...)
}

// AngleLimitRead reads the angle range.
func (b *Bus) AngleLimitRead(ctx context.Context, id int) (min, max float64, err error) {
	p, err := b.query(ctx, id, OpAngleLimitRead, 4)
	if err != nil {
		return 0, 0, err
	}
	return TicksToDegrees(getUint16(p)), TicksToDegrees(getUint16(p[2:])), nil
}

// VinLimitWrite sets the input voltage range, clamped to [4.5, 12] V.
func (b *Bus) VinLimitWrite(ctx context.Context, id int, minVolts, maxVolts float64) error {
	minMV, err := roundClamped("minimum voltage", minVolts*1000, MinVinMillivolts, MaxVinMillivolts)
	if err != nil {
		return err
	}
	maxMV, err := roundClamped("maximum voltage", maxVolts*1000, MinVinMillivolts, MaxVinMillivolts)
	if err != nil {
		return err
	}
	if minMV > maxMV {
		return comm.InvalidArgumentf("minimum voltage %v must not exceed maximum %v", minVolts, maxVolts)
	}
	return b.send(ctx, id, OpVinLimitWrite, append(putUint16(minMV), putUint16(maxMV)...)...)
}

// VinLimitRead reads the input voltage range in volts.
func (b *Bus) VinLimitRead(ctx context.Context, id int) (minVolts, maxVolts float64, err error) {
	p, err := b.query(ctx, id, OpVinLimitRead, 4)
	if err != nil {
		return 0, 0, err
	}
	return float64(getUint16(p)) / 1000, float64(getUint16(p[2:])) / 1000, nil
}

// TempMaxLimitWrite sets the over-temperature threshold, clamped to
// [50, 100] Celsius.
func (b *Bus) TempMaxLimitWrite(ctx context.Context, id int, temp float64, unit TempUnit) error {
	u, err := ValidateTempUnits(string(unit))
	if err != nil {
		return err
	}
	c, err := roundClamped("temperature", u.toCelsius(temp), MinTempLimitCelsius, MaxTempLimitCelsius)
	if err != nil {
		return err
	}
	return b.send(ctx, id, OpTempMaxLimitWrite, byte(c))
}

// TempMaxLimitRead reads the over-temperature threshold.
func (b *Bus) TempMaxLimitRead(ctx context.Context, id int, unit TempUnit) (float64, error) {
	u, err := ValidateTempUnits(string(unit))
	if err != nil {
		return 0, err
	}
	p, err := b.query(ctx, id, OpTempMaxLimitRead, 1)
	if err != nil {
		return 0, err
	}
	return u.fromCelsius(float64(p[0])), nil
}

// Mode is the operating mode of the servo.
type Mode string

// Modes.
const (
	ModeServo Mode = "servo"
	ModeMotor Mode = "motor"
)

// ParseMode parses the mode name in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeServo, ModeMotor:
		return m, nil
	}
	return "", comm.InvalidArgumentf(`mode must be either "servo" or "motor"; got %q`, s)
}

// Speed is a helper to supply the motor speed to ModeWrite.
func Speed(v float64) *float64 {
	return &v
}

// ModeWrite switches the mode. Motor mode requires speed, clamped to
// [-1000, 1000]. Speed is ignored in servo mode.
func (b *Bus) ModeWrite(ctx context.Context, id int, mode Mode, speed *float64) error {
	m, err := ParseMode(string(mode))
	if err != nil {
		return err
	}
	var flag byte
	var value int
	if m == ModeMotor {
		if speed == nil {
			return comm.InvalidArgumentf("motor mode requires speed")
		}
		if value, err = roundClamped("speed", *speed, -MaxMotorSpeed, MaxMotorSpeed); err != nil {
			return err
		}
		flag = 1
	}
	return b.send(ctx, id, OpModeWrite, append([]byte{flag, 0}, putUint16(value)...)...)
}

// ModeRead reads the mode. Speed is only present in motor mode.
func (b *Bus) ModeRead(ctx context.Context, id int) (Mode, *int, error) {
	p, err := b.query(ctx, id, OpModeRead, 4)
	if err != nil {
		return "", nil, err
	}
	switch p[0] {
	case 0:
		return ModeServo, nil, nil
	case 1:
		speed := getInt16(p[2:])
		return ModeMotor, &speed, nil
	}
	return "", nil, &comm.DecodeError{Opcode: OpModeRead, Message: fmt.Sprintf("unknown mode %d", p[0])}
}

// SetPowered loads or unloads the motor.
func (b *Bus) SetPowered(ctx context.Context, id int, powered bool) error {
	var v byte
	if powered {
		v = 1
	}
	return b.send(ctx, id, OpLoadWrite, v)
}

// IsPowered tells if the motor is loaded.
func (b *Bus) IsPowered(ctx context.Context, id int) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	p, err := b.query(ctx, id, OpLoadRead, 1)
	if err != nil {
		return false, err
	}
	return p[0] != 0, nil
}

// LEDCtrlWrite turns the LED on or off.
func (b *Bus) LEDCtrlWrite(ctx context.Context, id int, on bool) error {
	var v byte = 1
	if on {
		v = 0
	}
	return b.send(ctx, id, OpLEDCtrlWrite, v)
}

// LEDCtrlRead tells if the LED is on.
func (b *Bus) LEDCtrlRead(ctx context.Context, id int) (bool, error) {
	p, err := b.query(ctx, id, OpLEDCtrlRead, 1)
	if err != nil {
		return false, err
	}
	return p[0] == 0, nil
}

// LEDAlarms selects the faults flashing the LED.
type LEDAlarms struct {
	Stalled     bool `json:"stalled"`
	OverVoltage bool `json:"over-voltage"`
	OverTemp    bool `json:"over-temp"`
}

const (
	alarmOverTemp    = 1 << 0
	alarmOverVoltage = 1 << 1
	alarmStalled     = 1 << 2
)

// Byte encodes the alarms.
func (a LEDAlarms) Byte() byte {
	var v byte
	if a.Stalled {
		v |= alarmStalled
	}
	if a.OverVoltage {
		v |= alarmOverVoltage
	}
	if a.OverTemp {
		v |= alarmOverTemp
	}
	return v
}

// LEDAlarmsFromByte decodes the alarms, ignoring unknown bits.
func LEDAlarmsFromByte(v byte) LEDAlarms {
	return LEDAlarms{
		Stalled:     v&alarmStalled != 0,
		OverVoltage: v&alarmOverVoltage != 0,
		OverTemp:    v&alarmOverTemp != 0,
	}
}

// LEDErrorWrite selects the faults flashing the LED.
func (b *Bus) LEDErrorWrite(ctx context.Context, id int, alarms LEDAlarms) error {
	return b.send(ctx, id, OpLEDErrorWrite, alarms.Byte())
}

// LEDErrorRead reads the faults flashing the LED.
func (b *Bus) LEDErrorRead(ctx context.Context, id int) (LEDAlarms, error) {
	p, err := b.query(ctx, id, OpLEDErrorRead, 1)
	if err != nil {
		return LEDAlarms{}, err
	}
	return LEDAlarmsFromByte(p[0]), nil
}
