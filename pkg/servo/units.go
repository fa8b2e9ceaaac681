package servo

import (
	"math"
	"strings"

	"github.com/robotalks/busservo/pkg/l0/comm"
)

// Physical ranges of the servo.
const (
	MinAngle = 0.0
	MaxAngle = 240.0
	// TicksPerRange is the number of position ticks spanning MaxAngle.
	TicksPerRange = 1000

	MaxMoveTime = 30.0

	MinAngleOffset = -30.0
	MaxAngleOffset = 30.0
	// angleOffsetTicks is the offset ticks at MaxAngleOffset.
	angleOffsetTicks = 125

	MinVinMillivolts = 4500
	MaxVinMillivolts = 12000

	MinTempLimitCelsius = 50
	MaxTempLimitCelsius = 100

	MaxMotorSpeed = 1000
)

// DegreesToTicks converts an angle to position ticks, truncating toward zero.
func DegreesToTicks(deg float64) int {
	return int(deg * TicksPerRange / MaxAngle)
}

// TicksToDegrees converts position ticks to an angle.
func TicksToDegrees(ticks int) float64 {
	return float64(ticks) * MaxAngle / TicksPerRange
}

// TruncateAngle clamps the angle into the servo range.
func TruncateAngle(deg float64) float64 {
	return clamp(deg, MinAngle, MaxAngle)
}

// CelsiusToFahrenheit converts a temperature.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius converts a temperature.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// TempUnit selects the temperature scale at the API boundary.
type TempUnit string

// Temperature units.
const (
	Celsius    TempUnit = "C"
	Fahrenheit TempUnit = "F"
)

// ValidateTempUnits normalizes a unit name, "c" and "f" in any case.
func ValidateTempUnits(unit string) (TempUnit, error) {
	switch u := TempUnit(strings.ToUpper(unit)); u {
	case Celsius, Fahrenheit:
		return u, nil
	}
	return "", comm.InvalidArgumentf(`units must be either "C" or "F"; got %q`, unit)
}

func (u TempUnit) toCelsius(t float64) float64 {
	if u == Fahrenheit {
		return FahrenheitToCelsius(t)
	}
	return t
}

func (u TempUnit) fromCelsius(t float64) float64 {
	if u == Fahrenheit {
		return CelsiusToFahrenheit(t)
	}
	return t
}

func clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}

// round rounds half to even.
func round(v float64) int {
	return int(math.RoundToEven(v))
}

// roundClamped rounds v after clamping it to [min, max]. NaN has no
// encoding and is rejected.
func roundClamped(name string, v float64, min, max int) (int, error) {
	if err := number(name, v); err != nil {
		return 0, err
	}
	return round(clamp(v, float64(min), float64(max))), nil
}

func number(name string, v float64) error {
	if math.IsNaN(v) {
		return comm.InvalidArgumentf("%s must be a number; got %v", name, v)
	}
	return nil
}
