package servo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/busservo/pkg/l0/comm"
)

func TestTicksRoundTrip(t *testing.T) {
	for deg := MinAngle; deg <= MaxAngle; deg += 0.1 {
		back := TicksToDegrees(DegreesToTicks(deg))
		require.InDelta(t, deg, back, 0.24, "angle %v", deg)
		require.LessOrEqual(t, back, deg+1e-9)
	}
	require.Equal(t, 0, DegreesToTicks(0))
	require.Equal(t, 500, DegreesToTicks(120))
	require.Equal(t, 1000, DegreesToTicks(240))
	require.Equal(t, 240.0, TicksToDegrees(1000))
}

func TestTruncateAngle(t *testing.T) {
	require.Equal(t, 0.0, TruncateAngle(-10))
	require.Equal(t, 240.0, TruncateAngle(300))
	require.Equal(t, 12.5, TruncateAngle(12.5))
}

func TestTemperatureConversion(t *testing.T) {
	require.Equal(t, 212.0, CelsiusToFahrenheit(100))
	require.Equal(t, 0.0, FahrenheitToCelsius(32))
	for c := -40.0; c <= 150; c += 2.5 {
		require.InDelta(t, c, FahrenheitToCelsius(CelsiusToFahrenheit(c)), 1e-9)
	}
}

func TestValidateTempUnits(t *testing.T) {
	for in, out := range map[string]TempUnit{"C": Celsius, "c": Celsius, "F": Fahrenheit, "f": Fahrenheit} {
		u, err := ValidateTempUnits(in)
		require.NoError(t, err)
		require.Equal(t, out, u)
	}
	for _, in := range []string{"", "K", "celsius"} {
		_, err := ValidateTempUnits(in)
		require.True(t, errors.Is(err, comm.ErrInvalidArgument), in)
	}
}

func TestLEDAlarmsByte(t *testing.T) {
	for v := 0; v < 8; v++ {
		require.Equal(t, byte(v), LEDAlarmsFromByte(byte(v)).Byte())
	}
	require.Equal(t, LEDAlarms{Stalled: true}, LEDAlarmsFromByte(0x04))
	require.Equal(t, LEDAlarms{OverVoltage: true}, LEDAlarmsFromByte(0xfa))
}
