package servo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/busservo/pkg/servo"
)

// ParseID parses a servo id, "all" for broadcast.
func ParseID(s string) (int, error) {
	if s == "all" || s == "*" {
		return servo.BroadcastID, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < servo.MinID || id > servo.BroadcastID {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

// ParseOnOff parses a switch state.
func ParseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expect on or off, got %q", s)
}

// ParseAlarms parses comma separated alarm names, or "none".
func ParseAlarms(s string) (servo.LEDAlarms, error) {
	var alarms servo.LEDAlarms
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "none", "":
		case "stalled":
			alarms.Stalled = true
		case "over-voltage":
			alarms.OverVoltage = true
		case "over-temp":
			alarms.OverTemp = true
		default:
			return alarms, fmt.Errorf("unknown alarm %q", name)
		}
	}
	return alarms, nil
}

// args parses positional arguments and keeps the first error.
type args struct {
	vals []string
	err  error
}

func argsOf(vals []string, names ...string) *args {
	a := &args{vals: vals}
	if len(vals) < len(names) {
		a.err = fmt.Errorf("%s required", strings.Join(names[len(vals):], " "))
	}
	return a
}

func (a *args) has(n int) bool {
	return n < len(a.vals)
}

func (a *args) id(n int) int {
	if a.err != nil || !a.has(n) {
		return 0
	}
	id, err := ParseID(a.vals[n])
	a.err = err
	return id
}

func (a *args) float(n int, name string) float64 {
	if a.err != nil || !a.has(n) {
		return 0
	}
	v, err := strconv.ParseFloat(a.vals[n], 64)
	if err != nil {
		a.err = fmt.Errorf("invalid %s: %v", name, err)
	}
	return v
}

func (a *args) onOff(n int) bool {
	if a.err != nil || !a.has(n) {
		return false
	}
	v, err := ParseOnOff(a.vals[n])
	a.err = err
	return v
}

func (a *args) str(n int, def string) string {
	if !a.has(n) {
		return def
	}
	return a.vals[n]
}
