package servo

import (
	"context"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/busservo/pkg/cli/sh"
	"github.com/robotalks/busservo/pkg/l0/comm"
	"github.com/robotalks/busservo/pkg/servo"
)

type busFunc func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error)

// cmd builds a command which requires an opened bus.
func cmd(name, help string, required []string, fn busFunc, aliases ...string) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			a := argsOf(c.Args, required...)
			if a.err != nil {
				c.Err(a.err)
				return
			}
			sh.Do(c, func(ctx context.Context, bus *servo.Bus) (interface{}, error) {
				return fn(ctx, bus, a)
			})
		}),
	}
}

// guard returns the argument error before calling the bus.
func guard(a *args, fn func() (interface{}, error)) (interface{}, error) {
	if a.err != nil {
		return nil, a.err
	}
	return fn()
}

var (
	// MoveCmd moves a servo in time.
	MoveCmd = cmd("move", "ID DEGREES [SECONDS] [wait]", []string{"ID", "DEGREES"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id, deg, secs := a.id(0), a.float(1, "DEGREES"), a.float(2, "SECONDS")
			wait := a.str(3, "") == "wait"
			return guard(a, func() (interface{}, error) {
				return nil, bus.MoveTimeWrite(ctx, id, deg, secs, wait)
			})
		}, "m")

	// MoveSpeedCmd moves a servo at speed.
	MoveSpeedCmd = cmd("move.speed", "ID DEGREES DEGREES/S [wait]", []string{"ID", "DEGREES", "DEGREES/S"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id, deg, dps := a.id(0), a.float(1, "DEGREES"), a.float(2, "DEGREES/S")
			wait := a.str(3, "") == "wait"
			return guard(a, func() (interface{}, error) {
				return nil, bus.MoveSpeedWrite(ctx, id, deg, dps, wait)
			})
		}, "ms")

	// MoveQueueCmd queues a move started by move.start.
	MoveQueueCmd = cmd("move.queue", "ID DEGREES [SECONDS]", []string{"ID", "DEGREES"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id, deg, secs := a.id(0), a.float(1, "DEGREES"), a.float(2, "SECONDS")
			return guard(a, func() (interface{}, error) {
				return nil, bus.MoveTimeWaitWrite(ctx, id, deg, secs)
			})
		}, "mq")

	// MoveStartCmd starts queued moves.
	MoveStartCmd = cmd("move.start", "[ID]", nil,
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := servo.BroadcastID
			if a.has(0) {
				id = a.id(0)
			}
			return guard(a, func() (interface{}, error) {
				return nil, bus.MoveStart(ctx, id)
			})
		})

	// MoveStopCmd stops servos.
	MoveStopCmd = cmd("move.stop", "[ID]", nil,
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := servo.BroadcastID
			if a.has(0) {
				id = a.id(0)
			}
			return guard(a, func() (interface{}, error) {
				return nil, bus.MoveStop(ctx, id)
			})
		}, "stop")

	// MoveReadCmd reads the last and queued moves.
	MoveReadCmd = cmd("move.read", "ID", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			return guard(a, func() (interface{}, error) {
				deg, secs, err := bus.MoveTimeRead(ctx, id)
				if err != nil {
					return nil, err
				}
				qdeg, qsecs, err := bus.MoveTimeWaitRead(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"angle": deg, "time": secs,
					"queued-angle": qdeg, "queued-time": qsecs,
				}, nil
			})
		})

	// PosCmd reads positions.
	PosCmd = cmd("pos", "ID", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			return guard(a, func() (interface{}, error) {
				pos, err := bus.PosRead(ctx, id)
				return map[string]interface{}{"position": pos}, err
			})
		}, "p")

	// VelocityCmd reads angular velocities.
	VelocityCmd = cmd("vel", "ID [PERIOD]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			period, err := time.ParseDuration(a.str(1, servo.DefaultVelocityPeriod.String()))
			if err != nil {
				return nil, fmt.Errorf("invalid PERIOD: %v", err)
			}
			return guard(a, func() (interface{}, error) {
				vel, err := bus.VelocityRead(ctx, period, id)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"velocity": vel[0]}, nil
			})
		})

	// TempCmd reads the temperature.
	TempCmd = cmd("temp", "ID [C|F]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id, unit := a.id(0), servo.TempUnit(a.str(1, string(servo.Celsius)))
			return guard(a, func() (interface{}, error) {
				temp, err := bus.TempRead(ctx, id, unit)
				return map[string]interface{}{"temperature": temp}, err
			})
		})

	// VinCmd reads the input voltage.
	VinCmd = cmd("vin", "ID", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			return guard(a, func() (interface{}, error) {
				vin, err := bus.VinRead(ctx, id)
				return map[string]interface{}{"voltage": vin}, err
			})
		})

	// StatusCmd reads a status snapshot.
	StatusCmd = cmd("status", "ID", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			return guard(a, func() (interface{}, error) {
				return bus.ReadStatus(ctx, id)
			})
		}, "s")

	// IDCmd reads or changes the id.
	IDCmd = cmd("id", "ID [NEWID]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				newID := a.id(1)
				return guard(a, func() (interface{}, error) {
					return nil, bus.IDWrite(ctx, id, newID)
				})
			}
			return guard(a, func() (interface{}, error) {
				id, err := bus.IDRead(ctx, id)
				return map[string]interface{}{"id": id}, err
			})
		})

	// ScanCmd finds servos present on the bus.
	// Each absent id costs the read timeout of every attempt.
	ScanCmd = cmd("scan", "[FROM TO]", nil,
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			from, to := servo.MinID, servo.MaxID
			if a.has(1) {
				from, to = a.id(0), a.id(1)
			}
			return guard(a, func() (interface{}, error) {
				found := []int{}
				for id := from; id <= to && id <= servo.MaxID; id++ {
					if _, err := bus.IDRead(ctx, id); err == nil {
						found = append(found, id)
					} else if !comm.IsRetriable(err) {
						return nil, err
					}
				}
				return map[string]interface{}{"ids": found}, nil
			})
		})

	// OffsetCmd reads or adjusts the angle offset.
	OffsetCmd = cmd("offset", "ID [DEGREES [save]]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				deg, persist := a.float(1, "DEGREES"), a.str(2, "") == "save"
				return guard(a, func() (interface{}, error) {
					return nil, bus.AngleOffsetAdjust(ctx, id, deg, persist)
				})
			}
			return guard(a, func() (interface{}, error) {
				deg, err := bus.AngleOffsetRead(ctx, id)
				return map[string]interface{}{"offset": deg}, err
			})
		})

	// AngleLimitCmd reads or sets the angle range.
	AngleLimitCmd = cmd("limit.angle", "ID [MIN MAX]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(2) {
				min, max := a.float(1, "MIN"), a.float(2, "MAX")
				return guard(a, func() (interface{}, error) {
					return nil, bus.AngleLimitWrite(ctx, id, min, max)
				})
			}
			return guard(a, func() (interface{}, error) {
				min, max, err := bus.AngleLimitRead(ctx, id)
				return map[string]interface{}{"min": min, "max": max}, err
			})
		})

	// VinLimitCmd reads or sets the input voltage range.
	VinLimitCmd = cmd("limit.vin", "ID [MIN MAX]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(2) {
				min, max := a.float(1, "MIN"), a.float(2, "MAX")
				return guard(a, func() (interface{}, error) {
					return nil, bus.VinLimitWrite(ctx, id, min, max)
				})
			}
			return guard(a, func() (interface{}, error) {
				min, max, err := bus.VinLimitRead(ctx, id)
				return map[string]interface{}{"min": min, "max": max}, err
			})
		})

	// TempLimitCmd reads or sets the over-temperature threshold.
	TempLimitCmd = cmd("limit.temp", "ID [TEMP] [C|F]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				if _, err := servo.ValidateTempUnits(a.vals[1]); err == nil {
					unit := servo.TempUnit(a.vals[1])
					return guard(a, func() (interface{}, error) {
						temp, err := bus.TempMaxLimitRead(ctx, id, unit)
						return map[string]interface{}{"temperature": temp}, err
					})
				}
				temp, unit := a.float(1, "TEMP"), servo.TempUnit(a.str(2, string(servo.Celsius)))
				return guard(a, func() (interface{}, error) {
					return nil, bus.TempMaxLimitWrite(ctx, id, temp, unit)
				})
			}
			return guard(a, func() (interface{}, error) {
				temp, err := bus.TempMaxLimitRead(ctx, id, servo.Celsius)
				return map[string]interface{}{"temperature": temp}, err
			})
		})

	// ModeCmd reads or switches the mode.
	ModeCmd = cmd("mode", "ID [servo|motor SPEED]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				mode := servo.Mode(a.vals[1])
				var speed *float64
				if a.has(2) {
					speed = servo.Speed(a.float(2, "SPEED"))
				}
				return guard(a, func() (interface{}, error) {
					return nil, bus.ModeWrite(ctx, id, mode, speed)
				})
			}
			return guard(a, func() (interface{}, error) {
				mode, speed, err := bus.ModeRead(ctx, id)
				if err != nil {
					return nil, err
				}
				result := map[string]interface{}{"mode": mode}
				if speed != nil {
					result["speed"] = *speed
				}
				return result, nil
			})
		})

	// PowerCmd reads or switches the motor power.
	PowerCmd = cmd("power", "ID [on|off]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				on := a.onOff(1)
				return guard(a, func() (interface{}, error) {
					return nil, bus.SetPowered(ctx, id, on)
				})
			}
			return guard(a, func() (interface{}, error) {
				on, err := bus.IsPowered(ctx, id)
				return map[string]interface{}{"powered": on}, err
			})
		})

	// LEDCmd reads or switches the LED.
	LEDCmd = cmd("led", "ID [on|off]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				on := a.onOff(1)
				return guard(a, func() (interface{}, error) {
					return nil, bus.LEDCtrlWrite(ctx, id, on)
				})
			}
			return guard(a, func() (interface{}, error) {
				on, err := bus.LEDCtrlRead(ctx, id)
				return map[string]interface{}{"on": on}, err
			})
		})

	// LEDErrorCmd reads or selects the faults flashing the LED.
	LEDErrorCmd = cmd("led.error", "ID [stalled,over-voltage,over-temp|none]", []string{"ID"},
		func(ctx context.Context, bus *servo.Bus, a *args) (interface{}, error) {
			id := a.id(0)
			if a.has(1) {
				alarms, err := ParseAlarms(a.vals[1])
				if err != nil {
					return nil, err
				}
				return guard(a, func() (interface{}, error) {
					return nil, bus.LEDErrorWrite(ctx, id, alarms)
				})
			}
			return guard(a, func() (interface{}, error) {
				return bus.LEDErrorRead(ctx, id)
			})
		})
)

func init() {
	sh.AddCmds(
		&MoveCmd,
		&MoveSpeedCmd,
		&MoveQueueCmd,
		&MoveStartCmd,
		&MoveStopCmd,
		&MoveReadCmd,
		&PosCmd,
		&VelocityCmd,
		&TempCmd,
		&VinCmd,
		&StatusCmd,
		&IDCmd,
		&ScanCmd,
		&OffsetCmd,
		&AngleLimitCmd,
		&VinLimitCmd,
		&TempLimitCmd,
		&ModeCmd,
		&PowerCmd,
		&LEDCmd,
		&LEDErrorCmd,
	)
}
