// Package servo provides the typed command set of LewanSoul/Hiwonder
// bus servos (LX-16A, LX-224, HTS-35H ...) on top of the L0 protocol.
//
// Bus issues commands to any servo on a shared serial line:
//
//	bus, err := servo.NewConfig().Open()
//	if err != nil {
//		log.Fatalln(err)
//	}
//	defer bus.Close()
//	bus.MoveTimeWrite(ctx, 1, 120, 1.5, true)
//	pos, err := bus.PosRead(ctx, 1)
//
// The driver keeps no state about the servos. A move queued with
// MoveTimeWaitWrite lives in the servo until MoveStart triggers it.
package servo
