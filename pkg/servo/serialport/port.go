// Package serialport opens the serial line of a servo bus.
package serialport

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Port is a serial port usable as the transport of a servo bus.
// A Read returns no data once the read timeout expires.
type Port struct {
	serial.Port
	Name string
}

// Open opens the port in 8N1 mode.
func Open(name string, baudRate int, readTimeout time.Duration) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout of %s: %w", name, err)
	}
	glog.Infof("opened %s at %d baud", name, baudRate)
	return &Port{Port: p, Name: name}, nil
}

// String implements fmt.Stringer.
func (p *Port) String() string {
	return p.Name
}

// List lists the serial ports present.
func List() ([]string, error) {
	return serial.GetPortsList()
}
