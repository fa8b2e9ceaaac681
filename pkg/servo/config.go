package servo

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/busservo/pkg/l0/comm"
	"github.com/robotalks/busservo/pkg/servo/serialport"
)

// Config provides options to open a Bus on a serial port.
type Config struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud-rate"`
	ReadTimeout time.Duration `yaml:"read-timeout"`

	// PowerOnEnter powers on all servos when the bus is opened.
	PowerOnEnter bool `yaml:"power-on-enter"`
	// PowerOffExit powers off all servos when the bus is closed.
	PowerOffExit bool `yaml:"power-off-exit"`

	DiscardEcho    bool `yaml:"discard-echo"`
	VerifyChecksum bool `yaml:"verify-checksum"`
	Retries        int  `yaml:"retries"`
	NoiseLimit     int  `yaml:"noise-limit"`
}

// Default values.
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = time.Second
)

var defaultConfig = Config{
	BaudRate:       DefaultBaudRate,
	ReadTimeout:    DefaultReadTimeout,
	PowerOffExit:   true,
	DiscardEcho:    true,
	VerifyChecksum: true,
	Retries:        comm.DefaultRetries,
	NoiseLimit:     comm.DefaultNoiseLimit,
}

func init() {
	if val := os.Getenv("BUSSERVO_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val, err := strconv.Atoi(os.Getenv("BUSSERVO_BAUD")); err == nil && val > 0 {
		defaultConfig.BaudRate = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the servo bus")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Serial read timeout")
	flag.BoolVar(&defaultConfig.PowerOnEnter, "power-on", defaultConfig.PowerOnEnter, "Power on all servos when opened")
	flag.BoolVar(&defaultConfig.PowerOffExit, "power-off", defaultConfig.PowerOffExit, "Power off all servos when closed")
	flag.BoolVar(&defaultConfig.DiscardEcho, "discard-echo", defaultConfig.DiscardEcho, "Discard echo of transmitted bytes")
	flag.BoolVar(&defaultConfig.VerifyChecksum, "verify-checksum", defaultConfig.VerifyChecksum, "Verify checksum of replies")
	flag.IntVar(&defaultConfig.Retries, "retries", defaultConfig.Retries, "Retries of a failed transaction")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadConfig reads a YAML file over the default configurations.
func LoadConfig(fn string) (*Config, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	conf := NewConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", fn, err)
	}
	return conf, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("serial port must be specified")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if c.NoiseLimit < 0 {
		return fmt.Errorf("noise limit must not be negative")
	}
	return nil
}

// Options gets the session options.
func (c *Config) Options() comm.Options {
	return comm.Options{
		DiscardEcho:    c.DiscardEcho,
		VerifyChecksum: c.VerifyChecksum,
		Retries:        c.Retries,
		NoiseLimit:     c.NoiseLimit,
	}
}

// Open opens the serial port and creates a Bus owning it.
func (c *Config) Open() (*Bus, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	port, err := serialport.Open(c.Port, c.BaudRate, c.ReadTimeout)
	if err != nil {
		return nil, err
	}
	bus := NewBus(port, c.Options()).WithCloser(port).WithPowerOffOnClose(c.PowerOffExit)
	if c.PowerOnEnter {
		if err := bus.PowerOn(context.Background()); err != nil {
			port.Close()
			return nil, fmt.Errorf("power on: %w", err)
		}
	}
	return bus, nil
}

// MustOpen opens the Bus and fails on error.
func (c *Config) MustOpen() *Bus {
	bus, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return bus
}
