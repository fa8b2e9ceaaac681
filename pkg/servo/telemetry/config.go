package telemetry

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	fx "github.com/robotalks/busservo/pkg/framework"
	"github.com/robotalks/busservo/pkg/servo"
)

// Config provides options of the telemetry monitor.
type Config struct {
	// MQTTURL specifies the MQTT broker, e.g. mqtt://host:port/topic-prefix/
	MQTTURL string `yaml:"mqtt-url"`
	// SourceID identifies this host in topics.
	SourceID string `yaml:"source-id"`
	// Interval between polls.
	Interval time.Duration `yaml:"interval"`
	// IDs are the servos to poll.
	IDs IDList `yaml:"ids"`
	// WebSocketAddr is the listening address of the WebSocket hub.
	WebSocketAddr string `yaml:"websocket-addr"`
	// RecordFile appends samples to the file.
	RecordFile string `yaml:"record-file"`
	// Commands accepts remote commands over MQTT.
	Commands bool `yaml:"commands"`
}

// DefaultInterval is the default poll interval.
const DefaultInterval = time.Second

var defaultConfig = Config{
	Interval: DefaultInterval,
}

func init() {
	if val := os.Getenv("BUSSERVO_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	defaultConfig.SourceID = MachineID()
}

// MachineID retrieves the ID identifying the machine, the host name if
// it's not available.
func MachineID() string {
	id, err := machineid.ProtectedID("busservo")
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id not available: %v", err)
	if id, err = os.Hostname(); err == nil {
		return id
	}
	return "unknown"
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.SourceID, "source", defaultConfig.SourceID, "Source ID in topics")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Poll interval")
	flag.Var(&defaultConfig.IDs, "ids", "Comma separated servo IDs to poll")
	flag.StringVar(&defaultConfig.WebSocketAddr, "ws", defaultConfig.WebSocketAddr, "WebSocket listening address")
	flag.StringVar(&defaultConfig.RecordFile, "record", defaultConfig.RecordFile, "Record samples to file")
	flag.BoolVar(&defaultConfig.Commands, "commands", defaultConfig.Commands, "Accept commands over MQTT")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.IDs = append(IDList(nil), defaultConfig.IDs...)
	return &conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.IDs) == 0 {
		return fmt.Errorf("at least one servo id is required")
	}
	for _, id := range c.IDs {
		if id < servo.MinID || id > servo.MaxID {
			return fmt.Errorf("invalid servo id %d", id)
		}
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.SourceID == "" || strings.ContainsAny(c.SourceID, "/+#") {
		return fmt.Errorf("invalid source id %q", c.SourceID)
	}
	if c.Commands && c.MQTTURL == "" {
		return fmt.Errorf("commands require MQTT")
	}
	return nil
}

// Monitor is the assembled telemetry of a bus.
type Monitor struct {
	Poller   *Poller
	MQTT     *MQTTPublisher
	Hub      *Hub
	Listener *CommandListener

	closers []func() error
}

// NewMonitor creates a Monitor for the bus.
func (c *Config) NewMonitor(bus *servo.Bus) (*Monitor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		Poller: &Poller{
			Bus:      bus,
			Source:   c.SourceID,
			IDs:      c.IDs,
			Interval: c.Interval,
		},
	}
	if c.MQTTURL != "" {
		opts, prefix, err := ClientOptionsFromURL(c.MQTTURL)
		if err != nil {
			return nil, fmt.Errorf("invalid MQTT URL: %w", err)
		}
		m.MQTT = &MQTTPublisher{Source: c.SourceID, IDs: c.IDs}
		opts.SetBinaryWill(prefix+c.SourceID+"/"+MetaTopic, m.MQTT.Meta(false), 1, true)
		m.MQTT.Queue = NewQueue(opts, prefix)
		m.Poller.Publishers = append(m.Poller.Publishers, m.MQTT)
		if c.Commands {
			m.Listener = &CommandListener{Queue: m.MQTT.Queue, Bus: bus, Source: c.SourceID}
		}
	}
	if c.WebSocketAddr != "" {
		m.Hub = NewHub(c.WebSocketAddr)
		m.Poller.Publishers = append(m.Poller.Publishers, m.Hub)
	}
	if c.RecordFile != "" {
		f, err := os.OpenFile(c.RecordFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, f.Close)
		m.Poller.Publishers = append(m.Poller.Publishers, NewRecorder(f))
	}
	return m, nil
}

// Runnables returns all runnables of the monitor.
func (m *Monitor) Runnables() []fx.Runnable {
	runnables := []fx.Runnable{m.Poller}
	if m.MQTT != nil {
		runnables = append(runnables, m.MQTT)
	}
	if m.Listener != nil {
		runnables = append(runnables, m.Listener)
	}
	if m.Hub != nil {
		runnables = append(runnables, m.Hub)
	}
	return runnables
}

// Close releases resources.
func (m *Monitor) Close() error {
	errs := &fx.AggregatedError{}
	for _, fn := range m.closers {
		errs.Add(fn())
	}
	return errs.Aggregate()
}

// IDList is a list of servo ids usable as flag.Value.
type IDList []int

// String implements flag.Value.
func (l *IDList) String() string {
	strs := make([]string, len(*l))
	for n, id := range *l {
		strs[n] = strconv.Itoa(id)
	}
	return strings.Join(strs, ",")
}

// Set implements flag.Value.
func (l *IDList) Set(val string) error {
	var ids IDList
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		id, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid servo id %q", s)
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}
