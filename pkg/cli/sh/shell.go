package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/busservo/pkg/servo"
	"github.com/robotalks/busservo/pkg/servo/serialport"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *servo.Config
	Bus    *servo.Bus

	open func(*servo.Config) (*servo.Bus, error)
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	configFile string

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&configFile, "config", configFile, "YAML file of bus configuration.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *servo.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,

		open: (*servo.Config).Open,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpened wraps command func requires an opened bus.
func MustBeOpened(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Bus == nil {
			c.Err(fmt.Errorf("bus not opened"))
			return
		}
		fn(c)
	}
}

// Do runs fn on the opened bus and prints the result.
// A nil result prints OK.
func Do(c *ishell.Context, fn func(ctx context.Context, bus *servo.Bus) (interface{}, error)) error {
	s := ShellFrom(c)
	if s.Bus == nil {
		err := fmt.Errorf("bus not opened")
		c.Err(err)
		return err
	}
	result, err := fn(context.Background(), s.Bus)
	if err != nil {
		c.Err(err)
		return err
	}
	return s.Print(c, result)
}

// Print prints a result as text or JSON.
func (s *Shell) Print(c *ishell.Context, result interface{}) error {
	if s.OutputJSON {
		if result == nil {
			result = map[string]bool{"ok": true}
		}
		out, err := json.Marshal(result)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	c.Println(FormatText(result))
	return nil
}

// FormatText renders a result for display.
func FormatText(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return "OK"
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for n, key := range keys {
			items[n] = fmt.Sprintf("%s=%v", key, v[key])
		}
		return strings.Join(items, " ")
	}
	return fmt.Sprintf("%+v", result)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the bus on the port, the configured one if empty.
func (s *Shell) Open(port string) error {
	conf := *s.Config
	if port != "" {
		conf.Port = port
	}
	if err := s.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	bus, err := s.open(&conf)
	if err != nil {
		return err
	}
	s.Bus = bus
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conf.Port))
	return nil
}

// Close closes current bus.
func (s *Shell) Close() error {
	if s.Bus == nil {
		return nil
	}
	err := s.Bus.Close()
	s.Bus = nil
	s.Shell.SetPrompt(unopenedPrompt)
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Port)
		}
		if err := s.Open(""); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			s.Close()
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := serialport.List()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				s.Print(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens the bus.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Open(port); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the bus.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := servo.Default()
	if configFile != "" {
		var err error
		if conf, err = servo.LoadConfig(configFile); err != nil {
			log.Fatalln(err)
		}
	}
	New(conf).WithAutoOpen(true).Run(flag.Args()...)
}
