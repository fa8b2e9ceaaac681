package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	fx "github.com/robotalks/busservo/pkg/framework"
	"github.com/robotalks/busservo/pkg/servo"
	"github.com/robotalks/busservo/pkg/servo/telemetry"
)

var (
	configFile string
	replayFile string
	watchURL   string
)

func init() {
	servo.SetupFlags()
	telemetry.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML file with bus and telemetry sections.")
	flag.StringVar(&replayFile, "replay", replayFile, "Print samples recorded in the file and exit.")
	flag.StringVar(&watchURL, "watch", watchURL, "Print samples published to the MQTT broker URL.")
}

type fileConfig struct {
	Bus       *servo.Config     `yaml:"bus"`
	Telemetry *telemetry.Config `yaml:"telemetry"`
}

func loadConfig() (*servo.Config, *telemetry.Config, error) {
	conf := fileConfig{Bus: servo.NewConfig(), Telemetry: telemetry.NewConfig()}
	if configFile == "" {
		return conf.Bus, conf.Telemetry, nil
	}
	f, err := os.Open(configFile)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", configFile, err)
	}
	return conf.Bus, conf.Telemetry, nil
}

func printSample(s *telemetry.Sample) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func replay() error {
	f, err := os.Open(replayFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return telemetry.Replay(f, printSample)
}

func watch() {
	opts, prefix, err := telemetry.ClientOptionsFromURL(watchURL)
	if err != nil {
		log.Fatalln(err)
	}
	q := telemetry.NewQueue(opts, prefix)
	q.Sub("#", func(topic string, payload []byte) {
		if !strings.HasSuffix(topic, "/"+telemetry.StatusTopic) {
			log.Printf("%s: %d bytes", topic, len(payload))
			return
		}
		s, err := telemetry.UnmarshalSample(payload)
		if err != nil {
			log.Printf("%s: bad sample: %v", topic, err)
			return
		}
		out, _ := json.Marshal(s)
		log.Printf("%s: %s", topic, out)
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	switch {
	case replayFile != "":
		if err := replay(); err != nil {
			log.Fatalln(err)
		}
		return
	case watchURL != "":
		watch()
		return
	}

	busConf, telemetryConf, err := loadConfig()
	if err != nil {
		log.Fatalln(err)
	}
	if err := telemetryConf.Validate(); err != nil {
		log.Fatalln(err)
	}
	if err := monitor(busConf.MustOpen(), telemetryConf); err != nil {
		log.Fatalln(err)
	}
}

// monitor runs the telemetry on bus until interrupted. The bus is
// always closed on return.
func monitor(bus *servo.Bus, conf *telemetry.Config) (err error) {
	defer func() {
		if cerr := bus.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	mon, err := conf.NewMonitor(bus)
	if err != nil {
		return err
	}
	defer mon.Close()

	glog.Infof("monitoring servos %s as %s", conf.IDs.String(), conf.SourceID)
	return fx.NewRunner().HandleSignals().Go(mon.Runnables()...).Wait()
}
