package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/busservo/pkg/servo"
)

// Command is a remote request to a servo.
type Command struct {
	Op    string
	Angle float64
	Time  float64
	Speed *float64
	On    bool
	Mode  servo.Mode
}

// Commands accepted remotely.
const (
	OpMove      = "move"
	OpMoveSpeed = "move-speed"
	OpStop      = "stop"
	OpPower     = "power"
	OpLED       = "led"
	OpMode      = "mode"
)

// ParseCommand decodes a protobuf Struct command, e.g.
// {"op": "move", "angle": 120, "time": 1.5}.
func ParseCommand(data []byte) (*Command, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	f := fields(st.Fields)
	cmd := &Command{Op: f.str("op")}
	switch cmd.Op {
	case OpMove:
		cmd.Angle, cmd.Time = f.num("angle"), f.num("time")
	case OpMoveSpeed:
		cmd.Angle = f.num("angle")
		cmd.Speed = servo.Speed(f.num("speed"))
	case OpStop:
	case OpPower, OpLED:
		cmd.On = f.boolean("on")
	case OpMode:
		cmd.Mode = servo.Mode(f.str("mode"))
		if f.has("speed") {
			cmd.Speed = servo.Speed(f.num("speed"))
		}
	default:
		if f.err == nil {
			return nil, fmt.Errorf("unknown op %q", cmd.Op)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return cmd, nil
}

// Marshal encodes the command.
func (c *Command) Marshal() ([]byte, error) {
	values := map[string]*structpb.Value{"op": stringValue(c.Op)}
	switch c.Op {
	case OpMove:
		values["angle"], values["time"] = numberValue(c.Angle), numberValue(c.Time)
	case OpMoveSpeed:
		values["angle"] = numberValue(c.Angle)
	case OpPower, OpLED:
		values["on"] = boolValue(c.On)
	case OpMode:
		values["mode"] = stringValue(string(c.Mode))
	}
	if c.Speed != nil && (c.Op == OpMoveSpeed || c.Op == OpMode) {
		values["speed"] = numberValue(*c.Speed)
	}
	return proto.Marshal(&structpb.Struct{Fields: values})
}

// Apply executes the command on the servo.
func (c *Command) Apply(ctx context.Context, s *servo.Servo) error {
	switch c.Op {
	case OpMove:
		return s.MoveTimeWrite(ctx, c.Angle, c.Time, false)
	case OpMoveSpeed:
		if c.Speed == nil {
			return fmt.Errorf("speed required")
		}
		return s.MoveSpeedWrite(ctx, c.Angle, *c.Speed, false)
	case OpStop:
		return s.MoveStop(ctx)
	case OpPower:
		return s.SetPowered(ctx, c.On)
	case OpLED:
		return s.LEDCtrlWrite(ctx, c.On)
	case OpMode:
		return s.ModeWrite(ctx, c.Mode, c.Speed)
	}
	return fmt.Errorf("unknown op %q", c.Op)
}

// CommandListener executes commands received on the cmd topics of
// the source and publishes the results.
type CommandListener struct {
	Queue  *Queue
	Bus    *servo.Bus
	Source string
}

// Name implements Named.
func (l *CommandListener) Name() string {
	return "commands"
}

// Run implements Runnable.
func (l *CommandListener) Run(ctx context.Context) error {
	sub := l.Queue.Sub(l.Source+"/servo/+/"+CmdTopic, func(topic string, payload []byte) {
		l.handle(ctx, topic, payload)
	})
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (l *CommandListener) handle(ctx context.Context, topic string, payload []byte) {
	id, err := servoIDFromTopic(topic)
	if err != nil {
		glog.Warningf("ignore command on %q: %v", topic, err)
		return
	}
	err = l.Execute(ctx, id, payload)
	if err != nil {
		glog.Warningf("servo %d command failed: %v", id, err)
	}
	l.Queue.Pub(ServoTopic(l.Source, id, ResultTopic), Result(err))
}

// Execute decodes and applies a command.
func (l *CommandListener) Execute(ctx context.Context, id int, payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}
	glog.V(1).Infof("servo %d command %s", id, cmd.Op)
	return cmd.Apply(ctx, l.Bus.Servo(id, ""))
}

// Result encodes the result of a command.
func Result(err error) []byte {
	values := map[string]*structpb.Value{"ok": boolValue(err == nil)}
	if err != nil {
		values["error"] = stringValue(err.Error())
	}
	data, err := proto.Marshal(&structpb.Struct{Fields: values})
	if err != nil {
		panic(err)
	}
	return data
}

func servoIDFromTopic(topic string) (int, error) {
	tokens := strings.Split(topic, "/")
	if len(tokens) < 3 || tokens[len(tokens)-3] != "servo" {
		return 0, fmt.Errorf("not a servo topic")
	}
	return strconv.Atoi(tokens[len(tokens)-2])
}
