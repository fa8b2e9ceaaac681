package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/busservo/pkg/l0/comm"
	"github.com/robotalks/busservo/pkg/servo"
)

func lastFrame(t *testing.T, written [][]byte) *comm.Frame {
	require.NotEmpty(t, written)
	f, err := comm.NewDecoder(bytes.NewReader(written[len(written)-1])).Decode()
	require.NoError(t, err)
	return f
}

func TestParseCommand(t *testing.T) {
	for _, cmd := range []*Command{
		{Op: OpMove, Angle: 120, Time: 1.5},
		{Op: OpMoveSpeed, Angle: 60, Speed: servo.Speed(30)},
		{Op: OpStop},
		{Op: OpPower, On: true},
		{Op: OpLED},
		{Op: OpMode, Mode: servo.ModeMotor, Speed: servo.Speed(-500)},
		{Op: OpMode, Mode: servo.ModeServo},
	} {
		data, err := cmd.Marshal()
		require.NoError(t, err)
		parsed, err := ParseCommand(data)
		require.NoError(t, err)
		require.Equal(t, cmd, parsed)
	}
}

func TestParseCommandInvalid(t *testing.T) {
	encode := func(fields map[string]*structpb.Value) []byte {
		data, err := proto.Marshal(&structpb.Struct{Fields: fields})
		require.NoError(t, err)
		return data
	}
	for _, data := range [][]byte{
		encode(nil),
		encode(map[string]*structpb.Value{"op": stringValue("dance")}),
		encode(map[string]*structpb.Value{"op": stringValue(OpMove), "angle": stringValue("far")}),
		encode(map[string]*structpb.Value{"op": stringValue(OpPower)}),
		{0xff, 0xff},
	} {
		_, err := ParseCommand(data)
		require.Error(t, err)
	}
}

func TestExecuteCommand(t *testing.T) {
	ctx := context.Background()
	bus, tr := newServoBus()
	l := &CommandListener{Bus: bus, Source: "bench"}

	data, err := (&Command{Op: OpMove, Angle: 120, Time: 1}).Marshal()
	require.NoError(t, err)
	require.NoError(t, l.Execute(ctx, 4, data))
	f := lastFrame(t, tr.Written())
	require.Equal(t, byte(4), f.Address)
	require.Equal(t, servo.OpMoveTimeWrite, f.Opcode)
	require.Equal(t, []byte{0xf4, 0x01, 0xe8, 0x03}, f.Params)

	data, err = (&Command{Op: OpLED, On: true}).Marshal()
	require.NoError(t, err)
	require.NoError(t, l.Execute(ctx, 4, data))
	f = lastFrame(t, tr.Written())
	require.Equal(t, servo.OpLEDCtrlWrite, f.Opcode)
	require.Equal(t, []byte{0}, f.Params)

	data, err = (&Command{Op: OpMode, Mode: servo.ModeMotor}).Marshal()
	require.NoError(t, err)
	require.Error(t, l.Execute(ctx, 4, data))
}

func TestResult(t *testing.T) {
	var st structpb.Struct
	require.NoError(t, proto.Unmarshal(Result(nil), &st))
	require.True(t, st.Fields["ok"].GetBoolValue())

	require.NoError(t, proto.Unmarshal(Result(comm.ErrTimeout), &st))
	require.False(t, st.Fields["ok"].GetBoolValue())
	require.Equal(t, comm.ErrTimeout.Error(), st.Fields["error"].GetStringValue())
}

func TestServoIDFromTopic(t *testing.T) {
	id, err := servoIDFromTopic("bench/servo/12/cmd")
	require.NoError(t, err)
	require.Equal(t, 12, id)
	_, err = servoIDFromTopic("bench/meta")
	require.Error(t, err)
	_, err = servoIDFromTopic("bench/servo/x/cmd")
	require.Error(t, err)
}
