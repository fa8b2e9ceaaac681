package telemetry

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/busservo/pkg/servo"
)

func testSample(id int) *Sample {
	return &Sample{
		Source: "bench",
		Time:   time.Unix(1700000000, 125*int64(time.Millisecond)),
		Status: servo.Status{
			ID:          id,
			Position:    120.24,
			Velocity:    -35.5,
			AngleOffset: 2.4,
			Temperature: 41,
			Voltage:     7.46,
		},
	}
}

func TestSampleMarshal(t *testing.T) {
	s := testSample(3)
	data, err := s.Marshal()
	require.NoError(t, err)
	decoded, err := UnmarshalSample(data)
	require.NoError(t, err)
	require.Equal(t, s.Source, decoded.Source)
	require.True(t, s.Time.Equal(decoded.Time))
	require.Equal(t, s.Status, decoded.Status)

	_, err = UnmarshalSample(nil)
	require.Error(t, err)
}

func TestSampleJSON(t *testing.T) {
	data, err := json.Marshal(testSample(3))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, "bench", m["source"])
	require.Equal(t, 3.0, m["id"])
	require.Equal(t, 7.46, m["voltage"])
}

func TestRecordReplay(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	require.NoError(t, rec.Publish(testSample(1)))
	require.NoError(t, rec.Publish(testSample(2)))

	var ids []int
	require.NoError(t, Replay(bytes.NewReader(buf.Bytes()), func(s *Sample) error {
		ids = append(ids, s.ID)
		return nil
	}))
	require.Equal(t, []int{1, 2}, ids)

	truncated := buf.Bytes()[:buf.Len()-3]
	err := Replay(bytes.NewReader(truncated), func(*Sample) error { return nil })
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReplayOversizedPacket(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0xfffffff0)))
	buf.WriteString("not a sample")
	err := Replay(&buf, func(*Sample) error { return nil })
	require.True(t, errors.Is(err, ErrPacketTooLarge))

	err = NewRecorder(io.Discard).WritePacket(make([]byte, MaxPacketSize+1))
	require.True(t, errors.Is(err, ErrPacketTooLarge))
}
