package telemetry

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/busservo/pkg/servo"
)

// Sample is the status of a servo at a time.
type Sample struct {
	Source string
	Time   time.Time
	servo.Status
}

// Struct converts the sample into a protobuf Struct.
func (s *Sample) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"source":       stringValue(s.Source),
		"time":         numberValue(float64(s.Time.UnixNano() / int64(time.Millisecond))),
		"id":           numberValue(float64(s.ID)),
		"position":     numberValue(s.Position),
		"velocity":     numberValue(s.Velocity),
		"angle-offset": numberValue(s.AngleOffset),
		"temperature":  numberValue(s.Temperature),
		"voltage":      numberValue(s.Voltage),
	}}
}

// Marshal encodes the sample in protobuf wire format.
func (s *Sample) Marshal() ([]byte, error) {
	return proto.Marshal(s.Struct())
}

// MarshalJSON implements json.Marshaler.
func (s *Sample) MarshalJSON() ([]byte, error) {
	var m jsonpb.Marshaler
	str, err := m.MarshalToString(s.Struct())
	return []byte(str), err
}

// UnmarshalSample decodes a sample encoded by Marshal.
func UnmarshalSample(data []byte) (*Sample, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	f := fields(st.Fields)
	s := &Sample{
		Source: f.str("source"),
		Time:   time.Unix(0, int64(f.num("time"))*int64(time.Millisecond)),
	}
	s.ID = int(f.num("id"))
	s.Position = f.num("position")
	s.Velocity = f.num("velocity")
	s.AngleOffset = f.num("angle-offset")
	s.Temperature = f.num("temperature")
	s.Voltage = f.num("voltage")
	if f.err != nil {
		return nil, f.err
	}
	return s, nil
}

func stringValue(v string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func boolValue(v bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
}

func listValue(vals ...*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: vals}}}
}

// fieldReader reads typed fields and keeps the first error.
type fieldReader struct {
	values map[string]*structpb.Value
	err    error
}

func fields(values map[string]*structpb.Value) *fieldReader {
	return &fieldReader{values: values}
}

func (r *fieldReader) has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r *fieldReader) value(name string, ok func(*structpb.Value) bool) *structpb.Value {
	v := r.values[name]
	if v == nil || !ok(v) {
		if r.err == nil {
			r.err = fmt.Errorf("field %q missing or of wrong type", name)
		}
		return nil
	}
	return v
}

func (r *fieldReader) num(name string) float64 {
	v := r.value(name, func(v *structpb.Value) bool {
		_, ok := v.Kind.(*structpb.Value_NumberValue)
		return ok
	})
	return v.GetNumberValue()
}

func (r *fieldReader) str(name string) string {
	v := r.value(name, func(v *structpb.Value) bool {
		_, ok := v.Kind.(*structpb.Value_StringValue)
		return ok
	})
	return v.GetStringValue()
}

func (r *fieldReader) boolean(name string) bool {
	v := r.value(name, func(v *structpb.Value) bool {
		_, ok := v.Kind.(*structpb.Value_BoolValue)
		return ok
	})
	return v.GetBoolValue()
}
