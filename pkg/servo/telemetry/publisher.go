package telemetry

import (
	"context"
	"strconv"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// Publisher delivers samples.
type Publisher interface {
	Publish(*Sample) error
}

// PublisherFunc is the func form of Publisher.
type PublisherFunc func(*Sample) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(s *Sample) error {
	return f(s)
}

// Topic names.
const (
	MetaTopic   = "meta"
	StatusTopic = "status"
	CmdTopic    = "cmd"
	ResultTopic = "result"
)

// ServoTopic builds the topic of a servo under the source.
func ServoTopic(source string, id int, name string) string {
	return source + "/servo/" + strconv.Itoa(id) + "/" + name
}

// MQTTPublisher publishes samples to status topics and maintains the
// retained meta topic of the source.
type MQTTPublisher struct {
	Queue  *Queue
	Source string
	IDs    []int
}

// Name implements Named.
func (p *MQTTPublisher) Name() string {
	return "mqtt"
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(s *Sample) error {
	payload, err := s.Marshal()
	if err != nil {
		return err
	}
	// QoS 0 publishing doesn't block on the broker.
	return p.Queue.Pub(ServoTopic(s.Source, s.ID, StatusTopic), payload).Error()
}

// Meta encodes the meta message.
func (p *MQTTPublisher) Meta(online bool) []byte {
	ids := make([]*structpb.Value, len(p.IDs))
	for n, id := range p.IDs {
		ids[n] = numberValue(float64(id))
	}
	data, err := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"source": stringValue(p.Source),
		"online": boolValue(online),
		"ids":    listValue(ids...),
	}})
	if err != nil {
		panic(err)
	}
	return data
}

// Run implements Runnable. It connects to the broker, marks the source
// online until ctx is done.
func (p *MQTTPublisher) Run(ctx context.Context) error {
	p.Queue.OnConnect = func(q *Queue) {
		q.PubWith(p.Source+"/"+MetaTopic, p.Meta(true), 1, true)
	}
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	token = p.Queue.PubWith(p.Source+"/"+MetaTopic, p.Meta(false), 1, true)
	token.Wait()
	if err := token.Error(); err != nil {
		glog.Warningf("publish offline state: %v", err)
	}
	p.Queue.Close()
	return ctx.Err()
}
