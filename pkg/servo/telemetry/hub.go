package telemetry

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/busservo/pkg/framework"
)

// Hub streams samples to WebSocket subscribers. A subscriber connects
// with ?format=json to receive JSON text instead of binary protobuf.
type Hub struct {
	Addr string

	clients map[*hubClient]struct{}
	lock    sync.RWMutex
}

type hubClient struct {
	conn *websocket.Conn
	json bool
	ch   chan *Sample
}

// clientBacklog is the number of samples buffered per subscriber,
// samples are dropped for a subscriber falling behind.
const clientBacklog = 64

// NewHub creates a Hub listening on addr.
func NewHub(addr string) *Hub {
	return &Hub{Addr: addr, clients: make(map[*hubClient]struct{})}
}

// Name implements Named.
func (h *Hub) Name() string {
	return "websocket"
}

// Handler returns the http.Handler accepting subscribers.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Publish implements Publisher.
func (h *Hub) Publish(s *Sample) error {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for c := range h.clients {
		select {
		case c.ch <- s:
		default:
			glog.V(1).Infof("websocket %s is slow, sample dropped", c.conn.Request().RemoteAddr)
		}
	}
	return nil
}

// Clients returns the number of subscribers.
func (h *Hub) Clients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	glog.Infof("websocket listening on %s", ln.Addr())
	mux := http.NewServeMux()
	mux.Handle("/", h.Handler())
	server := &http.Server{Handler: mux}
	return fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}

func (h *Hub) serve(conn *websocket.Conn) {
	c := &hubClient{
		conn: conn,
		json: conn.Request().URL.Query().Get("format") == "json",
		ch:   make(chan *Sample, clientBacklog),
	}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	defer func() {
		h.lock.Lock()
		delete(h.clients, c)
		h.lock.Unlock()
	}()

	closed := make(chan struct{})
	go func() {
		// subscribers send nothing, a read returns when the peer closes.
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		close(closed)
	}()

	for {
		select {
		case <-closed:
			return
		case s := <-c.ch:
			if err := c.send(s); err != nil {
				glog.V(1).Infof("websocket %s: %v", conn.Request().RemoteAddr, err)
				return
			}
		}
	}
}

func (c *hubClient) send(s *Sample) error {
	if c.json {
		data, err := s.MarshalJSON()
		if err != nil {
			return err
		}
		return websocket.Message.Send(c.conn, string(data))
	}
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return websocket.Message.Send(c.conn, data)
}
