package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxPacketSize is the largest recorded packet.
const MaxPacketSize = 64 << 10

// ErrPacketTooLarge indicates a length prefix over MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// Recorder writes samples to a stream, each prefixed by 4-byte
// (little-endian) length.
type Recorder struct {
	w    io.Writer
	lock sync.Mutex
}

// NewRecorder creates a Recorder.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// WritePacket writes a length prefixed packet.
func (r *Recorder) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(pkt))
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if err := binary.Write(r.w, binary.LittleEndian, uint32(len(pkt))); err != nil {
		return err
	}
	_, err := r.w.Write(pkt)
	return err
}

// Publish implements Publisher.
func (r *Recorder) Publish(s *Sample) error {
	pkt, err := s.Marshal()
	if err != nil {
		return err
	}
	return r.WritePacket(pkt)
}

// ReadPacket reads a length prefixed packet.
func ReadPacket(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, size)
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(r, pkt)
	return pkt, err
}

// Replay reads all samples recorded in the stream.
func Replay(r io.Reader, fn func(*Sample) error) error {
	for {
		pkt, err := ReadPacket(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		s, err := UnmarshalSample(pkt)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
}
