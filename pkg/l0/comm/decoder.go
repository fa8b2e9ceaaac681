package comm

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
)

// DefaultNoiseLimit is the number of bytes skipped while hunting for the
// frame header before giving up.
const DefaultNoiseLimit = 2048

// Decoder reads frames from a byte stream.
type Decoder struct {
	Reader         io.Reader
	VerifyChecksum bool
	NoiseLimit     int

	parser Parser
	buf    [MaxParams]byte
}

// NewDecoder creates a Decoder verifying checksums.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		Reader:         r,
		VerifyChecksum: true,
		NoiseLimit:     DefaultNoiseLimit,
	}
}

// Decode blocks until a complete frame is received.
// Noise preceding the frame header is skipped.
func (d *Decoder) Decode() (*Frame, error) {
	limit := d.NoiseLimit
	if limit <= 0 {
		limit = DefaultNoiseLimit
	}
	d.parser.Reset()
	// pending counts bytes consumed since the last discard, which belong
	// to the header or frame in progress.
	var noise, pending int
	for {
		if noise > limit {
			return nil, fmt.Errorf("%w: timed out waiting for frame header (%d bytes skipped)", ErrTimeout, noise)
		}
		buf := d.buf[:d.parser.Need()]
		if err := readFull(d.Reader, buf); err != nil {
			return nil, err
		}
		for _, b := range buf {
			pending++
			pr := d.parser.Parse(b)
			switch {
			case pr.Frame != nil:
				return d.complete(pr.Frame)
			case pr.Resync:
				glog.V(1).Infof("false frame header, resync")
				noise, pending = noise+pending, 0
			case d.parser.state == stateIdle:
				noise, pending = noise+pending, 0
			}
		}
	}
}

func (d *Decoder) complete(f *Frame) (*Frame, error) {
	if glog.V(2) {
		glog.Infof("RX %s", f)
	}
	if d.VerifyChecksum {
		if sum := f.ComputeChecksum(); sum != f.Checksum {
			return nil, &ChecksumError{Received: f.Checksum, Computed: sum}
		}
	}
	return f, nil
}

// readFull fills p, a read returning no data is considered a timeout of
// the underlying transport.
func readFull(r io.Reader, p []byte) error {
	for off := 0; off < len(p); {
		n, err := r.Read(p[off:])
		off += n
		if off >= len(p) {
			return nil
		}
		if err == nil && n > 0 {
			continue
		}
		if err == nil || err == io.EOF || os.IsTimeout(err) {
			return fmt.Errorf("%w: short read (%d of %d bytes)", ErrTimeout, off, len(p))
		}
		return err
	}
	return nil
}
