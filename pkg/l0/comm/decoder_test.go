package comm

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, addr, opcode int, params ...byte) []byte {
	b, err := Encode(addr, opcode, params)
	require.NoError(t, err)
	return b
}

func concat(bs ...[]byte) []byte {
	return bytes.Join(bs, nil)
}

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

type timeoutReader struct {
	r io.Reader
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err == io.EOF {
		err = timeoutError{}
	}
	return n, err
}

func TestDecode(t *testing.T) {
	valid := mustEncode(t, 1, 28, 0x10, 0x00)
	testCases := []struct {
		name   string
		stream []byte
	}{
		{"clean", valid},
		{"false start", concat([]byte{0xff, 0xff, 0x55, 0xaa, 0xff}, valid)},
		{"heavy noise", concat(bytes.Repeat([]byte{0xff}, 1000), valid)},
		{"spurious sync byte", concat([]byte{0x55, 0x00}, valid)},
		{"false header", concat([]byte{0x55, 0x55, 0x01, 0x00}, valid)},
		{"trailing bytes", concat(valid, []byte{0x55, 0x55, 0x01})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for name, r := range map[string]io.Reader{
				"bulk":     bytes.NewReader(tc.stream),
				"one byte": iotest.OneByteReader(bytes.NewReader(tc.stream)),
			} {
				frame, err := NewDecoder(r).Decode()
				require.NoErrorf(t, err, "%s reader", name)
				require.Equal(t, byte(1), frame.Address)
				require.Equal(t, byte(28), frame.Opcode)
				require.Equal(t, []byte{0x10, 0x00}, frame.Params)
			}
		})
	}
}

func TestDecodeNoiseLimit(t *testing.T) {
	noise := bytes.Repeat([]byte{0xff}, 3000)
	_, err := NewDecoder(bytes.NewReader(noise)).Decode()
	require.True(t, errors.Is(err, ErrTimeout))
	require.Contains(t, err.Error(), "timed out waiting for frame header")

	d := NewDecoder(bytes.NewReader(concat(bytes.Repeat([]byte{0xff}, 100), mustEncode(t, 1, 28))))
	d.NoiseLimit = 50
	_, err = d.Decode()
	require.True(t, errors.Is(err, ErrTimeout))
}

func TestDecodeNoiseLimitBoundary(t *testing.T) {
	frame := mustEncode(t, 1, 28, 0x10, 0x00)
	decode := func(noise []byte) error {
		d := NewDecoder(bytes.NewReader(concat(noise, frame)))
		d.NoiseLimit = 8
		f, err := d.Decode()
		if err == nil {
			require.Equal(t, []byte{0x10, 0x00}, f.Params)
		}
		return err
	}
	require.NoError(t, decode(bytes.Repeat([]byte{0xff}, 7)))
	require.NoError(t, decode(bytes.Repeat([]byte{0xff}, 8)))
	require.True(t, errors.Is(decode(bytes.Repeat([]byte{0xff}, 9)), ErrTimeout))

	// a lone sync byte and a false header are skipped as noise
	require.NoError(t, decode([]byte{SyncByte, 0x00, SyncByte, SyncByte, 0x01, 0x01}))
	require.True(t, errors.Is(decode([]byte{SyncByte, 0x00, SyncByte, SyncByte, 0x01, 0x01, 0xff, 0xff, 0xff}), ErrTimeout))
}

func TestDecodeShortRead(t *testing.T) {
	valid := mustEncode(t, 1, 28, 0x10, 0x00)
	for n := 0; n < len(valid); n++ {
		_, err := NewDecoder(bytes.NewReader(valid[:n])).Decode()
		require.Truef(t, errors.Is(err, ErrTimeout), "truncated at %d: %v", n, err)
		_, err = NewDecoder(&timeoutReader{bytes.NewReader(valid[:n])}).Decode()
		require.Truef(t, errors.Is(err, ErrTimeout), "truncated at %d: %v", n, err)
	}
}

func TestDecodeTransportError(t *testing.T) {
	failure := errors.New("device unplugged")
	_, err := NewDecoder(iotest.ErrReader(failure)).Decode()
	require.Equal(t, failure, err)
}

func TestDecodeChecksum(t *testing.T) {
	corrupted := mustEncode(t, 1, 26, 40)
	corrupted[len(corrupted)-1] ^= 0x01

	_, err := NewDecoder(bytes.NewReader(corrupted)).Decode()
	require.True(t, errors.Is(err, ErrChecksumMismatch))
	var csErr *ChecksumError
	require.True(t, errors.As(err, &csErr))
	require.Equal(t, byte(0xb9), csErr.Received)
	require.Equal(t, byte(0xb8), csErr.Computed)

	d := NewDecoder(bytes.NewReader(corrupted))
	d.VerifyChecksum = false
	frame, err := d.Decode()
	require.NoError(t, err)
	require.Equal(t, []byte{40}, frame.Params)
	require.Equal(t, byte(0xb9), frame.Checksum)
}
