package comm

import (
	"fmt"
	"io"
)

// Protocol constants.
const (
	// SyncByte is repeated twice to start every frame.
	SyncByte byte = 0x55
	// BroadcastAddress makes all servos act on a frame, none of them reply.
	BroadcastAddress = 254
	// MaxAddress is the largest address an individual servo may use.
	MaxAddress = 253
	// MaxParams is the largest parameter count a frame can carry.
	MaxParams = 252

	// frameOverhead is header(2) + address + length + opcode + checksum.
	frameOverhead = 6
	// lengthOverhead is the part of length field not counting parameters.
	lengthOverhead = 3
)

// Frame is a single protocol message.
type Frame struct {
	Address  byte
	Opcode   byte
	Params   []byte
	Checksum byte
}

// NewFrame validates the values and creates a Frame with checksum.
func NewFrame(address, opcode int, params []byte) (*Frame, error) {
	if address < 0 || address > BroadcastAddress {
		return nil, InvalidArgumentf("address must be in range [0, %d]; got %d", BroadcastAddress, address)
	}
	if opcode < 0 || opcode > 0xff {
		return nil, InvalidArgumentf("opcode must be in range [0, 255]; got %d", opcode)
	}
	if len(params) > MaxParams {
		return nil, InvalidArgumentf("at most %d parameter bytes allowed; got %d", MaxParams, len(params))
	}
	f := &Frame{Address: byte(address), Opcode: byte(opcode), Params: params}
	f.Checksum = f.ComputeChecksum()
	return f, nil
}

// Length is the value of length field.
func (f *Frame) Length() byte {
	return byte(len(f.Params) + lengthOverhead)
}

// ComputeChecksum calculates the checksum from the content.
func (f *Frame) ComputeChecksum() byte {
	return Checksum(f.Address, f.Length(), f.Opcode, f.Params)
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, len(f.Params)+frameOverhead)
	b = append(b, SyncByte, SyncByte, f.Address, f.Length(), f.Opcode)
	b = append(b, f.Params...)
	return append(b, f.Checksum)
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b := f.Bytes()
	n, err := w.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("addr=%d op=%d params=% x sum=%02x", f.Address, f.Opcode, f.Params, f.Checksum)
}

// Encode builds the wire bytes of a frame.
func Encode(address, opcode int, params []byte) ([]byte, error) {
	f, err := NewFrame(address, opcode, params)
	if err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}

// Checksum is the bitwise NOT of the low byte of the sum of all fields.
// length must be exactly 3 + len(params).
func Checksum(address, length, opcode byte, params []byte) byte {
	sum := uint(address) + uint(length) + uint(opcode)
	for _, b := range params {
		sum += uint(b)
	}
	return byte(^sum & 0xff)
}
