package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates a caller supplied value is out of the
	// range defined by the protocol. It's always detected before any byte
	// is sent.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTimeout indicates the frame header is not found within the noise
	// limit, or the transport returned no data in the middle of a frame.
	ErrTimeout = errors.New("protocol timeout")
	// ErrChecksumMismatch indicates a structurally complete frame failed
	// checksum verification.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrProtocolMismatch indicates the reply doesn't correspond to the
	// outstanding request.
	ErrProtocolMismatch = errors.New("protocol mismatch")
)

// InvalidArgumentf creates an error wrapping ErrInvalidArgument.
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ChecksumError reports both checksums of a corrupted frame.
type ChecksumError struct {
	Received byte
	Computed byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: received 0x%02x, computed 0x%02x", e.Received, e.Computed)
}

// Is supports errors.Is.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// MismatchError reports a reply field not matching the request.
type MismatchError struct {
	Field string
	Want  byte
	Got   byte
}

// Error implements error.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("reply %s %d does not match request %s %d", e.Field, e.Got, e.Field, e.Want)
}

// Is supports errors.Is.
func (e *MismatchError) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// DecodeError indicates the parameters of a reply can't be interpreted
// for the command, e.g. too short or carrying an unknown enum value.
type DecodeError struct {
	Opcode  byte
	Message string
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode reply of opcode %d: %s", e.Opcode, e.Message)
}

// Is supports errors.Is.
func (e *DecodeError) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// IsRetriable tells if the failure is a bus fault worth another round trip.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrProtocolMismatch)
}
